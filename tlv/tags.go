// Copyright 2023 Cloudflare, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tlv

import "github.com/cloudflare-labs/roughtime-core/tagcodec"

// The full set of tags used across the version matrix. Padding has two
// distinct forms: Google's raw PAD\xff and the IETF ZZZZ / PAD\0.
var (
	TagCERT = tagcodec.FromName("CERT").Uint32()
	TagDELE = tagcodec.FromName("DELE").Uint32()
	TagINDX = tagcodec.FromName("INDX").Uint32()
	TagMAXT = tagcodec.FromName("MAXT").Uint32()
	TagMIDP = tagcodec.FromName("MIDP").Uint32()
	TagMINT = tagcodec.FromName("MINT").Uint32()
	TagNONC = tagcodec.FromName("NONC").Uint32()
	TagPATH = tagcodec.FromName("PATH").Uint32()
	TagPUBK = tagcodec.FromName("PUBK").Uint32()
	TagRADI = tagcodec.FromName("RADI").Uint32()
	TagROOT = tagcodec.FromName("ROOT").Uint32()
	TagSIG  = tagcodec.FromName("SIG").Uint32()
	TagSREP = tagcodec.FromName("SREP").Uint32()
	TagSRV  = tagcodec.FromName("SRV").Uint32()
	TagTYPE = tagcodec.FromName("TYPE").Uint32()
	TagVER  = tagcodec.FromName("VER").Uint32()
	TagVERS = tagcodec.FromName("VERS").Uint32()
	TagZZZZ = tagcodec.FromName("ZZZZ").Uint32()

	// TagPADGoogle is Google-Roughtime's raw padding tag: "PAD" followed by
	// 0xff, which is not printable ASCII and so cannot be produced by
	// FromName.
	TagPADGoogle = tagcodec.FromRaw([4]byte{'P', 'A', 'D', 0xff}).Uint32()

	// TagPADIetfLegacy is "PAD\x00", used by the early IETF drafts that
	// predate ZZZZ.
	TagPADIetfLegacy = tagcodec.FromName("PAD").Uint32()
)

// tagName is used only for diagnostics in decode errors.
func tagName(tag uint32) string {
	var raw [4]byte
	raw[0] = byte(tag)
	raw[1] = byte(tag >> 8)
	raw[2] = byte(tag >> 16)
	raw[3] = byte(tag >> 24)
	name, ok := tagcodec.FromRaw(raw).Name()
	if !ok {
		return "0x" + hexByte(raw[0]) + hexByte(raw[1]) + hexByte(raw[2]) + hexByte(raw[3])
	}
	return name
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}
