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

// Package packet implements the IETF Roughtime outer framing: an 8-byte
// ASCII magic and a little-endian length header wrapping a TLV message.
// Google-era (version 0) traffic omits the frame entirely; Decode falls
// back to treating its input as a bare TLV message when the magic isn't
// present.
package packet

import (
	"encoding/binary"

	"github.com/cloudflare-labs/roughtime-core/rterr"
)

const magic = "ROUGHTIM"

// FrameOverhead is the number of bytes the frame adds to a message.
const FrameOverhead = len(magic) + 4

// Encode wraps msg in the IETF frame.
func Encode(msg []byte) []byte {
	out := make([]byte, 0, FrameOverhead+len(msg))
	out = append(out, magic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(msg)))
	out = append(out, msg...)
	return out
}

// Decode splits a packet into its TLV message. If buf does not begin with
// the ROUGHTIM magic, it is treated as a bare TLV message (the
// Google/IETF-draft-0 wire format) and minSize is still enforced against
// the whole buffer. When minSize is 0, the floor is not enforced.
func Decode(buf []byte, minSize int) (msg []byte, framed bool, err error) {
	if len(buf) < 12 {
		return nil, false, rterr.New(rterr.Truncated, "packet too short to be valid")
	}

	if string(buf[:len(magic)]) == magic {
		declared := binary.LittleEndian.Uint32(buf[len(magic):FrameOverhead])
		if declared%4 != 0 {
			return nil, false, rterr.New(rterr.BadLength, "declared message length is not a multiple of 4")
		}
		if int(declared)+FrameOverhead != len(buf) {
			return nil, false, rterr.New(rterr.BadLength, "declared message length does not match packet size")
		}
		if minSize > 0 && len(buf) < minSize {
			return nil, false, rterr.New(rterr.BadLength, "packet smaller than minimum size %d", minSize)
		}
		return buf[FrameOverhead:], true, nil
	}

	// First 8 bytes are not the magic: fall back to the bare-TLV
	// (Google/IETF-draft-0) wire format.
	if minSize > 0 && len(buf) < minSize {
		return nil, false, rterr.New(rterr.BadLength, "packet smaller than minimum size %d", minSize)
	}
	return buf, false, nil
}
