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

// Package version is the central version-compatibility policy table. Every
// place elsewhere in the core that needs to know "how does version X
// behave" calls into this package instead of re-deriving the answer from
// a chain of conditionals.
package version

import (
	"sort"

	"github.com/cloudflare-labs/roughtime-core/merkle"
	"github.com/cloudflare-labs/roughtime-core/rterr"
	"github.com/cloudflare-labs/roughtime-core/signer"
	"github.com/cloudflare-labs/roughtime-core/tlv"
)

// Version identifies a wire-format revision of the protocol.
type Version uint32

const (
	Google   Version = 0x00000000
	Draft1   Version = 0x80000001
	Draft2   Version = 0x80000002
	Draft3   Version = 0x80000003
	Draft4   Version = 0x80000004
	Draft5   Version = 0x80000005 // expired
	Draft6   Version = 0x80000006
	Draft7   Version = 0x80000007 // expired
	Draft8   Version = 0x80000008
	Draft9   Version = 0x80000009
	Draft10  Version = 0x8000000a
	Draft11  Version = 0x8000000b
	Draft12  Version = 0x8000000c

	// Fiducial is the default chosen when no acceptable client/server
	// overlap exists.
	Fiducial = Draft12

	// released1 is the reserved-but-not-yet-shipped v1 release value that
	// choose_version special-cases ahead of a plain max().
	released1 Version = 0x00000001
)

// Supported lists every version this core recognizes, in ascending order.
var Supported = []Version{
	Google, Draft1, Draft2, Draft3, Draft4, Draft6,
	Draft8, Draft9, Draft10, Draft11, Draft12,
}

// Expired lists versions that were withdrawn during the draft series and
// must not be offered or accepted.
var Expired = []Version{Draft5, Draft7}

func isMember(v Version, set []Version) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// IsSupported reports whether v is a version this core implements.
func IsSupported(v Version) bool {
	return isMember(v, Supported)
}

// IsExpired reports whether v was withdrawn from the draft series.
func IsExpired(v Version) bool {
	return isMember(v, Expired)
}

// NonceLength returns the expected NONC length for v: 64 bytes for the
// Google wire format and the early IETF drafts, 32 bytes from draft 5
// onward.
func NonceLength(v Version) int {
	switch v {
	case Google, Draft1, Draft2, Draft3, Draft4:
		return 64
	default:
		return 32
	}
}

// PadTag returns the numeric tag used to pad a request or response to the
// minimum size for v.
func PadTag(v Version) uint32 {
	switch {
	case v == Google:
		return tlv.TagPADGoogle
	case v >= Draft8:
		return tlv.TagZZZZ
	default: // Draft1..Draft7
		return tlv.TagPADIetfLegacy
	}
}

// MerkleOptions returns the Merkle tree parameters for v.
func MerkleOptions(v Version) merkle.Options {
	if v == Google {
		return merkle.Options{HashSize: 64, Order: merkle.Natural}
	}
	return merkle.Options{HashSize: 32, Order: merkle.Natural}
}

// MerkleLeafData selects the bytes hashed at the base of the tree: the
// nonce for versions through draft 11, the entire client request packet
// (including its 12-byte frame, where present) from draft 12 onward.
func MerkleLeafData(v Version, nonce, requestPacket []byte) []byte {
	if v >= Draft12 {
		return requestPacket
	}
	return nonce
}

// DeleContext returns the signature context used for the CERT's SIG over
// its DELE.
func DeleContext(v Version) string {
	if v < Draft12 {
		return signer.ContextDeleLegacy
	}
	return signer.ContextDele
}

// ChooseVersion selects the version a server should respond with, given
// the versions a client advertised (in the order it sent them; that order
// carries no meaning here — only set membership does).
//
// A nil or empty list means Google-Roughtime (which never sends VER at
// all). If none of the client's versions overlap what this core supports,
// the fiducial version is returned rather than failing outright, since a
// server can always fall back to its own default and let the client
// reject the reply if it truly can't handle it. If the client advertised
// the not-yet-released v1 value, it wins over any other overlap; otherwise
// the highest common version is chosen.
func ChooseVersion(clientVers []Version) Version {
	if len(clientVers) == 0 {
		return Google
	}

	if isMember(released1, clientVers) {
		return released1
	}

	overlap := make([]Version, 0, len(clientVers))
	for _, v := range clientVers {
		if isMember(v, Supported) {
			overlap = append(overlap, v)
		}
	}
	if len(overlap) == 0 {
		return Fiducial
	}

	sort.Slice(overlap, func(i, j int) bool { return overlap[i] < overlap[j] })
	return overlap[len(overlap)-1]
}

// CanBatch reports whether responses for v can share a single SREP across
// a Merkle-batched group. Draft 1 and 2 place NONC inside SREP, which is
// itself signed, so no two distinct-nonce requests can share one SREP.
func CanBatch(v Version) bool {
	return v != Draft1 && v != Draft2
}

// SREPHasVER reports whether the version's SREP layout carries its own VER
// tag (draft 12 only; earlier versions put VER, if any, at the top level).
func SREPHasVER(v Version) bool {
	return v >= Draft12
}

// SREPHasNONC reports whether the version's SREP layout carries NONC
// inside the signed payload (drafts 1 and 2 only).
func SREPHasNONC(v Version) bool {
	return v == Draft1 || v == Draft2
}

// UsesRequestFraming reports whether v's requests and responses use the
// ROUGHTIM outer packet frame. Google-Roughtime and the sentinel "IETF
// draft 0" value 0x80000000 are the two bare-TLV cases.
func UsesRequestFraming(v Version) bool {
	return v != Google && v != 0x80000000
}

// ValidateNonce checks nonce against v's required length.
func ValidateNonce(v Version, nonce []byte) error {
	want := NonceLength(v)
	if len(nonce) != want {
		return rterr.New(rterr.InvalidRequest, "nonce must be %d bytes for version %#x, got %d", want, uint32(v), len(nonce))
	}
	return nil
}

// ValidateType checks a request's TYPE tag. Only draft 12 constrains it;
// it must be exactly the 4 LE bytes for 0 (client hello).
func ValidateType(v Version, typeBytes []byte) error {
	if v != Draft12 {
		return nil
	}
	if len(typeBytes) != 4 || typeBytes[0] != 0 || typeBytes[1] != 0 || typeBytes[2] != 0 || typeBytes[3] != 0 {
		return rterr.New(rterr.InvalidRequest, "TYPE must be 0 for version %#x", uint32(v))
	}
	return nil
}

// ValidateVers checks a request's VER list. Only draft 12 requires it be
// present, bounded, and strictly ascending.
func ValidateVers(v Version, vers []Version) error {
	if v != Draft12 {
		return nil
	}
	if len(vers) == 0 {
		return rterr.New(rterr.InvalidRequest, "VER must be nonempty for version %#x", uint32(v))
	}
	if len(vers) > 32 {
		return rterr.New(rterr.InvalidRequest, "VER may list at most 32 versions, got %d", len(vers))
	}
	for i := 1; i < len(vers); i++ {
		if vers[i-1] >= vers[i] {
			return rterr.New(rterr.InvalidRequest, "VER must be strictly ascending")
		}
	}
	return nil
}

// MinRequestVersionForSRV reports the earliest version whose requests may
// carry an SRV tag.
func MinRequestVersionForSRV() Version { return Draft10 }
