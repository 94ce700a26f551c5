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

// Package tagcodec converts between 4-byte Roughtime tags and their
// little-endian numeric form used for ordering.
package tagcodec

import "encoding/binary"

// Tag is a 4-byte Roughtime tag, compared and sorted as a little-endian
// uint32.
type Tag uint32

// FromName encodes 1-4 printable ASCII characters into a Tag, right-padding
// with NUL. It panics if name is empty or longer than 4 bytes; callers
// build tags from compile-time constants.
func FromName(name string) Tag {
	if len(name) == 0 || len(name) > 4 {
		panic("tagcodec: name must be 1-4 bytes: " + name)
	}
	var buf [4]byte
	copy(buf[:], name)
	return FromRaw(buf)
}

// FromRaw builds a Tag from its raw 4-byte wire representation, unchanged.
// This is how Google's PAD\xff tag (whose last byte is not NUL or
// printable ASCII) is constructed.
func FromRaw(raw [4]byte) Tag {
	return Tag(binary.LittleEndian.Uint32(raw[:]))
}

// Bytes returns the tag's raw 4-byte wire representation.
func (t Tag) Bytes() [4]byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(t))
	return buf
}

// Name returns the ASCII name of the tag if all four bytes are printable
// ASCII or NUL, and ok=false otherwise (e.g. for Google's PAD\xff).
func (t Tag) Name() (name string, ok bool) {
	raw := t.Bytes()
	for _, b := range raw {
		if b != 0 && (b < 0x20 || b > 0x7e) {
			return "", false
		}
	}
	n := 4
	for n > 0 && raw[n-1] == 0 {
		n--
	}
	return string(raw[:n]), true
}

// Uint32 returns the tag's little-endian numeric value, used for ordering
// and as the TLV map key.
func (t Tag) Uint32() uint32 { return uint32(t) }
