// Copyright 2016 The Roughtime Authors.
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

// Package tlv implements the Roughtime tagged-map wire format: a strict
// TLV codec plus a typed view over the well-known tags.
package tlv

import (
	"encoding/binary"
	"sort"

	"github.com/cloudflare-labs/roughtime-core/rterr"
)

// maxTags bounds decode's num_tags field, per spec.
const maxTags = 1024

// Map is a decoded (or to-be-encoded) association from tag to opaque
// value. Values decoded by Decode alias the original input buffer.
type Map map[uint32][]byte

type tagsSlice []uint32

func (t tagsSlice) Len() int           { return len(t) }
func (t tagsSlice) Less(i, j int) bool { return t[i] < t[j] }
func (t tagsSlice) Swap(i, j int)      { t[i], t[j] = t[j], t[i] }

func pad4(b []byte) []byte {
	if n := len(b) % 4; n != 0 {
		padded := make([]byte, len(b)+4-n)
		copy(padded, b)
		return padded
	}
	return b
}

// Encode serializes msg into a Roughtime TLV message. Tags are sorted into
// strictly ascending numeric order; each value is right-padded with zero
// bytes to a multiple of 4. An empty map encodes to the 4 zero bytes
// "00 00 00 00". A map of two or more tags whose lowest-tagged value is
// empty is rejected: its first explicit offset would be 0, which Decode
// refuses.
func Encode(msg Map) ([]byte, error) {
	if len(msg) == 0 {
		return make([]byte, 4), nil
	}
	if len(msg) > maxTags {
		return nil, rterr.New(rterr.BadTLV, "too many tags: %d", len(msg))
	}

	tags := make(tagsSlice, 0, len(msg))
	values := make(map[uint32][]byte, len(msg))
	var payloadLen uint64
	for tag, v := range msg {
		tags = append(tags, tag)
		padded := pad4(v)
		values[tag] = padded
		payloadLen += uint64(len(padded))
	}
	if payloadLen >= 1<<32 {
		return nil, rterr.New(rterr.BadLength, "payloads too large")
	}
	sort.Sort(tags)
	if len(tags) > 1 && len(values[tags[0]]) == 0 {
		return nil, rterr.New(rterr.BadTLV, "lowest-tagged value is empty; its explicit offset would be 0")
	}

	numTags := uint64(len(tags))
	headerLen := 4 * (1 + (numTags - 1) + numTags)
	if numTags == 0 {
		headerLen = 4
	}

	out := make([]byte, headerLen+payloadLen)
	binary.LittleEndian.PutUint32(out, uint32(numTags))

	offsets := out[4:]
	tagBytes := out[4*(1+(numTags-1)):]
	payloads := out[headerLen:]

	var cur uint32
	for i, tag := range tags {
		v := values[tag]
		if i > 0 {
			binary.LittleEndian.PutUint32(offsets, cur)
			offsets = offsets[4:]
		}
		binary.LittleEndian.PutUint32(tagBytes, tag)
		tagBytes = tagBytes[4:]

		copy(payloads, v)
		payloads = payloads[len(v):]
		cur += uint32(len(v))
	}

	return out, nil
}

// Decode parses the output of Encode. It enforces, in order: minimum
// length, tag-count bound, header completeness, monotonic 4-byte-aligned
// offsets, and strictly ascending tags. Decoded values alias buf.
func Decode(buf []byte) (Map, error) {
	if len(buf) < 4 {
		return nil, rterr.New(rterr.Truncated, "message too short to hold a tag count")
	}
	if len(buf)%4 != 0 {
		return nil, rterr.New(rterr.BadLength, "message length is not a multiple of 4")
	}

	numTags := uint64(binary.LittleEndian.Uint32(buf))
	if numTags == 0 {
		return make(Map), nil
	}
	if numTags > maxTags {
		return nil, rterr.New(rterr.BadTLV, "too many tags: %d", numTags)
	}

	headerLen := 4 * (1 + (numTags - 1) + numTags)
	if uint64(len(buf)) < headerLen {
		return nil, rterr.New(rterr.Truncated, "message too short to hold its header")
	}

	offsets := buf[4:]
	tags := buf[4*(1+numTags-1):]
	payloads := buf[headerLen:]
	payloadLen := uint32(len(payloads))

	ret := make(Map, numTags)
	var lastTag uint32
	var cur uint32

	for i := uint64(0); i < numTags; i++ {
		tag := binary.LittleEndian.Uint32(tags)
		tags = tags[4:]

		if i > 0 && lastTag >= tag {
			return nil, rterr.New(rterr.BadTLV, "tags out of order at index %d", i)
		}

		var next uint32
		explicit := i < numTags-1
		if explicit {
			next = binary.LittleEndian.Uint32(offsets)
			offsets = offsets[4:]
			if next == 0 {
				return nil, rterr.New(rterr.BadTLV, "explicit offset must be strictly positive")
			}
		} else {
			next = payloadLen
		}

		if next%4 != 0 {
			return nil, rterr.New(rterr.BadLength, "offset %d is not a multiple of 4", next)
		}
		if next < cur {
			return nil, rterr.New(rterr.BadTLV, "offsets out of order")
		}

		length := next - cur
		if uint32(len(payloads)) < length {
			return nil, rterr.New(rterr.Truncated, "message truncated")
		}

		ret[tag] = payloads[:length]
		payloads = payloads[length:]
		cur = next
		lastTag = tag
	}

	return ret, nil
}
