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

import (
	"github.com/cloudflare-labs/roughtime-core/bytesx"
	"github.com/cloudflare-labs/roughtime-core/rterr"
)

// Kind discriminates the variants of Value. The wire format only ever
// carries bytes; Kind records how a given tag's bytes should be
// interpreted per the recursive-decode rules in the spec.
type Kind int

const (
	KindBytes Kind = iota
	KindU32
	KindU64
	KindU32List
	KindNested
)

// Value is a typed view of one TLV entry. Exactly one of its fields is
// meaningful, selected by Kind. Raw always holds the original bytes, so a
// signed sub-message (SREP, DELE) can be re-verified byte-exactly without
// re-encoding a decoded view.
type Value struct {
	Kind    Kind
	Raw     []byte
	U32     uint32
	U64     uint64
	U32List []uint32
	Nested  Map
}

// tagKind classifies well-known tags for the recursive decode pass.
// Unrecognized tags remain KindBytes.
func tagKind(tag uint32) Kind {
	switch tag {
	case TagVER, TagRADI, TagTYPE, TagINDX:
		return KindU32
	case TagMIDP, TagMINT, TagMAXT:
		return KindU64
	case TagVERS:
		return KindU32List
	case TagSREP, TagCERT, TagDELE:
		return KindNested
	default:
		return KindBytes
	}
}

// DecodeTyped decodes buf and then classifies each value per tagKind,
// recursing into nested sub-messages (SREP, CERT, DELE). Bad framing at
// the outer layer is a decode error; the first value that can't be
// interpreted as its declared kind fails the whole decode with a BadTag
// error naming that tag (BadTLV for a malformed nested sub-message), and
// no partial result is returned.
func DecodeTyped(buf []byte) (map[uint32]Value, error) {
	raw, err := Decode(buf)
	if err != nil {
		return nil, err
	}
	return classify(raw)
}

func classify(raw Map) (map[uint32]Value, error) {
	out := make(map[uint32]Value, len(raw))
	for tag, v := range raw {
		val := Value{Kind: tagKind(tag), Raw: v}
		switch val.Kind {
		case KindU32:
			u, err := bytesx.Uint32(v)
			if err != nil {
				return nil, rterr.WithOffending(rterr.BadTag, v, "tag %s: %v", tagName(tag), err)
			}
			val.U32 = u
		case KindU64:
			u, err := bytesx.Uint64(v)
			if err != nil {
				return nil, rterr.WithOffending(rterr.BadTag, v, "tag %s: %v", tagName(tag), err)
			}
			val.U64 = u
		case KindU32List:
			list, err := bytesx.Uint32Vector(v)
			if err != nil {
				return nil, rterr.WithOffending(rterr.BadTag, v, "tag %s: %v", tagName(tag), err)
			}
			val.U32List = list
		case KindNested:
			nested, err := Decode(v)
			if err != nil {
				return nil, rterr.New(rterr.BadTLV, "tag %s: %v", tagName(tag), err)
			}
			val.Nested = nested
		}
		out[tag] = val
	}
	return out, nil
}
