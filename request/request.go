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

// Package request builds and parses Roughtime client requests.
package request

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"

	"github.com/cloudflare-labs/roughtime-core/bytesx"
	"github.com/cloudflare-labs/roughtime-core/packet"
	"github.com/cloudflare-labs/roughtime-core/rterr"
	"github.com/cloudflare-labs/roughtime-core/srvid"
	"github.com/cloudflare-labs/roughtime-core/tlv"
	"github.com/cloudflare-labs/roughtime-core/version"
)

// DefaultMessageSize is the TLV message size Build pads to by default (the
// packet is 12 bytes longer when framed). Parse also uses it as the default
// minimum size of the whole received packet, framed or not.
const DefaultMessageSize = 1024

// BuildOptions configures Build. Zero values take the defaults documented
// on each field.
type BuildOptions struct {
	// Vers is the client's advertised version list. Defaults to
	// [version.Fiducial].
	Vers []version.Version
	// Nonce, if nil, is filled with random bytes of the length the chosen
	// version requires.
	Nonce []byte
	// Rand supplies entropy for a generated nonce. Defaults to
	// crypto/rand.Reader.
	Rand io.Reader
	// MessageSize is the size of the TLV message before framing. Defaults
	// to DefaultMessageSize.
	MessageSize int
	// ServerPub, if set, causes an SRV tag to be attached for versions
	// that support it.
	ServerPub ed25519.PublicKey
}

// Build assembles a client request packet (or bare TLV message, for
// Google-Roughtime and the IETF sentinel draft 0) and returns it along with
// the nonce and negotiated version used.
func Build(opts BuildOptions) (out []byte, nonce []byte, chosen version.Version, err error) {
	vers := opts.Vers
	if len(vers) == 0 {
		vers = []version.Version{version.Fiducial}
	}
	chosen = version.ChooseVersion(vers)

	nonce = opts.Nonce
	if nonce == nil {
		r := opts.Rand
		if r == nil {
			r = rand.Reader
		}
		nonce = make([]byte, version.NonceLength(chosen))
		if _, err := io.ReadFull(r, nonce); err != nil {
			return nil, nil, 0, err
		}
	}
	if err := version.ValidateNonce(chosen, nonce); err != nil {
		return nil, nil, 0, err
	}

	msgSize := opts.MessageSize
	if msgSize == 0 {
		msgSize = DefaultMessageSize
	}

	m := tlv.Map{tlv.TagNONC: nonce}

	if chosen != version.Google {
		raw := make([]uint32, len(vers))
		for i, v := range vers {
			raw[i] = uint32(v)
		}
		m[tlv.TagVER] = bytesx.PutUint32Vector(raw)
	}

	if chosen >= version.Draft12 {
		m[tlv.TagTYPE] = bytesx.PutUint32(0)
	}

	if chosen >= version.MinRequestVersionForSRV() && opts.ServerPub != nil {
		srv, err := srvid.Compute(opts.ServerPub)
		if err != nil {
			return nil, nil, 0, err
		}
		m[tlv.TagSRV] = srv
	}

	padLen, err := paddingLength(m, msgSize)
	if err != nil {
		return nil, nil, 0, err
	}
	m[version.PadTag(chosen)] = make([]byte, padLen)

	msg, err := tlv.Encode(m)
	if err != nil {
		return nil, nil, 0, err
	}

	if !version.UsesRequestFraming(chosen) {
		return msg, nonce, chosen, nil
	}
	return packet.Encode(msg), nonce, chosen, nil
}

// paddingLength computes how large the pad value needs to be so that the
// encoded message, once the pad tag is added, is exactly msgSize bytes.
func paddingLength(withoutPad tlv.Map, msgSize int) (int, error) {
	n := len(withoutPad) + 1 // +1 for the pad tag about to be added
	header := 4
	if n > 1 {
		header += 4 * (n - 1)
	}
	header += 4 * n

	valuesLen := 0
	for _, v := range withoutPad {
		valuesLen += len(v)
	}

	pad := msgSize - header - valuesLen
	if pad < 0 {
		return 0, rterr.New(rterr.InvalidRequest, "request: msg_size %d too small for required tags", msgSize)
	}
	return pad, nil
}

// Parsed is the result of successfully parsing an incoming request.
type Parsed struct {
	Nonce        []byte
	RequestBytes []byte // the framed packet, or bare message, exactly as received
	Version      version.Version
	ClientVers   []version.Version
	Message      tlv.Map
	MessageLen   int
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// MinSizeBytes is the minimum accepted total packet size, framed or
	// not. Defaults to DefaultMessageSize when zero; pass a negative
	// value to disable the floor.
	MinSizeBytes int
}

// Parse decodes an incoming request buffer, validating VER, NONC, and TYPE
// per the negotiated version.
func Parse(buf []byte, opts ParseOptions) (Parsed, error) {
	minSize := opts.MinSizeBytes
	if minSize == 0 {
		minSize = DefaultMessageSize
	}
	if minSize < 0 {
		minSize = 0
	}

	msg, _, err := packet.Decode(buf, minSize)
	if err != nil {
		return Parsed{}, err
	}

	m, err := tlv.Decode(msg)
	if err != nil {
		return Parsed{}, err
	}

	var clientVers []version.Version
	if raw, ok := m[tlv.TagVER]; ok {
		list, err := bytesx.Uint32Vector(raw)
		if err != nil {
			return Parsed{}, rterr.New(rterr.InvalidRequest, "request: malformed VER: %v", err)
		}
		clientVers = make([]version.Version, len(list))
		for i, v := range list {
			clientVers[i] = version.Version(v)
		}
	}

	v := version.ChooseVersion(clientVers)

	if err := version.ValidateVers(v, clientVers); err != nil {
		return Parsed{}, err
	}

	nonce, ok := m[tlv.TagNONC]
	if !ok {
		return Parsed{}, rterr.New(rterr.InvalidRequest, "request: missing NONC")
	}
	if err := version.ValidateNonce(v, nonce); err != nil {
		return Parsed{}, err
	}

	if typeBytes, ok := m[tlv.TagTYPE]; ok {
		if err := version.ValidateType(v, typeBytes); err != nil {
			return Parsed{}, err
		}
	} else if v >= version.Draft12 {
		return Parsed{}, rterr.New(rterr.InvalidRequest, "request: missing TYPE for version %#x", uint32(v))
	}

	return Parsed{
		Nonce:        nonce,
		RequestBytes: buf,
		Version:      v,
		ClientVers:   clientVers,
		Message:      m,
		MessageLen:   len(msg),
	}, nil
}
