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

// Package response assembles and parses server responses, whose top-level
// tag set is one of four layouts depending on the negotiated version.
package response

import (
	"crypto/ed25519"

	"github.com/cloudflare-labs/roughtime-core/bytesx"
	"github.com/cloudflare-labs/roughtime-core/packet"
	"github.com/cloudflare-labs/roughtime-core/rterr"
	"github.com/cloudflare-labs/roughtime-core/signer"
	"github.com/cloudflare-labs/roughtime-core/tlv"
	"github.com/cloudflare-labs/roughtime-core/version"
)

// respType is the fixed TYPE value a response carries (a "response" hello,
// as opposed to a request's all-zero TYPE).
var respType = bytesx.PutUint32(1)

// BuildInput bundles one leaf's worth of response material. SREPBytes and
// CertBytes are shared across every response in a batch; Index, Path, and
// Nonce are per-leaf.
type BuildInput struct {
	Version    version.Version
	SREPBytes  []byte
	OnlinePriv ed25519.PrivateKey
	CertBytes  []byte
	Index      int
	Path       []byte
	Nonce      []byte
}

// Build signs in.SREPBytes and assembles a complete response, framed unless
// the version omits framing.
func Build(in BuildInput) ([]byte, error) {
	sig, err := signer.SignWithContext(signer.ContextSREP, in.SREPBytes, in.OnlinePriv)
	if err != nil {
		return nil, err
	}

	m := tlv.Map{
		tlv.TagSIG:  sig,
		tlv.TagSREP: in.SREPBytes,
		tlv.TagCERT: in.CertBytes,
		tlv.TagINDX: bytesx.PutUint32(uint32(in.Index)),
		tlv.TagPATH: in.Path,
	}

	switch {
	case in.Version == version.Google:
		// {SREP, SIG, INDX, PATH, CERT} — nothing further.
	case in.Version == version.Draft1 || in.Version == version.Draft2:
		m[tlv.TagVER] = bytesx.PutUint32(uint32(in.Version))
	case in.Version < version.Draft12:
		m[tlv.TagVER] = bytesx.PutUint32(uint32(in.Version))
		m[tlv.TagNONC] = in.Nonce
		m[tlv.TagTYPE] = respType
	default:
		m[tlv.TagNONC] = in.Nonce
		m[tlv.TagTYPE] = respType
	}

	msg, err := tlv.Encode(m)
	if err != nil {
		return nil, err
	}
	if !version.UsesRequestFraming(in.Version) {
		return msg, nil
	}
	return packet.Encode(msg), nil
}

// Parsed is the byte-exact decomposition of a received response, before any
// signature or time validation.
type Parsed struct {
	SIG       []byte
	SREPBytes []byte // raw, for signature verification
	CERTBytes []byte // raw
	Index     uint32
	Path      []byte
	TopNonce  []byte // nil if absent
	TopVer    version.Version
	HasTopVer bool
}

// Parse decodes a response buffer into its raw parts. It does not verify
// signatures or interpret SREP/CERT contents; callers use cert.Verify and
// srep.Parse (or the client package's full pipeline) for that.
func Parse(buf []byte, minSizeBytes int) (Parsed, error) {
	msg, _, err := packet.Decode(buf, minSizeBytes)
	if err != nil {
		return Parsed{}, err
	}
	m, err := tlv.Decode(msg)
	if err != nil {
		return Parsed{}, err
	}

	sig, ok := m[tlv.TagSIG]
	if !ok || len(sig) != ed25519.SignatureSize {
		return Parsed{}, rterr.New(rterr.InvalidResponse, "response: missing or malformed SIG")
	}
	srepBytes, ok := m[tlv.TagSREP]
	if !ok {
		return Parsed{}, rterr.New(rterr.InvalidResponse, "response: missing SREP")
	}
	certBytes, ok := m[tlv.TagCERT]
	if !ok {
		return Parsed{}, rterr.New(rterr.InvalidResponse, "response: missing CERT")
	}
	indxBytes, ok := m[tlv.TagINDX]
	if !ok {
		return Parsed{}, rterr.New(rterr.InvalidResponse, "response: missing INDX")
	}
	index, err := bytesx.Uint32(indxBytes)
	if err != nil {
		return Parsed{}, rterr.New(rterr.InvalidResponse, "response: malformed INDX: %v", err)
	}
	path, ok := m[tlv.TagPATH]
	if !ok {
		return Parsed{}, rterr.New(rterr.InvalidResponse, "response: missing PATH")
	}

	p := Parsed{SIG: sig, SREPBytes: srepBytes, CERTBytes: certBytes, Index: index, Path: path}
	if nonce, ok := m[tlv.TagNONC]; ok {
		p.TopNonce = nonce
	}
	if verBytes, ok := m[tlv.TagVER]; ok {
		v, err := bytesx.Uint32(verBytes)
		if err != nil {
			return Parsed{}, rterr.New(rterr.InvalidResponse, "response: malformed VER: %v", err)
		}
		p.TopVer = version.Version(v)
		p.HasTopVer = true
	}
	return p, nil
}
