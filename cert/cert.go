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

// Package cert builds and verifies the DELE/CERT pair that delegates
// signing authority from a server's long-term key to a short-lived online
// key.
package cert

import (
	"crypto/ed25519"

	"github.com/cloudflare-labs/roughtime-core/bytesx"
	"github.com/cloudflare-labs/roughtime-core/rterr"
	"github.com/cloudflare-labs/roughtime-core/signer"
	"github.com/cloudflare-labs/roughtime-core/tlv"
	"github.com/cloudflare-labs/roughtime-core/version"
)

// Dele is the decoded content of a DELE tag: the online key it delegates
// to and the window during which that delegation holds.
type Dele struct {
	OnlinePub ed25519.PublicKey
	MinTime   uint64
	MaxTime   uint64
}

// BuildDele encodes a DELE message. minTime and maxTime are written as
// given, in whatever unit the target version uses (microseconds for
// Google, seconds otherwise); the caller converts.
func BuildDele(onlinePub ed25519.PublicKey, minTime, maxTime uint64) ([]byte, error) {
	if len(onlinePub) != ed25519.PublicKeySize {
		return nil, rterr.New(rterr.InputValidation, "cert: online public key must be %d bytes", ed25519.PublicKeySize)
	}
	return tlv.Encode(tlv.Map{
		tlv.TagPUBK: append([]byte(nil), onlinePub...),
		tlv.TagMINT: bytesx.PutUint64(minTime),
		tlv.TagMAXT: bytesx.PutUint64(maxTime),
	})
}

// SignDele produces a CERT: DELE bytes plus the long-term key's signature
// over ctx(v) || DELE.
func SignDele(v version.Version, deleBytes []byte, rootPriv ed25519.PrivateKey) ([]byte, error) {
	sig, err := signer.SignWithContext(version.DeleContext(v), deleBytes, rootPriv)
	if err != nil {
		return nil, err
	}
	return tlv.Encode(tlv.Map{
		tlv.TagDELE: deleBytes,
		tlv.TagSIG:  sig,
	})
}

// Build combines BuildDele and SignDele into a single CERT for version v.
func Build(v version.Version, onlinePub ed25519.PublicKey, minTime, maxTime uint64, rootPriv ed25519.PrivateKey) ([]byte, error) {
	dele, err := BuildDele(onlinePub, minTime, maxTime)
	if err != nil {
		return nil, err
	}
	return SignDele(v, dele, rootPriv)
}

// ParseCert splits a raw CERT buffer into its DELE bytes (byte-exact, not
// re-encoded) and SIG, without verifying anything.
func ParseCert(raw []byte) (deleBytes, sig []byte, err error) {
	m, err := tlv.Decode(raw)
	if err != nil {
		return nil, nil, rterr.WithOffending(rterr.BadDele, raw, "cert: malformed CERT: %v", err)
	}
	dele, ok := m[tlv.TagDELE]
	if !ok {
		return nil, nil, rterr.New(rterr.BadDele, "cert: CERT missing DELE")
	}
	sigBytes, ok := m[tlv.TagSIG]
	if !ok || len(sigBytes) != ed25519.SignatureSize {
		return nil, nil, rterr.New(rterr.BadDele, "cert: CERT missing or malformed SIG")
	}
	return dele, sigBytes, nil
}

// ParseDele decodes DELE bytes into their fields.
func ParseDele(deleBytes []byte) (Dele, error) {
	m, err := tlv.Decode(deleBytes)
	if err != nil {
		return Dele{}, rterr.WithOffending(rterr.BadDele, deleBytes, "cert: malformed DELE: %v", err)
	}
	pub, ok := m[tlv.TagPUBK]
	if !ok || len(pub) != ed25519.PublicKeySize {
		return Dele{}, rterr.New(rterr.BadDele, "cert: DELE missing or malformed PUBK")
	}
	minB, ok := m[tlv.TagMINT]
	if !ok {
		return Dele{}, rterr.New(rterr.BadDele, "cert: DELE missing MINT")
	}
	maxB, ok := m[tlv.TagMAXT]
	if !ok {
		return Dele{}, rterr.New(rterr.BadDele, "cert: DELE missing MAXT")
	}
	minTime, err := bytesx.Uint64(minB)
	if err != nil {
		return Dele{}, rterr.New(rterr.BadDele, "cert: DELE.MINT malformed: %v", err)
	}
	maxTime, err := bytesx.Uint64(maxB)
	if err != nil {
		return Dele{}, rterr.New(rterr.BadDele, "cert: DELE.MAXT malformed: %v", err)
	}
	return Dele{OnlinePub: append(ed25519.PublicKey(nil), pub...), MinTime: minTime, MaxTime: maxTime}, nil
}

// Verify checks the CERT's signature over its DELE under rootPub and
// context dele_context(v), then returns the parsed DELE.
func Verify(v version.Version, raw []byte, rootPub ed25519.PublicKey) (Dele, error) {
	deleBytes, sig, err := ParseCert(raw)
	if err != nil {
		return Dele{}, err
	}
	if !signer.VerifyWithContext(version.DeleContext(v), deleBytes, rootPub, sig) {
		return Dele{}, rterr.WithOffending(rterr.BadDele, deleBytes, "cert: DELE signature does not verify")
	}
	return ParseDele(deleBytes)
}
