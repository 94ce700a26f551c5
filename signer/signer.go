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

// Package signer wraps crypto/ed25519 with the raw-key conversions and
// context-prefixed signing Roughtime needs for its delegation and
// response signatures.
package signer

import (
	"crypto/ed25519"
	"io"

	"github.com/cloudflare-labs/roughtime-core/rterr"
)

// Signature contexts. Each is literal US-ASCII terminated with a NUL, fed
// to the signer ahead of the signed bytes.
const (
	ContextSREP       = "RoughTime v1 response signature\x00"
	ContextDele       = "RoughTime v1 delegation signature\x00"
	ContextDeleLegacy = "RoughTime v1 delegation signature--\x00"
)

// GenerateKey returns a fresh Ed25519 key pair read from rand.
func GenerateKey(rand io.Reader) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// PublicKeyFromRaw builds a public key from its raw 32-byte encoding.
func PublicKeyFromRaw(raw []byte) (ed25519.PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, rterr.New(rterr.InputValidation, "public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, raw)
	return pub, nil
}

// PrivateKeyFromSeed builds a private key from its raw 32-byte seed.
func PrivateKeyFromSeed(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, rterr.New(rterr.InputValidation, "seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// RawPublicKey returns pub's raw 32-byte encoding.
func RawPublicKey(pub ed25519.PublicKey) ([]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, rterr.New(rterr.InputValidation, "public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	raw := make([]byte, ed25519.PublicKeySize)
	copy(raw, pub)
	return raw, nil
}

// SignWithContext signs ctx||data under priv. The Roughtime context is a
// fixed ASCII prefix, not the RFC 8032 Ed25519ctx domain separator.
func SignWithContext(ctx string, data []byte, priv ed25519.PrivateKey) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, rterr.New(rterr.InputValidation, "private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	return ed25519.Sign(priv, concat(ctx, data)), nil
}

// VerifyWithContext verifies a signature produced by SignWithContext.
func VerifyWithContext(ctx string, data []byte, pub ed25519.PublicKey, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, concat(ctx, data), sig)
}

// concat is the single point where ctx and data are joined; crypto/ed25519
// only accepts one message slice, so every call site routes through here
// rather than building its own buffer.
func concat(ctx string, data []byte) []byte {
	buf := make([]byte, 0, len(ctx)+len(data))
	buf = append(buf, ctx...)
	buf = append(buf, data...)
	return buf
}
