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

// Package srvid computes the SRV server-identifier hash clients use to bind
// a request to a specific long-term public key.
package srvid

import (
	"crypto/ed25519"
	"crypto/subtle"

	"github.com/cloudflare-labs/roughtime-core/bytesx"
	"github.com/cloudflare-labs/roughtime-core/rterr"
)

var ffPrefix = []byte{0xff}

// Compute returns SRV(pub) = first 32 bytes of SHA-512(0xFF || pub).
func Compute(pub ed25519.PublicKey) ([]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, rterr.New(rterr.InputValidation, "srvid: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	return bytesx.HashPrefixed(32, ffPrefix, pub)
}

// Matches reports whether srv identifies pub, comparing in constant time.
func Matches(srv []byte, pub ed25519.PublicKey) (bool, error) {
	want, err := Compute(pub)
	if err != nil {
		return false, err
	}
	if len(srv) != len(want) {
		return false, nil
	}
	return subtle.ConstantTimeCompare(srv, want) == 1, nil
}
