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

// Package keyfile reads and writes Ed25519 keys as base64 text files.
package keyfile

import (
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"strings"

	"github.com/cloudflare-labs/roughtime-core/rterr"
)

// WritePublic writes pub to path as base64 text with mode 0o644.
func WritePublic(path string, pub ed25519.PublicKey) error {
	if len(pub) != ed25519.PublicKeySize {
		return rterr.New(rterr.InputValidation, "keyfile: public key must be %d bytes", ed25519.PublicKeySize)
	}
	return os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(pub)), 0o644)
}

// WritePrivate writes priv to path as base64 text with mode 0o600: private
// keys never get world- or group-readable permissions.
func WritePrivate(path string, priv ed25519.PrivateKey) error {
	if len(priv) != ed25519.PrivateKeySize {
		return rterr.New(rterr.InputValidation, "keyfile: private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(priv)), 0o600)
}

// ReadPublic reads and decodes a base64-encoded public key from path.
func ReadPublic(path string) (ed25519.PublicKey, error) {
	raw, err := readTrimmed(path)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, rterr.New(rterr.InputValidation, "keyfile: %s: decoded public key is %d bytes, want %d", path, len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// ReadPrivate reads and decodes a base64-encoded private key from path.
func ReadPrivate(path string) (ed25519.PrivateKey, error) {
	raw, err := readTrimmed(path)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, rterr.New(rterr.InputValidation, "keyfile: %s: decoded private key is %d bytes, want %d", path, len(raw), ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(raw), nil
}

func readTrimmed(path string) ([]byte, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(text)))
	if err != nil {
		return nil, rterr.New(rterr.InputValidation, "keyfile: %s: not valid base64: %v", path, err)
	}
	return raw, nil
}
