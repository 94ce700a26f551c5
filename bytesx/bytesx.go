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

// Package bytesx holds the little-endian codecs and hashing helper shared
// by every layer of the Roughtime core.
package bytesx

import (
	"encoding/binary"
	"errors"

	"github.com/cloudflare-labs/roughtime-core/sha512trunc"
)

// PutUint32 encodes v as 4 little-endian bytes.
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Uint32 decodes exactly 4 little-endian bytes. It rejects any other length.
func Uint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, errors.New("bytesx: uint32 requires exactly 4 bytes")
	}
	return binary.LittleEndian.Uint32(b), nil
}

// PutUint64 encodes v as 8 little-endian bytes.
func PutUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Uint64 decodes exactly 8 little-endian bytes. It rejects any other length.
func Uint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errors.New("bytesx: uint64 requires exactly 8 bytes")
	}
	return binary.LittleEndian.Uint64(b), nil
}

// PutUint32Vector concatenates a sequence of uint32s into little-endian
// bytes, in order.
func PutUint32Vector(vs []uint32) []byte {
	b := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

// Uint32Vector splits a byte buffer into a sequence of little-endian
// uint32s. It rejects any buffer whose length is not a multiple of 4.
func Uint32Vector(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, errors.New("bytesx: uint32 vector length is not a multiple of 4")
	}
	vs := make([]uint32, 0, len(b)/4)
	for len(b) > 0 {
		vs = append(vs, binary.LittleEndian.Uint32(b[:4]))
		b = b[4:]
	}
	return vs, nil
}

// HashPrefixed returns the first n bytes of SHA-512(prefix... || bufs...).
// prefix may be empty; n must be 32 or 64. Each of prefix and bufs is fed to
// the hash as a separate Write, so callers on hot paths never need to
// concatenate into a throwaway buffer.
func HashPrefixed(n int, prefix []byte, bufs ...[]byte) ([]byte, error) {
	if n != 32 && n != 64 {
		return nil, errors.New("bytesx: hash size must be 32 or 64")
	}
	h := sha512trunc.NewSize(n)
	if len(prefix) > 0 {
		h.Write(prefix)
	}
	for _, b := range bufs {
		h.Write(b)
	}
	return h.Sum(nil), nil
}
