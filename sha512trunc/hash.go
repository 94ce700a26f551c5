// Package sha512trunc wraps crypto/sha512 as a hash.Hash whose Sum is
// truncated to a fixed size: 32 bytes for the IETF drafts' node/leaf
// hashes, 64 (the untruncated digest) for Google v0's.
package sha512trunc

import (
	"crypto/sha512"
	"hash"
)

type shatrunc struct {
	inner hash.Hash
	size  int
}

func (h *shatrunc) Write(p []byte) (n int, err error) {
	return h.inner.Write(p)
}

func (h *shatrunc) Reset() {
	h.inner.Reset()
}

func (h *shatrunc) Size() int {
	return h.size
}

func (h *shatrunc) BlockSize() int {
	return h.inner.BlockSize()
}

func (h *shatrunc) Sum(b []byte) []byte {
	tmp := h.inner.Sum(nil)
	return append(b, tmp[:h.size]...)
}

// New returns a hash.Hash truncated to 32 bytes.
func New() hash.Hash {
	return NewSize(32)
}

// NewSize returns a hash.Hash whose Sum is the first size bytes of
// SHA-512. size must be between 1 and 64.
func NewSize(size int) hash.Hash {
	if size < 1 || size > sha512.Size {
		panic("sha512trunc: size out of range")
	}
	return &shatrunc{inner: sha512.New(), size: size}
}
