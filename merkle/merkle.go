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

// Package merkle implements the domain-separated Merkle tree that lets a
// single Ed25519 signature cover an entire batch of Roughtime responses.
package merkle

import (
	"crypto/subtle"

	"github.com/cloudflare-labs/roughtime-core/bytesx"
	"github.com/cloudflare-labs/roughtime-core/rterr"
)

// TreeOrder controls which sibling is treated as the left operand of
// hashNode when combining a node with its pair.
type TreeOrder int

const (
	Natural TreeOrder = iota
	Mirrored
)

// Options bundles the two tunables the version-compatibility layer
// selects per protocol version.
type Options struct {
	HashSize int // 32 or 64
	Order    TreeOrder
}

var (
	leafTweak = []byte{0x00}
	nodeTweak = []byte{0x01}
)

// HashLeaf hashes data to form a leaf of the tree.
func HashLeaf(opts Options, data []byte) ([]byte, error) {
	return bytesx.HashPrefixed(opts.HashSize, leafTweak, data)
}

// HashNode hashes two child nodes to produce their parent.
func HashNode(opts Options, left, right []byte) ([]byte, error) {
	return bytesx.HashPrefixed(opts.HashSize, nodeTweak, left, right)
}

func hashLeaves(leaves [][]byte, opts Options) ([][]byte, error) {
	level := make([][]byte, len(leaves))
	for i, l := range leaves {
		h, err := HashLeaf(opts, l)
		if err != nil {
			return nil, err
		}
		level[i] = h
	}
	return level, nil
}

// combinePair hashes one adjacent pair (or a lone node with itself),
// honoring tree order. Natural order treats the even (left) member of the
// pair as hashNode's left operand; mirrored swaps the two.
func combinePair(opts Options, left, right []byte) ([]byte, error) {
	if opts.Order == Mirrored {
		return HashNode(opts, right, left)
	}
	return HashNode(opts, left, right)
}

func nextLevel(level [][]byte, opts Options) ([][]byte, error) {
	n := (len(level) + 1) / 2
	next := make([][]byte, n)
	for j := 0; j < n; j++ {
		left := level[2*j]
		right := left
		if 2*j+1 < len(level) {
			right = level[2*j+1]
		}
		h, err := combinePair(opts, left, right)
		if err != nil {
			return nil, err
		}
		next[j] = h
	}
	return next, nil
}

// ComputeRoot hashes leaves and reduces them to a single root.
func ComputeRoot(leaves [][]byte, opts Options) ([]byte, error) {
	if len(leaves) == 0 {
		return nil, rterr.New(rterr.InputValidation, "merkle: cannot build a tree with no leaves")
	}
	level, err := hashLeaves(leaves, opts)
	if err != nil {
		return nil, err
	}
	for len(level) > 1 {
		level, err = nextLevel(level, opts)
		if err != nil {
			return nil, err
		}
	}
	return level[0], nil
}

func siblingOf(level [][]byte, idx int) []byte {
	if idx%2 == 0 {
		if idx+1 < len(level) {
			return level[idx+1]
		}
		return level[idx]
	}
	return level[idx-1]
}

// BuildPath returns the sibling hashes needed to prove that the leaf at
// index is included in the tree over leaves, concatenated in
// bottom-to-top order.
func BuildPath(leaves [][]byte, index int, opts Options) ([]byte, error) {
	if len(leaves) == 0 {
		return nil, rterr.New(rterr.InputValidation, "merkle: cannot build a tree with no leaves")
	}
	if index < 0 || index >= len(leaves) {
		return nil, rterr.New(rterr.InputValidation, "merkle: index %d out of range for %d leaves", index, len(leaves))
	}

	level, err := hashLeaves(leaves, opts)
	if err != nil {
		return nil, err
	}

	var path []byte
	idx := index
	for len(level) > 1 {
		path = append(path, siblingOf(level, idx)...)
		level, err = nextLevel(level, opts)
		if err != nil {
			return nil, err
		}
		idx /= 2
	}
	return path, nil
}

// Proof bundles the inputs needed to reconstruct a Merkle root from one
// leaf.
type Proof struct {
	LeafData []byte
	Index    int
	Path     []byte
}

// ReconstructRoot rebuilds the root implied by a leaf, its index, and its
// path. It fails if path is misaligned to the hash size, or if index has
// bits left over once the path is exhausted (which would mean index does
// not identify a unique position at this tree depth).
func ReconstructRoot(p Proof, opts Options) ([]byte, error) {
	if len(p.Path)%opts.HashSize != 0 {
		return nil, rterr.New(rterr.BadRoot, "merkle: path length %d is not a multiple of hash size %d", len(p.Path), opts.HashSize)
	}

	cur, err := HashLeaf(opts, p.LeafData)
	if err != nil {
		return nil, err
	}

	idx := p.Index
	path := p.Path
	for len(path) > 0 {
		sibling := path[:opts.HashSize]
		path = path[opts.HashSize:]

		isLeft := idx&1 == 0
		if opts.Order == Mirrored {
			isLeft = !isLeft
		}
		if isLeft {
			cur, err = HashNode(opts, cur, sibling)
		} else {
			cur, err = HashNode(opts, sibling, cur)
		}
		if err != nil {
			return nil, err
		}
		idx >>= 1
	}

	if idx != 0 {
		return nil, rterr.New(rterr.BadRoot, "merkle: index has bits beyond the proof's depth")
	}
	return cur, nil
}

// ValidProof reports whether p reconstructs to root, comparing in constant
// time.
func ValidProof(root []byte, p Proof, opts Options) (ok bool, reconstructed []byte, err error) {
	reconstructed, err = ReconstructRoot(p, opts)
	if err != nil {
		return false, nil, err
	}
	if len(reconstructed) != len(root) {
		return false, reconstructed, nil
	}
	return subtle.ConstantTimeCompare(reconstructed, root) == 1, reconstructed, nil
}

// Tree is the result of a batch tree build: the shared root plus one proof
// path per input leaf, in input order.
type Tree struct {
	Root  []byte
	Paths [][]byte
}

// BuildAll computes the whole tree in one pass and returns the root
// alongside every leaf's path. It is semantically identical to calling
// ComputeRoot once and BuildPath once per leaf, but does the level-by-level
// hashing only once, which matters for the batch sizes Roughtime servers
// see in practice.
func BuildAll(leaves [][]byte, opts Options) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, rterr.New(rterr.InputValidation, "merkle: cannot build a tree with no leaves")
	}

	level, err := hashLeaves(leaves, opts)
	if err != nil {
		return nil, err
	}
	levels := [][][]byte{level}
	for len(level) > 1 {
		level, err = nextLevel(level, opts)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}

	paths := make([][]byte, len(leaves))
	for i := range leaves {
		idx := i
		var path []byte
		for l := 0; l < len(levels)-1; l++ {
			path = append(path, siblingOf(levels[l], idx)...)
			idx /= 2
		}
		paths[i] = path
	}

	return &Tree{Root: levels[len(levels)-1][0], Paths: paths}, nil
}
