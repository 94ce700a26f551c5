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

// Package server mints delegated certificates and assembles single and
// batched Roughtime responses.
package server

import (
	"crypto/ed25519"
	"crypto/rand"
	"time"

	"github.com/cloudflare-labs/roughtime-core/cert"
	"github.com/cloudflare-labs/roughtime-core/merkle"
	"github.com/cloudflare-labs/roughtime-core/request"
	"github.com/cloudflare-labs/roughtime-core/response"
	"github.com/cloudflare-labs/roughtime-core/srep"
	"github.com/cloudflare-labs/roughtime-core/version"
)

// DefaultValidity is the online key's default certificate lifetime.
const DefaultValidity = 3600 * time.Second

// certVariant is one of the three CERT encodings a mint produces: they
// differ in timestamp units and signature context, not in the key they
// delegate to.
type certVariant int

const (
	variantGoogle certVariant = iota
	variantLegacyIETF
	variantModernIETF
)

func variantFor(v version.Version) certVariant {
	switch {
	case v == version.Google:
		return variantGoogle
	case v < version.Draft12:
		return variantLegacyIETF
	default:
		return variantModernIETF
	}
}

// Minted is the result of minting an online key pair and its delegation
// certificates.
type Minted struct {
	OnlinePub     ed25519.PublicKey
	OnlinePriv    ed25519.PrivateKey
	CertByVersion map[version.Version][]byte
	NotBefore     time.Time
	NotAfter      time.Time
}

// Mint generates a fresh online key pair and delegates it, via rootPriv,
// for [notBefore, notAfter] (both ends inclusive), producing one CERT per version this core
// supports (three distinct encodings fanned out across the version table).
func Mint(rootPriv ed25519.PrivateKey, notBefore, notAfter time.Time) (*Minted, error) {
	onlinePub, onlinePriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	variantCert := make(map[certVariant][]byte, 3)
	variantTimes := map[certVariant]struct{ min, max uint64 }{
		variantGoogle:     {uint64(notBefore.UnixMicro()), uint64(notAfter.UnixMicro())},
		variantLegacyIETF: {uint64(notBefore.Unix()), uint64(notAfter.Unix())},
		variantModernIETF: {uint64(notBefore.Unix()), uint64(notAfter.Unix())},
	}
	variantRepVersion := map[certVariant]version.Version{
		variantGoogle:     version.Google,
		variantLegacyIETF: version.Draft8,
		variantModernIETF: version.Draft12,
	}
	for variant, times := range variantTimes {
		raw, err := cert.Build(variantRepVersion[variant], onlinePub, times.min, times.max, rootPriv)
		if err != nil {
			return nil, err
		}
		variantCert[variant] = raw
	}

	byVersion := make(map[version.Version][]byte, len(version.Supported))
	for _, v := range version.Supported {
		byVersion[v] = variantCert[variantFor(v)]
	}

	return &Minted{
		OnlinePub:     onlinePub,
		OnlinePriv:    onlinePriv,
		CertByVersion: byVersion,
		NotBefore:     notBefore,
		NotAfter:      notAfter,
	}, nil
}

// MintDefault mints with the default validity window starting now.
func MintDefault(rootPriv ed25519.PrivateKey) (*Minted, error) {
	now := time.Now()
	return Mint(rootPriv, now, now.Add(DefaultValidity))
}

// RespondSingle parses one request and returns its signed response.
func RespondSingle(reqBuf []byte, minted *Minted, midpoint time.Time) ([]byte, error) {
	req, err := request.Parse(reqBuf, request.ParseOptions{})
	if err != nil {
		return nil, err
	}

	leafData := version.MerkleLeafData(req.Version, req.Nonce, req.RequestBytes)
	opts := version.MerkleOptions(req.Version)
	tree, err := merkle.BuildAll([][]byte{leafData}, opts)
	if err != nil {
		return nil, err
	}

	repBytes, err := buildSREP(req.Version, tree.Root, req.Nonce, midpoint)
	if err != nil {
		return nil, err
	}

	return response.Build(response.BuildInput{
		Version:    req.Version,
		SREPBytes:  repBytes,
		OnlinePriv: minted.OnlinePriv,
		CertBytes:  minted.CertByVersion[req.Version],
		Index:      0,
		Path:       tree.Paths[0],
		Nonce:      req.Nonce,
	})
}

func buildSREP(v version.Version, root, nonce []byte, midpoint time.Time) ([]byte, error) {
	in := srep.Input{Version: v, Root: root, Midpoint: midpoint}
	if version.SREPHasNONC(v) {
		in.Nonce = nonce
	}
	if version.SREPHasVER(v) {
		in.Vers = version.Supported
	}
	return srep.Build(in)
}

// group holds the original positions of every request that negotiated the
// same version.
type group struct {
	version   version.Version
	positions []int
	leaves    [][]byte
	nonces    [][]byte
	reqBytes  [][]byte
}

// RespondBatch parses every request in reqs and returns one response per
// input position, in the same order. A position is nil if its request
// failed to parse, if its negotiated version cannot be batched, or if
// building its group's shared tree or signature failed.
func RespondBatch(reqs [][]byte, minted *Minted, midpoint time.Time) [][]byte {
	out := make([][]byte, len(reqs))
	groups := map[version.Version]*group{}
	order := []version.Version{}

	for i, buf := range reqs {
		parsed, err := request.Parse(buf, request.ParseOptions{})
		if err != nil || !version.CanBatch(parsed.Version) {
			continue
		}
		g, ok := groups[parsed.Version]
		if !ok {
			g = &group{version: parsed.Version}
			groups[parsed.Version] = g
			order = append(order, parsed.Version)
		}
		g.positions = append(g.positions, i)
		g.reqBytes = append(g.reqBytes, buf)
		g.nonces = append(g.nonces, parsed.Nonce)
		g.leaves = append(g.leaves, version.MerkleLeafData(parsed.Version, parsed.Nonce, buf))
	}

	for _, v := range order {
		g := groups[v]
		responses, err := respondGroup(g, minted, midpoint)
		if err != nil {
			continue // leave this group's positions nil
		}
		for j, pos := range g.positions {
			out[pos] = responses[j]
		}
	}

	return out
}

func respondGroup(g *group, minted *Minted, midpoint time.Time) ([][]byte, error) {
	opts := version.MerkleOptions(g.version)
	tree, err := merkle.BuildAll(g.leaves, opts)
	if err != nil {
		return nil, err
	}

	// SREPHasNONC versions can never reach here: version.CanBatch already
	// excludes drafts 1 and 2, the only versions with NONC inside SREP.
	repBytes, err := buildSREP(g.version, tree.Root, nil, midpoint)
	if err != nil {
		return nil, err
	}

	responses := make([][]byte, len(g.positions))
	for j := range g.positions {
		raw, err := response.Build(response.BuildInput{
			Version:    g.version,
			SREPBytes:  repBytes,
			OnlinePriv: minted.OnlinePriv,
			CertBytes:  minted.CertByVersion[g.version],
			Index:      j,
			Path:       tree.Paths[j],
			Nonce:      g.nonces[j],
		})
		if err != nil {
			return nil, err
		}
		responses[j] = raw
	}
	return responses, nil
}
