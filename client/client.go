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

// Package client validates a Roughtime response against the request that
// produced it.
package client

import (
	"bytes"
	"crypto/ed25519"
	"time"

	"github.com/cloudflare-labs/roughtime-core/cert"
	"github.com/cloudflare-labs/roughtime-core/merkle"
	"github.com/cloudflare-labs/roughtime-core/response"
	"github.com/cloudflare-labs/roughtime-core/rterr"
	"github.com/cloudflare-labs/roughtime-core/signer"
	"github.com/cloudflare-labs/roughtime-core/srep"
	"github.com/cloudflare-labs/roughtime-core/version"
)

// Exchange is everything the client needs to validate one response: the
// nonce it sent, the bytes and framing it sent (needed to reconstruct the
// Merkle leaf for draft 12 and later), the response it received, the
// server's claimed long-term public key, and the wall-clock time it
// observed the response.
type Exchange struct {
	RequestNonce  []byte
	RequestBytes  []byte // the exact bytes sent on the wire; required for v >= Draft12
	ResponseBytes []byte
	ServerLTPub   ed25519.PublicKey
	ObservedAt    time.Time
}

// Result is what a successful validation establishes.
type Result struct {
	Version  version.Version
	Midpoint time.Time
	Radius   time.Duration
}

// Validate runs the full nine-step validation pipeline from parsing the
// response through the MINT <= MIDP <= MAXT time check.
func Validate(ex Exchange) (Result, error) {
	// 1: parse response packet (bare-TLV fallback allowed inside response.Parse).
	resp, err := response.Parse(ex.ResponseBytes, 0)
	if err != nil {
		return Result{}, err
	}

	// 2: SREP and DELE bytes are already retained byte-exact by
	// response.Parse and cert.ParseCert respectively.
	deleBytes, certSig, err := cert.ParseCert(resp.CERTBytes)
	if err != nil {
		return Result{}, err
	}

	rep, err := srep.Parse(resp.SREPBytes)
	if err != nil {
		return Result{}, err
	}

	// 3: determine version.
	v := version.Google
	if rep.HasVer {
		v = rep.Ver
	} else if resp.HasTopVer {
		v = resp.TopVer
	}

	// 4-5: extract and check the returned nonce, if any.
	returnedNonce := resp.TopNonce
	if returnedNonce == nil {
		returnedNonce = rep.Nonce
	}
	if returnedNonce != nil && !bytes.Equal(returnedNonce, ex.RequestNonce) {
		return Result{}, rterr.New(rterr.BadNonce, "client: returned nonce does not match the request")
	}

	// 6: reconstruct the Merkle root and compare to SREP.ROOT.
	leafData := version.MerkleLeafData(v, ex.RequestNonce, ex.RequestBytes)
	opts := version.MerkleOptions(v)
	ok, _, err := merkle.ValidProof(rep.Root, merkle.Proof{
		LeafData: leafData,
		Index:    int(resp.Index),
		Path:     resp.Path,
	}, opts)
	if err != nil {
		return Result{}, rterr.WithOffending(rterr.BadRoot, resp.Path, "client: cannot reconstruct Merkle root: %v", err)
	}
	if !ok {
		return Result{}, rterr.New(rterr.BadRoot, "client: reconstructed root does not match SREP.ROOT")
	}

	// 7: verify CERT under the server's long-term public key.
	if !signer.VerifyWithContext(version.DeleContext(v), deleBytes, ex.ServerLTPub, certSig) {
		return Result{}, rterr.New(rterr.BadDele, "client: CERT signature does not verify")
	}
	dele, err := cert.ParseDele(deleBytes)
	if err != nil {
		return Result{}, err
	}

	// 8: verify SREP under the online key DELE delegates to.
	if !signer.VerifyWithContext(signer.ContextSREP, resp.SREPBytes, dele.OnlinePub, resp.SIG) {
		return Result{}, rterr.New(rterr.BadSrep, "client: SREP signature does not verify")
	}

	// 9: time checks.
	midpUnit := time.Second
	if v == version.Google {
		midpUnit = time.Microsecond
	}
	midpoint := time.Unix(0, 0).Add(time.Duration(rep.Midp) * midpUnit)
	minTime := time.Unix(0, 0).Add(time.Duration(dele.MinTime) * midpUnit)
	maxTime := time.Unix(0, 0).Add(time.Duration(dele.MaxTime) * midpUnit)
	if midpoint.Before(minTime) {
		return Result{}, rterr.New(rterr.ExpiredDele, "client: MIDP is before the delegation's MINT")
	}
	if midpoint.After(maxTime) {
		return Result{}, rterr.New(rterr.ExpiredDele, "client: MIDP is after the delegation's MAXT")
	}

	radius := time.Duration(rep.Radi) * midpUnit
	return Result{Version: v, Midpoint: midpoint, Radius: radius}, nil
}
