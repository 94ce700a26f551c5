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

// Package srep builds and parses the signed-response payload (SREP), whose
// tag set varies across the version matrix.
package srep

import (
	"time"

	"github.com/cloudflare-labs/roughtime-core/bytesx"
	"github.com/cloudflare-labs/roughtime-core/rterr"
	"github.com/cloudflare-labs/roughtime-core/tlv"
	"github.com/cloudflare-labs/roughtime-core/version"
)

// DefaultRadius is the fixed policy value for RADI absent an explicit
// override.
const DefaultRadius = 10 * time.Second

// Input describes one SREP to build.
type Input struct {
	Version  version.Version
	Root     []byte
	Midpoint time.Time     // zero means time.Now()
	Radius   time.Duration // zero means DefaultRadius
	Nonce    []byte        // required for Draft1/Draft2
	Vers     []version.Version
}

// Build encodes an SREP for in.Version, choosing the tag layout the version
// requires.
func Build(in Input) ([]byte, error) {
	if !version.IsSupported(in.Version) {
		return nil, rterr.New(rterr.InvalidResponse, "srep: version %#x is not supported", uint32(in.Version))
	}

	radius := in.Radius
	if radius == 0 {
		radius = DefaultRadius
	}
	if radius <= 0 {
		return nil, rterr.New(rterr.InvalidResponse, "srep: RADI must be positive")
	}

	midpoint := in.Midpoint
	if midpoint.IsZero() {
		midpoint = time.Now()
	}

	var midp uint64
	var radi uint32
	if in.Version == version.Google {
		midp = uint64(midpoint.UnixMicro())
		radi = uint32(radius.Microseconds())
	} else {
		midp = uint64(midpoint.Unix())
		radi = uint32(radius.Seconds())
	}

	m := tlv.Map{
		tlv.TagROOT: append([]byte(nil), in.Root...),
		tlv.TagMIDP: bytesx.PutUint64(midp),
		tlv.TagRADI: bytesx.PutUint32(radi),
	}

	if version.SREPHasNONC(in.Version) {
		if len(in.Nonce) == 0 {
			return nil, rterr.New(rterr.InvalidResponse, "srep: version %#x requires NONC in SREP", uint32(in.Version))
		}
		m[tlv.TagNONC] = append([]byte(nil), in.Nonce...)
	}

	if version.SREPHasVER(in.Version) {
		m[tlv.TagVER] = bytesx.PutUint32(uint32(in.Version))
		if len(in.Vers) == 0 {
			return nil, rterr.New(rterr.InvalidResponse, "srep: version %#x requires VERS in SREP", uint32(in.Version))
		}
		raw := make([]uint32, len(in.Vers))
		for i, v := range in.Vers {
			raw[i] = uint32(v)
		}
		m[tlv.TagVERS] = bytesx.PutUint32Vector(raw)
	}

	return tlv.Encode(m)
}

// Parsed is the decoded content of an SREP, independent of which optional
// tags were present.
type Parsed struct {
	Root   []byte
	Midp   uint64
	Radi   uint32
	Nonce  []byte // nil if absent
	Ver    version.Version
	HasVer bool
	Vers   []version.Version
}

// Parse decodes SREP bytes without verifying any signature.
func Parse(raw []byte) (Parsed, error) {
	m, err := tlv.Decode(raw)
	if err != nil {
		return Parsed{}, rterr.WithOffending(rterr.BadSrep, raw, "srep: malformed SREP: %v", err)
	}

	root, ok := m[tlv.TagROOT]
	if !ok {
		return Parsed{}, rterr.New(rterr.BadSrep, "srep: SREP missing ROOT")
	}
	midpB, ok := m[tlv.TagMIDP]
	if !ok {
		return Parsed{}, rterr.New(rterr.BadSrep, "srep: SREP missing MIDP")
	}
	midp, err := bytesx.Uint64(midpB)
	if err != nil {
		return Parsed{}, rterr.New(rterr.BadSrep, "srep: SREP.MIDP malformed: %v", err)
	}
	radiB, ok := m[tlv.TagRADI]
	if !ok {
		return Parsed{}, rterr.New(rterr.BadSrep, "srep: SREP missing RADI")
	}
	radi, err := bytesx.Uint32(radiB)
	if err != nil {
		return Parsed{}, rterr.New(rterr.BadSrep, "srep: SREP.RADI malformed: %v", err)
	}

	p := Parsed{Root: root, Midp: midp, Radi: radi}

	if nonce, ok := m[tlv.TagNONC]; ok {
		p.Nonce = nonce
	}
	if verB, ok := m[tlv.TagVER]; ok {
		v, err := bytesx.Uint32(verB)
		if err != nil {
			return Parsed{}, rterr.New(rterr.BadSrep, "srep: SREP.VER malformed: %v", err)
		}
		p.Ver = version.Version(v)
		p.HasVer = true
	}
	if versB, ok := m[tlv.TagVERS]; ok {
		raw, err := bytesx.Uint32Vector(versB)
		if err != nil {
			return Parsed{}, rterr.New(rterr.BadSrep, "srep: SREP.VERS malformed: %v", err)
		}
		vs := make([]version.Version, len(raw))
		for i, v := range raw {
			vs[i] = version.Version(v)
		}
		p.Vers = vs
	}

	return p, nil
}
