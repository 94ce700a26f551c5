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

// Package rterr defines the closed sum of error kinds shared across the
// Roughtime core: an ErrorType/Error split extended to the full taxonomy
// the multi-version core needs.
package rterr

import "fmt"

// Kind identifies the class of failure. It is a closed enumeration: new
// kinds are added here, never invented ad hoc at call sites.
type Kind uint16

const (
	Truncated Kind = iota
	BadMagic
	BadLength
	BadTLV
	BadTag
	InvalidRequest
	InvalidResponse
	BadNonce
	BadRoot
	BadDele
	BadSrep
	ExpiredDele
	InputValidation
)

func (k Kind) String() string {
	switch k {
	case Truncated:
		return "truncated"
	case BadMagic:
		return "bad magic"
	case BadLength:
		return "bad length"
	case BadTLV:
		return "bad tlv"
	case BadTag:
		return "bad tag"
	case InvalidRequest:
		return "invalid request"
	case InvalidResponse:
		return "invalid response"
	case BadNonce:
		return "bad nonce"
	case BadRoot:
		return "bad root"
	case BadDele:
		return "bad dele"
	case BadSrep:
		return "bad srep"
	case ExpiredDele:
		return "expired dele"
	case InputValidation:
		return "input validation"
	default:
		return "unknown"
	}
}

// Error is a structured protocol error. Offending carries the raw bytes at
// issue, when available, for diagnostics; it is not printed by Error() to
// avoid leaking arbitrary-length attacker-controlled data into logs.
type Error struct {
	Kind      Kind
	Info      string
	Offending []byte
}

func (e *Error) Error() string {
	if e.Info == "" {
		return "roughtime: " + e.Kind.String()
	}
	return "roughtime: " + e.Kind.String() + ": " + e.Info
}

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Info: fmt.Sprintf(format, args...)}
}

// WithOffending attaches the offending bytes to an error for diagnostics.
func WithOffending(kind Kind, offending []byte, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Offending = offending
	return e
}

// Is reports whether err is an *Error of the given kind, so callers can use
// errors.Is-style checks without a sentinel per kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
