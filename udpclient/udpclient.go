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

// Package udpclient is the thin, out-of-scope send-with-retries
// collaborator the core hands a request to: it owns the socket, the
// per-attempt timeout, and the retry count, and returns the bytes and
// peer address of whichever response arrives first. It knows nothing
// about Roughtime wire formats.
package udpclient

import (
	"net"
	"time"

	"github.com/cloudflare-labs/roughtime-core/rterr"
)

// DefaultTimeout is the per-attempt deadline.
const DefaultTimeout = 1 * time.Second

// DefaultRetries is the number of additional attempts after the first.
const DefaultRetries = 2

// maxDatagram bounds the read buffer; Roughtime responses fit comfortably
// under typical UDP MTUs.
const maxDatagram = 65507

// Options configures one Send call. The zero value uses DefaultTimeout
// and DefaultRetries with source verification off. A Timeout or Retries
// of zero or less selects the default.
type Options struct {
	Timeout      time.Duration
	Retries      int
	VerifySource bool
}

func (o Options) normalized() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries <= 0 {
		o.Retries = DefaultRetries
	}
	return o
}

// Result is a response datagram and the address it actually arrived from.
type Result struct {
	Bytes []byte
	Peer  net.Addr
}

// Send resolves addr, sends requestBytes, and waits up to opts.Timeout for
// a reply, retrying up to opts.Retries additional times on timeout. If
// opts.VerifySource is set, a reply from an address other than the
// resolved server is discarded and counted as a timeout for that attempt.
// It returns an error if no attempt produces a usable response.
func Send(addr string, requestBytes []byte, opts Options) (Result, error) {
	opts = opts.normalized()

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return Result{}, rterr.New(rterr.InputValidation, "udpclient: cannot resolve %s: %v", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return Result{}, rterr.New(rterr.InputValidation, "udpclient: cannot dial %s: %v", addr, err)
	}
	defer conn.Close()

	buf := make([]byte, maxDatagram)
	attempts := opts.Retries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		if _, err := conn.Write(requestBytes); err != nil {
			lastErr = err
			continue
		}
		if err := conn.SetReadDeadline(time.Now().Add(opts.Timeout)); err != nil {
			lastErr = err
			continue
		}
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			lastErr = err
			continue
		}
		if opts.VerifySource && !sameHost(peer, raddr) {
			lastErr = rterr.New(rterr.InputValidation, "udpclient: reply from unexpected source %s", peer)
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return Result{Bytes: out, Peer: peer}, nil
	}
	if lastErr == nil {
		lastErr = rterr.New(rterr.InputValidation, "udpclient: no response")
	}
	return Result{}, rterr.New(rterr.InputValidation, "udpclient: no response from %s after %d attempts: %v", addr, attempts, lastErr)
}

func sameHost(peer net.Addr, want *net.UDPAddr) bool {
	udpPeer, ok := peer.(*net.UDPAddr)
	if !ok {
		return false
	}
	return udpPeer.IP.Equal(want.IP)
}
