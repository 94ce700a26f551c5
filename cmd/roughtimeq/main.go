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

// roughtimeq is a thin UDP query client wrapper around request, client,
// and udpclient. All protocol logic — building the request, validating
// the response — lives in the core; this binary only owns flags, the
// directory file, and the socket.
package main

import (
	"encoding/base64"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	rtclient "github.com/cloudflare-labs/roughtime-core/client"
	"github.com/cloudflare-labs/roughtime-core/ecosystemcfg"
	"github.com/cloudflare-labs/roughtime-core/request"
	"github.com/cloudflare-labs/roughtime-core/udpclient"
)

func main() {
	directoryFile := flag.String("directory", "", "path to a server directory TOML file (see ecosystemcfg)")
	serverName := flag.String("server", "", "name of the server to query, from -directory")
	pingAddr := flag.String("addr", "", "address to query directly, bypassing -directory")
	pingPubKeyB64 := flag.String("pubkey", "", "base64 long-term public key of -addr")
	timeout := flag.Duration("timeout", udpclient.DefaultTimeout, "per-attempt timeout")
	retries := flag.Int("retries", udpclient.DefaultRetries, "additional attempts after the first (0 or less selects the default)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Str("app", "roughtimeq").Logger()

	addr := *pingAddr
	pubB64 := *pingPubKeyB64
	if addr == "" {
		if *directoryFile == "" || *serverName == "" {
			logger.Fatal().Msg("either -addr/-pubkey or -directory/-server is required")
		}
		dir, err := ecosystemcfg.LoadDirectory(*directoryFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("loading server directory")
		}
		entry, ok := dir.Lookup(*serverName)
		if !ok {
			logger.Fatal().Str("server", *serverName).Msg("server not found in directory")
		}
		addr = entry.Address
		pubB64 = entry.PublicKeyB64
	}

	pub, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil || len(pub) != 32 {
		logger.Fatal().Str("pubkey", pubB64).Msg("invalid public key")
	}

	reqBuf, nonce, chosen, err := request.Build(request.BuildOptions{})
	if err != nil {
		logger.Fatal().Err(err).Msg("building request")
	}

	start := time.Now()
	res, err := udpclient.Send(addr, reqBuf, udpclient.Options{Timeout: *timeout, Retries: *retries})
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("query failed")
	}
	delay := time.Since(start)

	result, err := rtclient.Validate(rtclient.Exchange{
		RequestNonce:  nonce,
		RequestBytes:  reqBuf,
		ResponseBytes: res.Bytes,
		ServerLTPub:   pub,
		ObservedAt:    time.Now(),
	})
	if err != nil {
		logger.Fatal().Err(err).Uint32("version", uint32(chosen)).Msg("response failed validation")
	}

	logger.Info().
		Uint32("version", uint32(result.Version)).
		Time("midpoint", result.Midpoint).
		Dur("radius", result.Radius).
		Dur("rtt", delay.Truncate(time.Millisecond)).
		Msg("roughtime response validated")
}
