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

// roughtimed is a thin UDP server wrapper around the server package. It
// owns the socket and the read/respond loop; all protocol logic lives in
// the core.
package main

import (
	"encoding/base64"
	"flag"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloudflare-labs/roughtime-core/ecosystemcfg"
	"github.com/cloudflare-labs/roughtime-core/keyfile"
	rtserver "github.com/cloudflare-labs/roughtime-core/server"
)

// maxRequestBytes bounds a single incoming datagram; well over the
// largest request this core ever builds.
const maxRequestBytes = 4096

func main() {
	configFile := flag.String("config", "", "path to a server identity TOML file (see ecosystemcfg)")
	listenOverride := flag.String("addr", "", "override the config's listen_addr")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Str("app", "roughtimed").Logger()

	if *configFile == "" {
		logger.Fatal().Msg("-config is required")
	}
	identity, err := ecosystemcfg.LoadServerIdentity(*configFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading server identity")
	}
	if *listenOverride != "" {
		identity.ListenAddr = *listenOverride
	}

	rootPriv, err := keyfile.ReadPrivate(identity.RootKeyFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", identity.RootKeyFile).Msg("reading root key")
	}

	now := time.Now()
	minted, err := rtserver.Mint(rootPriv, now, now.Add(identity.CertValidity))
	if err != nil {
		logger.Fatal().Err(err).Msg("minting delegated certificate")
	}
	logger.Info().Str("online_pub", base64.StdEncoding.EncodeToString(minted.OnlinePub)).Time("not_after", minted.NotAfter).Msg("minted online key")

	udpAddr, err := net.ResolveUDPAddr("udp", identity.ListenAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", identity.ListenAddr).Msg("resolving listen address")
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", identity.ListenAddr).Msg("listening")
	}
	defer conn.Close()
	logger.Info().Str("addr", identity.ListenAddr).Msg("listening")

	buf := make([]byte, maxRequestBytes)
	for {
		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			logger.Error().Err(err).Msg("read failed")
			continue
		}
		reqBuf := append([]byte(nil), buf[:n]...)

		respBuf, err := rtserver.RespondSingle(reqBuf, minted, time.Now())
		if err != nil {
			logger.Warn().Err(err).Str("peer", peer.String()).Msg("dropping malformed request")
			continue
		}
		if _, err := conn.WriteToUDP(respBuf, peer); err != nil {
			logger.Error().Err(err).Str("peer", peer.String()).Msg("write failed")
		}
	}
}
