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

// roughtimekeygen generates a root Ed25519 key pair and writes it to disk
// as base64 text.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/cloudflare-labs/roughtime-core/keyfile"
)

func main() {
	pubFile := flag.String("pub", "", "file to write the public key to")
	privFile := flag.String("priv", "", "file to write the private key to")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Str("app", "roughtimekeygen").Logger()

	if *pubFile == "" || *privFile == "" {
		logger.Fatal().Msg("both -pub and -priv are required")
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		logger.Fatal().Err(err).Msg("generating key")
	}
	if err := keyfile.WritePublic(*pubFile, pub); err != nil {
		logger.Fatal().Err(err).Str("path", *pubFile).Msg("writing public key")
	}
	if err := keyfile.WritePrivate(*privFile, priv); err != nil {
		logger.Fatal().Err(err).Str("path", *privFile).Msg("writing private key")
	}
	logger.Info().Str("pub", *pubFile).Str("priv", *privFile).Msg("key pair written")
}
