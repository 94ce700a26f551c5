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

// Package ecosystemcfg loads the two TOML files a deployment of this core
// needs but that the core itself has no opinion about: a server's own
// identity (long-term key path, listen address, cert validity, minimum
// request size) and a directory of known Roughtime servers a client can
// query by name.
package ecosystemcfg

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cloudflare-labs/roughtime-core/rterr"
)

// ServerIdentity is a Roughtime server's own deployment config.
type ServerIdentity struct {
	ListenAddr      string
	RootKeyFile     string
	CertValidity    time.Duration
	MinRequestBytes int
}

// DefaultServerIdentity returns the baseline listen address, cert
// validity, and minimum request size a server identity file overlays.
func DefaultServerIdentity() ServerIdentity {
	return ServerIdentity{
		ListenAddr:      "127.0.0.1:2002",
		CertValidity:    3600 * time.Second,
		MinRequestBytes: 1024,
	}
}

type identityFile struct {
	ListenAddr       string `toml:"listen_addr"`
	RootKeyFile      string `toml:"root_key_file"`
	CertValiditySecs int64  `toml:"cert_validity_seconds"`
	MinRequestBytes  int    `toml:"min_request_bytes"`
}

// LoadServerIdentity reads path, overlaying any defined keys onto
// DefaultServerIdentity.
func LoadServerIdentity(path string) (ServerIdentity, error) {
	cfg := DefaultServerIdentity()

	var raw identityFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerIdentity{}, rterr.New(rterr.InputValidation, "ecosystemcfg: load server identity %s: %v", path, err)
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("root_key_file") {
		cfg.RootKeyFile = strings.TrimSpace(raw.RootKeyFile)
	}
	if meta.IsDefined("cert_validity_seconds") {
		if raw.CertValiditySecs <= 0 {
			return ServerIdentity{}, rterr.New(rterr.InputValidation, "ecosystemcfg: %s: cert_validity_seconds must be positive", path)
		}
		cfg.CertValidity = time.Duration(raw.CertValiditySecs) * time.Second
	}
	if meta.IsDefined("min_request_bytes") {
		cfg.MinRequestBytes = raw.MinRequestBytes
	}

	if cfg.RootKeyFile == "" {
		return ServerIdentity{}, rterr.New(rterr.InputValidation, "ecosystemcfg: %s: root_key_file is required", path)
	}
	return cfg, nil
}

// ServerEntry is one named server in a directory: a display name, a
// transport address, and its long-term public key as base64 text (decoded
// lazily by callers via keyfile-style helpers, since ecosystemcfg only
// parses TOML and never touches key bytes directly).
type ServerEntry struct {
	Name         string
	Protocol     string
	Address      string
	PublicKeyB64 string
}

// Directory is a named list of known Roughtime servers.
type Directory struct {
	Servers []ServerEntry
}

type directoryFile struct {
	Server []struct {
		Name      string `toml:"name"`
		Protocol  string `toml:"protocol"`
		Address   string `toml:"address"`
		PublicKey string `toml:"public_key"`
	} `toml:"server"`
}

// LoadDirectory reads a [[server]]-table TOML file listing known servers.
func LoadDirectory(path string) (Directory, error) {
	var raw directoryFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return Directory{}, rterr.New(rterr.InputValidation, "ecosystemcfg: load directory %s: %v", path, err)
	}

	dir := Directory{Servers: make([]ServerEntry, 0, len(raw.Server))}
	for i, s := range raw.Server {
		name := strings.TrimSpace(s.Name)
		addr := strings.TrimSpace(s.Address)
		pub := strings.TrimSpace(s.PublicKey)
		if name == "" {
			return Directory{}, rterr.New(rterr.InputValidation, "ecosystemcfg: %s: server[%d] missing name", path, i)
		}
		if addr == "" {
			return Directory{}, rterr.New(rterr.InputValidation, "ecosystemcfg: %s: server %q missing address", path, name)
		}
		if pub == "" {
			return Directory{}, rterr.New(rterr.InputValidation, "ecosystemcfg: %s: server %q missing public_key", path, name)
		}
		proto := strings.TrimSpace(s.Protocol)
		if proto == "" {
			proto = "udp"
		}
		dir.Servers = append(dir.Servers, ServerEntry{Name: name, Protocol: proto, Address: addr, PublicKeyB64: pub})
	}
	return dir, nil
}

// Lookup returns the entry named name, if present.
func (d Directory) Lookup(name string) (ServerEntry, bool) {
	for _, s := range d.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return ServerEntry{}, false
}
