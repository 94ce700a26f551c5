package ecosystemcfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadServerIdentityOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
root_key_file = "root.key"
listen_addr = "0.0.0.0:2002"
`)
	cfg, err := LoadServerIdentity(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != "0.0.0.0:2002" {
		t.Errorf("got listen_addr %q", cfg.ListenAddr)
	}
	if cfg.RootKeyFile != "root.key" {
		t.Errorf("got root_key_file %q", cfg.RootKeyFile)
	}
	if cfg.CertValidity != DefaultServerIdentity().CertValidity {
		t.Errorf("expected default cert validity to be preserved, got %v", cfg.CertValidity)
	}
	if cfg.MinRequestBytes != 1024 {
		t.Errorf("got min_request_bytes %d, want default 1024", cfg.MinRequestBytes)
	}
}

func TestLoadServerIdentityAppliesOverrides(t *testing.T) {
	path := writeFile(t, `
root_key_file = "root.key"
cert_validity_seconds = 7200
min_request_bytes = 2048
`)
	cfg, err := LoadServerIdentity(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CertValidity != 2*time.Hour {
		t.Errorf("got cert validity %v, want 2h", cfg.CertValidity)
	}
	if cfg.MinRequestBytes != 2048 {
		t.Errorf("got min_request_bytes %d, want 2048", cfg.MinRequestBytes)
	}
}

func TestLoadServerIdentityRequiresRootKeyFile(t *testing.T) {
	path := writeFile(t, `listen_addr = "0.0.0.0:2002"`)
	if _, err := LoadServerIdentity(path); err == nil {
		t.Fatal("expected an error when root_key_file is missing")
	}
}

func TestLoadServerIdentityRejectsNonPositiveValidity(t *testing.T) {
	path := writeFile(t, `
root_key_file = "root.key"
cert_validity_seconds = 0
`)
	if _, err := LoadServerIdentity(path); err == nil {
		t.Fatal("expected an error for a zero cert_validity_seconds")
	}
}

func TestLoadDirectoryAndLookup(t *testing.T) {
	path := writeFile(t, `
[[server]]
name = "example"
address = "roughtime.example:2002"
public_key = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

[[server]]
name = "other"
protocol = "udp"
address = "roughtime.other:2003"
public_key = "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB="
`)
	dir, err := LoadDirectory(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(dir.Servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(dir.Servers))
	}
	entry, ok := dir.Lookup("example")
	if !ok {
		t.Fatal("expected to find \"example\"")
	}
	if entry.Protocol != "udp" {
		t.Errorf("expected default protocol udp, got %q", entry.Protocol)
	}
	if _, ok := dir.Lookup("missing"); ok {
		t.Error("did not expect to find \"missing\"")
	}
}

func TestLoadDirectoryRejectsMissingFields(t *testing.T) {
	path := writeFile(t, `
[[server]]
name = "example"
public_key = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
`)
	if _, err := LoadDirectory(path); err == nil {
		t.Fatal("expected an error for a server missing its address")
	}
}
