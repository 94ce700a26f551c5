package request

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/cloudflare-labs/roughtime-core/packet"
	"github.com/cloudflare-labs/roughtime-core/version"
)

func TestBuildParseRoundtripAllVersions(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range version.Supported {
		raw, nonce, chosen, err := Build(BuildOptions{Vers: []version.Version{v}, ServerPub: pub})
		if err != nil {
			t.Fatalf("v=%#x: %v", uint32(v), err)
		}
		if chosen != v {
			t.Fatalf("v=%#x: chosen %#x", uint32(v), uint32(chosen))
		}
		p, err := Parse(raw, ParseOptions{})
		if err != nil {
			t.Fatalf("v=%#x: %v", uint32(v), err)
		}
		if !bytes.Equal(p.Nonce, nonce) {
			t.Errorf("v=%#x: nonce mismatch", uint32(v))
		}
		if p.Version != v {
			t.Errorf("v=%#x: parsed version %#x", uint32(v), uint32(p.Version))
		}
	}
}

func TestBuildRespectsExactMessageSize(t *testing.T) {
	raw, _, chosen, err := Build(BuildOptions{Vers: []version.Version{version.Draft12}, MessageSize: 2048})
	if err != nil {
		t.Fatal(err)
	}
	wantLen := 2048 + packet.FrameOverhead
	if len(raw) != wantLen {
		t.Errorf("chosen=%#x: got packet length %d, want %d", uint32(chosen), len(raw), wantLen)
	}
}

func TestGoogleRequestIsUnframed(t *testing.T) {
	raw, _, chosen, err := Build(BuildOptions{Vers: []version.Version{version.Google}})
	if err != nil {
		t.Fatal(err)
	}
	if chosen != version.Google {
		t.Fatalf("expected Google, got %#x", uint32(chosen))
	}
	if string(raw[:8]) == "ROUGHTIM" {
		t.Error("Google-Roughtime requests must not carry the ROUGHTIM frame")
	}
}

func TestParseRejectsShortPacket(t *testing.T) {
	raw, _, _, err := Build(BuildOptions{Vers: []version.Version{version.Draft12}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(raw[:20], ParseOptions{}); err == nil {
		t.Error("expected error parsing a truncated packet")
	}
}

func TestBuildRejectsBadNonceLength(t *testing.T) {
	raw, _, _, err := Build(BuildOptions{Vers: []version.Version{version.Draft8}, Nonce: make([]byte, 32)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(raw, ParseOptions{}); err != nil {
		t.Fatalf("expected valid 32-byte nonce for draft 8 to parse, got %v", err)
	}

	if _, _, _, err := Build(BuildOptions{Vers: []version.Version{version.Draft8}, Nonce: make([]byte, 5)}); err == nil {
		t.Error("expected error building with a wrong-length nonce")
	}
}

func TestParseEnforcesMinSize(t *testing.T) {
	raw, _, _, err := Build(BuildOptions{Vers: []version.Version{version.Draft12}, MessageSize: 128})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(raw, ParseOptions{}); err == nil {
		t.Error("expected default 1024-byte floor to reject a small request")
	}
	if _, err := Parse(raw, ParseOptions{MinSizeBytes: -1}); err != nil {
		t.Errorf("expected disabling the floor to allow a small request, got %v", err)
	}
}
