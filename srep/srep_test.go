package srep

import (
	"bytes"
	"testing"
	"time"

	"github.com/cloudflare-labs/roughtime-core/rterr"
	"github.com/cloudflare-labs/roughtime-core/version"
)

func TestBuildParseRoundtripGoogle(t *testing.T) {
	root := bytes.Repeat([]byte{0xab}, 64)
	now := time.Unix(1_700_000_000, 0)
	raw, err := Build(Input{Version: version.Google, Root: root, Midpoint: now})
	if err != nil {
		t.Fatal(err)
	}
	p, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.Root, root) {
		t.Error("ROOT mismatch")
	}
	if p.Midp != uint64(now.UnixMicro()) {
		t.Errorf("MIDP = %d, want %d", p.Midp, now.UnixMicro())
	}
	if p.Radi != uint32(DefaultRadius.Microseconds()) {
		t.Errorf("RADI = %d, want %d", p.Radi, DefaultRadius.Microseconds())
	}
}

func TestBuildParseRoundtripEarlyDraftHasNonce(t *testing.T) {
	root := bytes.Repeat([]byte{1}, 32)
	nonce := bytes.Repeat([]byte{2}, 64)
	raw, err := Build(Input{Version: version.Draft1, Root: root, Nonce: nonce})
	if err != nil {
		t.Fatal(err)
	}
	p, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.Nonce, nonce) {
		t.Error("expected NONC to roundtrip for draft 1")
	}
}

func TestBuildRejectsMissingNonceForEarlyDrafts(t *testing.T) {
	root := bytes.Repeat([]byte{1}, 32)
	if _, err := Build(Input{Version: version.Draft2, Root: root}); err == nil {
		t.Error("expected error when NONC is required but absent")
	}
}

func TestBuildDraft12IncludesVerAndVers(t *testing.T) {
	root := bytes.Repeat([]byte{1}, 32)
	vers := []version.Version{version.Draft8, version.Draft12}
	raw, err := Build(Input{Version: version.Draft12, Root: root, Vers: vers})
	if err != nil {
		t.Fatal(err)
	}
	p, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !p.HasVer || p.Ver != version.Draft12 {
		t.Errorf("expected VER = Draft12, got %#x (present=%v)", uint32(p.Ver), p.HasVer)
	}
	if len(p.Vers) != 2 || p.Vers[0] != version.Draft8 || p.Vers[1] != version.Draft12 {
		t.Errorf("VERS roundtrip mismatch: %v", p.Vers)
	}
}

func TestBuildDraft12RequiresVers(t *testing.T) {
	root := bytes.Repeat([]byte{1}, 32)
	if _, err := Build(Input{Version: version.Draft12, Root: root}); err == nil {
		t.Error("expected error when VERS is required but absent")
	}
}

func TestBuildRejectsUnsupportedVersion(t *testing.T) {
	root := bytes.Repeat([]byte{1}, 32)
	if _, err := Build(Input{Version: version.Draft5, Root: root}); !rterr.Is(err, rterr.InvalidResponse) {
		t.Errorf("expected InvalidResponse for expired version, got %v", err)
	}
}

func TestBuildRejectsNonPositiveRadius(t *testing.T) {
	root := bytes.Repeat([]byte{1}, 32)
	if _, err := Build(Input{Version: version.Draft8, Root: root, Radius: -1}); err == nil {
		t.Error("expected error for negative radius")
	}
}

func TestParseRejectsMissingRoot(t *testing.T) {
	if _, err := Parse([]byte{0, 0, 0, 0}); !rterr.Is(err, rterr.BadSrep) {
		t.Errorf("expected BadSrep, got %v", err)
	}
}
