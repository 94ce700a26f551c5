package cert

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/cloudflare-labs/roughtime-core/rterr"
	"github.com/cloudflare-labs/roughtime-core/version"
)

func genKeys(t *testing.T) (rootPub ed25519.PublicKey, rootPriv ed25519.PrivateKey, onlinePub ed25519.PublicKey) {
	t.Helper()
	rootPub, rootPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	onlinePub, _, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return rootPub, rootPriv, onlinePub
}

func TestBuildAndVerifyRoundtrip(t *testing.T) {
	for _, v := range []version.Version{version.Google, version.Draft8, version.Draft12} {
		rootPub, rootPriv, onlinePub := genKeys(t)
		raw, err := Build(v, onlinePub, 1000, 2000, rootPriv)
		if err != nil {
			t.Fatalf("v=%#x: %v", uint32(v), err)
		}
		dele, err := Verify(v, raw, rootPub)
		if err != nil {
			t.Fatalf("v=%#x: %v", uint32(v), err)
		}
		if string(dele.OnlinePub) != string(onlinePub) {
			t.Errorf("v=%#x: online pub mismatch", uint32(v))
		}
		if dele.MinTime != 1000 || dele.MaxTime != 2000 {
			t.Errorf("v=%#x: got MINT=%d MAXT=%d", uint32(v), dele.MinTime, dele.MaxTime)
		}
	}
}

func TestVerifyRejectsWrongRootKey(t *testing.T) {
	_, rootPriv, onlinePub := genKeys(t)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := Build(version.Draft12, onlinePub, 1000, 2000, rootPriv)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(version.Draft12, raw, otherPub); !rterr.Is(err, rterr.BadDele) {
		t.Errorf("expected BadDele, got %v", err)
	}
}

func TestVerifyRejectsWrongContext(t *testing.T) {
	rootPub, rootPriv, onlinePub := genKeys(t)
	// Sign under the legacy context but verify as if it were draft 12.
	raw, err := Build(version.Draft8, onlinePub, 1000, 2000, rootPriv)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(version.Draft12, raw, rootPub); !rterr.Is(err, rterr.BadDele) {
		t.Errorf("expected BadDele for context mismatch, got %v", err)
	}
}

func TestVerifyRejectsTamperedDele(t *testing.T) {
	rootPub, rootPriv, onlinePub := genKeys(t)
	raw, err := Build(version.Draft12, onlinePub, 1000, 2000, rootPriv)
	if err != nil {
		t.Fatal(err)
	}
	tampered := append([]byte(nil), raw...)
	tampered[len(tampered)-1] ^= 1
	if _, err := Verify(version.Draft12, tampered, rootPub); err == nil {
		t.Error("expected tampered CERT to fail verification")
	}
}

func TestBuildRejectsBadPubkeyLength(t *testing.T) {
	_, rootPriv, _ := genKeys(t)
	if _, err := Build(version.Draft12, make([]byte, 31), 1, 2, rootPriv); err == nil {
		t.Error("expected error for short online public key")
	}
}
