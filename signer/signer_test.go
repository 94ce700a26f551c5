package signer

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"
)

// RFC 8032 test vector #1.
const (
	rfc8032Seed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	rfc8032Sig  = "e5564300c360ac729086e2cc806e828a84877f1eb8e5d974d873e065224901555fb8821590a33bacc61e39701cf9b46bd25bf5f0595bbe24655141438e7a100b"
)

func TestRFC8032Vector1(t *testing.T) {
	seed, err := hex.DecodeString(rfc8032Seed[:64])
	if err != nil {
		t.Fatal(err)
	}
	priv, err := PrivateKeyFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	sig := ed25519.Sign(priv, nil)
	want, err := hex.DecodeString(rfc8032Sig)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sig, want) {
		t.Errorf("got %x, want %x", sig, want)
	}
}

func TestSignWithContextDeterministic(t *testing.T) {
	pub, priv, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("some signed response payload")
	sig1, err := SignWithContext(ContextSREP, data, priv)
	if err != nil {
		t.Fatal(err)
	}
	sig2, err := SignWithContext(ContextSREP, data, priv)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sig1, sig2) {
		t.Error("SignWithContext is not deterministic")
	}
	if !VerifyWithContext(ContextSREP, data, pub, sig1) {
		t.Error("verification failed for a valid signature")
	}
}

func TestVerifyWithContextRejectsTampering(t *testing.T) {
	pub, priv, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("payload")
	sig, err := SignWithContext(ContextDele, data, priv)
	if err != nil {
		t.Fatal(err)
	}

	if !VerifyWithContext(ContextDele, data, pub, sig) {
		t.Fatal("expected valid signature to verify")
	}

	tamperedData := append([]byte(nil), data...)
	tamperedData[0] ^= 1
	if VerifyWithContext(ContextDele, tamperedData, pub, sig) {
		t.Error("expected tampered data to fail verification")
	}

	otherPub, _, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if VerifyWithContext(ContextDele, data, otherPub, sig) {
		t.Error("expected verification under an unrelated key to fail")
	}

	tamperedSig := append([]byte(nil), sig...)
	tamperedSig[0] ^= 1
	if VerifyWithContext(ContextDele, data, pub, tamperedSig) {
		t.Error("expected tampered signature to fail verification")
	}

	if VerifyWithContext(ContextSREP, data, pub, sig) {
		t.Error("expected verification under the wrong context to fail")
	}
}

func TestRawKeyConversionsRejectBadLengths(t *testing.T) {
	if _, err := PublicKeyFromRaw(make([]byte, 31)); err == nil {
		t.Error("expected error for short public key")
	}
	if _, err := PrivateKeyFromSeed(make([]byte, 31)); err == nil {
		t.Error("expected error for short seed")
	}
}
