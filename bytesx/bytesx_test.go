package bytesx

import (
	"bytes"
	"testing"
	"testing/quick"
)

func TestUint32Roundtrip(t *testing.T) {
	f := func(x uint32) bool {
		got, err := Uint32(PutUint32(x))
		return err == nil && got == x
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestUint64Roundtrip(t *testing.T) {
	f := func(x uint64) bool {
		got, err := Uint64(PutUint64(x))
		return err == nil && got == x
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestUint32RejectsBadLength(t *testing.T) {
	for _, b := range [][]byte{nil, {1}, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		if _, err := Uint32(b); err == nil {
			t.Errorf("Uint32(%v): expected error", b)
		}
	}
}

func TestUint64RejectsBadLength(t *testing.T) {
	for _, b := range [][]byte{nil, {1}, {1, 2, 3, 4, 5, 6, 7}} {
		if _, err := Uint64(b); err == nil {
			t.Errorf("Uint64(%v): expected error", b)
		}
	}
}

func TestUint32VectorRoundtrip(t *testing.T) {
	vs := []uint32{1, 2, 3, 0xffffffff, 0}
	enc := PutUint32Vector(vs)
	got, err := Uint32Vector(enc)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(vs) {
		t.Fatalf("got %d elements, want %d", len(got), len(vs))
	}
	for i := range vs {
		if got[i] != vs[i] {
			t.Errorf("element %d: got %d, want %d", i, got[i], vs[i])
		}
	}
}

func TestUint32VectorRejectsMisalignedLength(t *testing.T) {
	if _, err := Uint32Vector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for misaligned buffer")
	}
}

func TestHashPrefixed(t *testing.T) {
	h32, err := HashPrefixed(32, []byte{0}, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if len(h32) != 32 {
		t.Fatalf("got %d bytes, want 32", len(h32))
	}

	h64, err := HashPrefixed(64, []byte{0}, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(h32, h64[:32]) {
		t.Error("32-byte and 64-byte truncations disagree on their common prefix")
	}
}

func TestHashPrefixedRejectsBadSize(t *testing.T) {
	if _, err := HashPrefixed(16, nil, []byte("x")); err == nil {
		t.Error("expected error for unsupported hash size")
	}
}
