package tagcodec

import "testing"

func TestKnownTagBytes(t *testing.T) {
	cases := []struct {
		name string
		want [4]byte
	}{
		{"NONC", [4]byte{0x4e, 0x4f, 0x4e, 0x43}},
		{"VER", [4]byte{0x56, 0x45, 0x52, 0x00}},
	}
	for _, c := range cases {
		got := FromName(c.name).Bytes()
		if got != c.want {
			t.Errorf("FromName(%q).Bytes() = %x, want %x", c.name, got, c.want)
		}
	}
}

func TestGooglePadTag(t *testing.T) {
	pad := FromRaw([4]byte{'P', 'A', 'D', 0xff})
	want := [4]byte{0x50, 0x41, 0x44, 0xff}
	if got := pad.Bytes(); got != want {
		t.Errorf("PAD\\xff bytes = %x, want %x", got, want)
	}
	if _, ok := pad.Name(); ok {
		t.Error("PAD\\xff should not decode to a printable name")
	}
}

func TestOrdering(t *testing.T) {
	pad := FromName("PAD")
	zzzz := FromName("ZZZZ")
	padFF := FromRaw([4]byte{'P', 'A', 'D', 0xff})

	if !(pad.Uint32() < zzzz.Uint32() && zzzz.Uint32() < padFF.Uint32()) {
		t.Errorf("expected PAD < ZZZZ < PAD\\xff, got %d, %d, %d", pad.Uint32(), zzzz.Uint32(), padFF.Uint32())
	}
}

func TestRoundtrip(t *testing.T) {
	for _, name := range []string{"NONC", "VER", "SIG", "CERT"} {
		tag := FromName(name)
		got, ok := tag.Name()
		if !ok {
			t.Fatalf("tag for %q did not decode to a name", name)
		}
		if got != name {
			t.Errorf("got %q, want %q", got, name)
		}
	}
}

func TestNamePadding(t *testing.T) {
	tag := FromName("VER")
	raw := tag.Bytes()
	if raw != [4]byte{'V', 'E', 'R', 0} {
		t.Errorf("expected right-padded NUL, got %v", raw)
	}
}
