package version

import "testing"

func TestChooseVersionDefaults(t *testing.T) {
	if got := ChooseVersion(nil); got != Google {
		t.Errorf("ChooseVersion(nil) = %#x, want Google", uint32(got))
	}
	if got := ChooseVersion([]Version{}); got != Google {
		t.Errorf("ChooseVersion([]) = %#x, want Google", uint32(got))
	}
}

func TestChooseVersionPicksHighestOverlap(t *testing.T) {
	got := ChooseVersion([]Version{Draft1, Draft12})
	if got != Draft12 {
		t.Errorf("got %#x, want Draft12", uint32(got))
	}
}

func TestChooseVersionFallsBackToFiducial(t *testing.T) {
	got := ChooseVersion([]Version{0x99999999})
	if got != Fiducial {
		t.Errorf("got %#x, want fiducial %#x", uint32(got), uint32(Fiducial))
	}
}

func TestChooseVersionPrefersReleased1(t *testing.T) {
	got := ChooseVersion([]Version{released1, Draft8, Draft12})
	if got != released1 {
		t.Errorf("got %#x, want the v1 release value", uint32(got))
	}
}

func TestNonceLength(t *testing.T) {
	cases := map[Version]int{
		Google: 64, Draft1: 64, Draft4: 64,
		Draft6: 32, Draft8: 32, Draft12: 32,
	}
	for v, want := range cases {
		if got := NonceLength(v); got != want {
			t.Errorf("NonceLength(%#x) = %d, want %d", uint32(v), got, want)
		}
	}
}

func TestCanBatch(t *testing.T) {
	if CanBatch(Draft1) || CanBatch(Draft2) {
		t.Error("draft 1/2 must not be batchable")
	}
	if !CanBatch(Draft12) || !CanBatch(Google) {
		t.Error("other versions must be batchable")
	}
}

func TestPadTag(t *testing.T) {
	if PadTag(Google) == PadTag(Draft8) {
		t.Error("Google and IETF padding tags must differ")
	}
	if PadTag(Draft8) != PadTag(Draft12) {
		t.Error("draft 8 and draft 12 should share the ZZZZ padding tag")
	}
	if PadTag(Draft3) == PadTag(Draft8) {
		t.Error("early IETF drafts must use PAD\\0, not ZZZZ")
	}
}

func TestMerkleLeafData(t *testing.T) {
	nonce := []byte("nonce")
	req := []byte("full-request")
	if got := MerkleLeafData(Draft8, nonce, req); string(got) != "nonce" {
		t.Errorf("Draft8 leaf data = %q, want nonce", got)
	}
	if got := MerkleLeafData(Draft12, nonce, req); string(got) != "full-request" {
		t.Errorf("Draft12 leaf data = %q, want full request", got)
	}
}

func TestValidateVersOnlyAppliesToDraft12(t *testing.T) {
	if err := ValidateVers(Draft8, nil); err != nil {
		t.Errorf("draft 8 should not constrain VER: %v", err)
	}
	if err := ValidateVers(Draft12, nil); err == nil {
		t.Error("draft 12 requires a nonempty VER")
	}
	if err := ValidateVers(Draft12, []Version{Draft8, Draft8}); err == nil {
		t.Error("draft 12 requires strictly ascending VER")
	}
	if err := ValidateVers(Draft12, []Version{Draft8, Draft12}); err != nil {
		t.Errorf("expected valid ascending VER to pass: %v", err)
	}
}

func TestValidateTypeOnlyAppliesToDraft12(t *testing.T) {
	if err := ValidateType(Draft8, []byte{1, 2, 3, 4}); err != nil {
		t.Errorf("draft 8 should not constrain TYPE: %v", err)
	}
	if err := ValidateType(Draft12, []byte{1, 0, 0, 0}); err == nil {
		t.Error("draft 12 requires TYPE == 0")
	}
	if err := ValidateType(Draft12, []byte{0, 0, 0, 0}); err != nil {
		t.Errorf("expected TYPE == 0 to pass: %v", err)
	}
}
