package engine

import (
	"testing"

	"pymigrate/internal/patchstore"
	"pymigrate/internal/risk"
)

func TestParseTierPolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    TierPolicy
		wantErr bool
	}{
		{"", TierPolicyAll, false},
		{"all", TierPolicyAll, false},
		{"tier1-only", TierPolicyTier1Only, false},
		{"up-to-tier2", TierPolicyUpToTier2, false},
		{"bogus", "", true},
	}
	for _, tc := range cases {
		got, err := ParseTierPolicy(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseTierPolicy(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseTierPolicy(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTierPolicyAllows(t *testing.T) {
	if !TierPolicyTier1Only.allows(risk.Tier1) {
		t.Error("tier1-only should allow tier 1")
	}
	if TierPolicyTier1Only.allows(risk.Tier2) {
		t.Error("tier1-only should not allow tier 2")
	}
	if !TierPolicyUpToTier2.allows(risk.Tier2) {
		t.Error("up-to-tier2 should allow tier 2")
	}
	if TierPolicyUpToTier2.allows(risk.Tier3) {
		t.Error("up-to-tier2 should not allow tier 3")
	}
	if !TierPolicyAll.allows(risk.Tier3) {
		t.Error("all should allow tier 3")
	}
}

func TestNewSessionIDIsUnique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty session IDs")
	}
	if a == b {
		t.Fatal("expected two calls to NewSessionID to differ")
	}
}

func TestSessionPatchesSkipsNilAndTieredByPathSkipsEmpty(t *testing.T) {
	p1 := &patchstore.Patch{Path: "a.py"}
	sess := &Session{
		Results: []FileResult{
			{Path: "a.py", Patch: p1, Changes: []risk.TieredChange{{Tier: risk.Tier1}}},
			{Path: "b.py", Patch: nil},
			{Path: "c.py", Patch: nil, Changes: nil},
		},
	}

	patches := sess.Patches()
	if len(patches) != 1 || patches[0] != p1 {
		t.Fatalf("expected exactly [p1], got %+v", patches)
	}

	tiered := sess.TieredByPath()
	if len(tiered) != 1 {
		t.Fatalf("expected exactly one entry, got %+v", tiered)
	}
	if _, ok := tiered["a.py"]; !ok {
		t.Fatal("expected an entry for a.py")
	}
	if _, ok := tiered["b.py"]; ok {
		t.Fatal("did not expect an entry for b.py")
	}
}
