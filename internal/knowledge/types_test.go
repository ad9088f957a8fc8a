package knowledge

import "testing"

func TestConfidenceAtLeast(t *testing.T) {
	cases := []struct {
		c, floor Confidence
		want     bool
	}{
		{ConfidenceHigh, ConfidenceLow, true},
		{ConfidenceHigh, ConfidenceHigh, true},
		{ConfidenceMedium, ConfidenceHigh, false},
		{ConfidenceLow, ConfidenceMedium, false},
		{Confidence("bogus"), ConfidenceLow, false},
	}
	for _, tc := range cases {
		if got := tc.c.AtLeast(tc.floor); got != tc.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tc.c, tc.floor, got, tc.want)
		}
	}
}

func TestBreakingChangeKeyDeduplicatesOnKindSymbolReplacement(t *testing.T) {
	a := BreakingChange{Kind: KindMethodRename, Match: Match{Symbol: "BaseModel.dict"}, Replacement: Replacement{Symbol: "model_dump"}}
	b := BreakingChange{Kind: KindMethodRename, Match: Match{Symbol: "BaseModel.dict"}, Replacement: Replacement{Symbol: "model_dump"}, Explanation: "from a different source"}
	if a.Key() != b.Key() {
		t.Fatalf("expected identical keys for changes differing only in provenance, got %q vs %q", a.Key(), b.Key())
	}

	c := BreakingChange{Kind: KindMethodRename, Match: Match{Symbol: "BaseModel.json"}, Replacement: Replacement{Symbol: "model_dump_json"}}
	if a.Key() == c.Key() {
		t.Fatalf("expected distinct keys for distinct symbols, got %q for both", a.Key())
	}
}

func TestCacheKeyFormat(t *testing.T) {
	m := &MigrationSpec{Library: "pydantic", SourceRange: ">=1.0,<2.0", Target: "2.x"}
	want := "pydantic_>=1.0,<2.0_2.x"
	if got := m.CacheKey(); got != want {
		t.Fatalf("CacheKey() = %q, want %q", got, want)
	}
}

func TestByConfidenceDescOrdersHighFirstWithoutMutatingOriginal(t *testing.T) {
	m := &MigrationSpec{
		BreakingChanges: []BreakingChange{
			{ID: "low", Confidence: ConfidenceLow},
			{ID: "high", Confidence: ConfidenceHigh},
			{ID: "medium", Confidence: ConfidenceMedium},
		},
	}
	sorted := m.ByConfidenceDesc()
	if len(sorted) != 3 || sorted[0].ID != "high" || sorted[1].ID != "medium" || sorted[2].ID != "low" {
		t.Fatalf("unexpected order: %+v", sorted)
	}
	if m.BreakingChanges[0].ID != "low" {
		t.Fatal("ByConfidenceDesc must not mutate the original slice order")
	}
}
