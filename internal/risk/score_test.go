package risk

import (
	"testing"

	"pymigrate/internal/config"
	"pymigrate/internal/knowledge"
	"pymigrate/internal/patchstore"
	"pymigrate/internal/transform"
)

func TestMatchesCriticalPath(t *testing.T) {
	globs := []string{"*auth*", "*config*"}
	if got := matchesCriticalPath("app/auth/handlers.py", globs); got == "" {
		t.Error("expected app/auth/handlers.py to match *auth*")
	}
	if got := matchesCriticalPath("auth_utils.py", globs); got == "" {
		t.Error("expected auth_utils.py to match *auth*")
	}
	if got := matchesCriticalPath("app/models/user.py", globs); got != "" {
		t.Errorf("expected no match, got %q", got)
	}
}

func TestLevelOfBuckets(t *testing.T) {
	cases := []struct {
		score float64
		want  Level
	}{
		{0, LevelLow},
		{11.9, LevelLow},
		{12, LevelMedium},
		{39.9, LevelMedium},
		{40, LevelHigh},
		{100, LevelHigh},
	}
	for _, tc := range cases {
		if got := levelOf(tc.score); got != tc.want {
			t.Errorf("levelOf(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestComputeAggregatesFilesChangesAndCriticalPathHits(t *testing.T) {
	patches := []*patchstore.Patch{
		{Path: "app/auth/handlers.py"},
		{Path: "app/models/user.py"},
	}
	tiered := map[string][]TieredChange{
		"app/auth/handlers.py": {
			{Change: transform.Change{Confidence: knowledge.ConfidenceHigh}, Tier: Tier1},
			{Change: transform.Change{Confidence: knowledge.ConfidenceLow}, Tier: Tier3},
		},
		"app/models/user.py": {
			{Change: transform.Change{Confidence: knowledge.ConfidenceMedium}, Tier: Tier2},
		},
	}
	cfg := config.RiskConfig{CriticalPathGlobs: []string{"*auth*"}}

	s := Compute(patches, tiered, cfg, DefaultWeights())

	if s.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", s.FileCount)
	}
	if s.ChangeCount != 3 {
		t.Errorf("ChangeCount = %d, want 3", s.ChangeCount)
	}
	if len(s.CriticalPathHits) != 1 || s.CriticalPathHits[0] != "app/auth/handlers.py" {
		t.Errorf("CriticalPathHits = %v, want exactly [app/auth/handlers.py]", s.CriticalPathHits)
	}
	if s.TierCounts[Tier3] != 1 || s.TierCounts[Tier2] != 1 || s.TierCounts[Tier1] != 1 {
		t.Errorf("unexpected TierCounts: %+v", s.TierCounts)
	}
	if s.ConfidenceCounts[knowledge.ConfidenceLow] != 1 {
		t.Errorf("ConfidenceCounts[low] = %d, want 1", s.ConfidenceCounts[knowledge.ConfidenceLow])
	}
	if s.Score <= 0 {
		t.Errorf("expected a positive score, got %v", s.Score)
	}
	if s.Level == "" {
		t.Error("expected a non-empty Level")
	}
}

func TestComputeWithNoChangesScoresLow(t *testing.T) {
	patches := []*patchstore.Patch{{Path: "app/util.py"}}
	s := Compute(patches, map[string][]TieredChange{}, config.RiskConfig{}, DefaultWeights())
	if s.Level != LevelLow {
		t.Errorf("expected LevelLow for a single unchanged file, got %s (score %v)", s.Level, s.Score)
	}
}
