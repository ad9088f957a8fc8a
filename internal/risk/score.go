// Package risk computes the weighted risk score spec.md §4.7 attaches to
// a migration session — file count, change volume, tier mix, confidence
// mix, and critical-path signal — and runs the post-migration re-parse
// validation that decides whether a proposed Patch is safe to mark Ready.
// Grounded on internal/breaking/analyzer.go's Summary-assembly style and
// internal/compression/budget.go's weighted-limits-with-defaults style.
package risk

import (
	"path/filepath"
	"strings"

	"pymigrate/internal/config"
	"pymigrate/internal/knowledge"
	"pymigrate/internal/patchstore"
	"pymigrate/internal/transform"
)

// Level buckets a session's numeric Score for display.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Weights controls how heavily each signal contributes to the score.
// The config has no weight settings; callers pass DefaultWeights().
type Weights struct {
	PerFile           float64
	PerChange         float64
	Tier2Multiplier   float64
	Tier3Multiplier   float64
	CriticalPathBonus float64
	LowConfidenceBonus float64
}

// DefaultWeights returns the baseline weighting used for every session.
func DefaultWeights() Weights {
	return Weights{
		PerFile:            1.0,
		PerChange:          0.5,
		Tier2Multiplier:    1.5,
		Tier3Multiplier:    2.5,
		CriticalPathBonus:  5.0,
		LowConfidenceBonus: 2.0,
	}
}

// Tier identifies which engine tier produced a Change, for the tier-mix
// component of the score. transform.Change doesn't carry this directly
// (it's a Tier-1-only type), so the engine stamps it via TieredChange below.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// TieredChange pairs a transform.Change with the tier that produced it,
// so Tier-2/3 rewrites (which don't go through transform.Rule) can still
// feed the risk score.
type TieredChange struct {
	Change transform.Change
	Tier   Tier
}

// Summary is the computed risk assessment for one migration session.
type Summary struct {
	FileCount        int
	ChangeCount      int
	TierCounts       map[Tier]int
	ConfidenceCounts map[knowledge.Confidence]int
	CriticalPathHits []string
	Score            float64
	Level            Level
}

// Compute assembles a Summary from the session's proposed patches and the
// tier-stamped changes that produced them, per spec.md §4.7.
func Compute(patches []*patchstore.Patch, tiered map[string][]TieredChange, cfg config.RiskConfig, weights Weights) *Summary {
	s := &Summary{
		TierCounts:       map[Tier]int{},
		ConfidenceCounts: map[knowledge.Confidence]int{},
	}

	for _, p := range patches {
		s.FileCount++
		if hit := matchesCriticalPath(p.Path, cfg.CriticalPathGlobs); hit != "" {
			s.CriticalPathHits = append(s.CriticalPathHits, p.Path)
		}
		for _, tc := range tiered[p.Path] {
			s.ChangeCount++
			s.TierCounts[tc.Tier]++
			s.ConfidenceCounts[tc.Change.Confidence]++
		}
	}

	s.Score = s.score(weights)
	s.Level = levelOf(s.Score)
	return s
}

func (s *Summary) score(w Weights) float64 {
	score := float64(s.FileCount)*w.PerFile + float64(s.ChangeCount)*w.PerChange
	score += float64(s.TierCounts[Tier2]) * (w.Tier2Multiplier - 1) * w.PerChange
	score += float64(s.TierCounts[Tier3]) * (w.Tier3Multiplier - 1) * w.PerChange
	score += float64(len(s.CriticalPathHits)) * w.CriticalPathBonus
	// §4.7 weighs the fraction of changes with confidence medium or lower,
	// not just low, so a spec with no Low-confidence rewrites but a heavy
	// Medium tail still scores above a mostly-High session.
	lowOrMedium := s.ConfidenceCounts[knowledge.ConfidenceLow] + s.ConfidenceCounts[knowledge.ConfidenceMedium]
	if s.ChangeCount > 0 {
		score += float64(lowOrMedium) / float64(s.ChangeCount) * w.LowConfidenceBonus
	}
	return score
}

func levelOf(score float64) Level {
	switch {
	case score >= 40:
		return LevelHigh
	case score >= 12:
		return LevelMedium
	default:
		return LevelLow
	}
}

// matchesCriticalPath returns the glob that matched path, or "" if none
// did. Matching is against the base name and every path segment, so a
// glob like "*auth*" matches "app/auth/handlers.py" as well as
// "auth_utils.py".
func matchesCriticalPath(path string, globs []string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for _, glob := range globs {
		for _, seg := range segments {
			if ok, _ := filepath.Match(glob, seg); ok {
				return glob
			}
		}
	}
	return ""
}
