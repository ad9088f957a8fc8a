// Package engine orchestrates the three-tier migration algorithm of
// spec.md §4.6: Tier 1 runs the hand-coded transform.Registry
// transformers; Tier 2 falls back to a knowledge.MigrationSpec acquired
// for a library with no Tier-1 transformer and rewrites generically from
// its BreakingChanges; Tier 3 hands the file to a RewriteOracle when
// neither tier produced a change. Grounded on internal/jobs/runner.go's
// worker-pool shape and internal/tier/tier.go's tier-mode vocabulary.
package engine

import (
	"github.com/google/uuid"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/patchstore"
	"pymigrate/internal/risk"
)

// TierPolicy bounds how far the engine may escalate past Tier 1, per
// spec.md §6's `--tier-policy` flag.
type TierPolicy string

const (
	TierPolicyTier1Only  TierPolicy = "tier1-only"
	TierPolicyUpToTier2  TierPolicy = "up-to-tier2"
	TierPolicyAll        TierPolicy = "all"
)

// ParseTierPolicy parses a config/flag string into a TierPolicy, defaulting
// to TierPolicyAll for an empty string and erroring on anything else.
func ParseTierPolicy(s string) (TierPolicy, error) {
	switch TierPolicy(s) {
	case "", TierPolicyAll:
		return TierPolicyAll, nil
	case TierPolicyTier1Only:
		return TierPolicyTier1Only, nil
	case TierPolicyUpToTier2:
		return TierPolicyUpToTier2, nil
	default:
		return "", &invalidTierPolicyError{s}
	}
}

type invalidTierPolicyError struct{ value string }

func (e *invalidTierPolicyError) Error() string {
	return "engine: invalid tier policy " + e.value + " (want tier1-only, up-to-tier2, or all)"
}

func (p TierPolicy) allows(t risk.Tier) bool {
	switch p {
	case TierPolicyTier1Only:
		return t == risk.Tier1
	case TierPolicyUpToTier2:
		return t == risk.Tier1 || t == risk.Tier2
	default:
		return true
	}
}

// LibraryOrder declares the fixed per-file application order spec.md
// §4.6 requires when a file imports more than one migrating library:
// pydantic is rewritten before fastapi/starlette so a starlette response
// import move doesn't race a pydantic model's own restructuring;
// sqlalchemy and requests have fixed slots between pydantic and starlette.
var LibraryOrder = []string{"pydantic", "sqlalchemy", "requests", "starlette"}

// FileResult is the per-file outcome of Analyse: the proposed Patch (nil
// if the file needed no changes) plus the tiered changes that produced
// it, for the risk score.
type FileResult struct {
	Path    string
	Patch   *patchstore.Patch
	Changes []risk.TieredChange
	Err     error
}

// Session is the in-memory state of one `pymigrate analyse`/`apply` run:
// every file result plus the libraries and tier policy it was run with.
// ID identifies the run in session.json and log lines, so two `analyse`
// invocations against the same project never get confused in a shared log
// stream.
type Session struct {
	ID          string
	ProjectRoot string
	Libraries   []string
	TierPolicy  TierPolicy
	Results     []FileResult
	Specs       map[string]*knowledge.MigrationSpec // library -> acquired spec, for tier 2
}

// NewSessionID mints a fresh session identifier.
func NewSessionID() string { return uuid.NewString() }

// Patches returns every non-nil Patch across the session's results.
func (s *Session) Patches() []*patchstore.Patch {
	var out []*patchstore.Patch
	for _, r := range s.Results {
		if r.Patch != nil {
			out = append(out, r.Patch)
		}
	}
	return out
}

// TieredByPath returns the risk package's expected tier-stamped-change
// map, keyed by file path.
func (s *Session) TieredByPath() map[string][]risk.TieredChange {
	out := make(map[string][]risk.TieredChange, len(s.Results))
	for _, r := range s.Results {
		if len(r.Changes) > 0 {
			out[r.Path] = r.Changes
		}
	}
	return out
}
