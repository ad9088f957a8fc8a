package engine

import (
	"context"

	"pymigrate/internal/transform"
)

// RewriteOracle is Tier 3 of spec.md §4.6: when a file imports a migrating
// library that has neither a Tier-1 transformer nor a usable Tier-2
// MigrationSpec (acquisition returned nothing, or every BreakingChange's
// Kind fell outside what applyTier2 can express), the oracle rewrites the
// file's source directly. Pluggable per spec.md §6; the core ships an
// HTTP-backed default in internal/adapters.
type RewriteOracle interface {
	Rewrite(ctx context.Context, library, fromVersion, toVersion string, source []byte) ([]byte, []transform.Change, error)
}
