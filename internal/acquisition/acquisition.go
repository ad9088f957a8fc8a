// Package acquisition builds a knowledge.MigrationSpec for a library
// version pair that has no hand-coded Tier-1 transformer, by fetching
// changelogs/migration guides and handing them to an external extraction
// oracle, per spec.md §4.5. Results are cached by (library, from, to);
// failed fetches and oracle calls are cached too, with a short TTL, so a
// flapping collaborator doesn't get hammered every analyse() call.
package acquisition

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/logging"
	"pymigrate/internal/migerrors"
)

// Document is one changelog/migration-guide source returned by a
// SourceFetcher.
type Document struct {
	URL         string
	ContentType string
	Bytes       []byte
}

// Candidate is one extracted BreakingChange plus the per-source confidence
// the oracle attached to it, before the cross-source merge in Acquire.
type Candidate struct {
	Change     knowledge.BreakingChange
	Confidence knowledge.Confidence
}

// SourceFetcher returns changelog/migration-guide documents for a package
// version pair. Pluggable per spec.md §6; the core ships an HTTP-backed
// default in internal/adapters.
type SourceFetcher interface {
	Fetch(ctx context.Context, library, fromVersion, toVersion string) ([]Document, error)
}

// ExtractionOracle converts free-form release notes into structured
// BreakingChange candidates. Pluggable per spec.md §6.
type ExtractionOracle interface {
	Extract(ctx context.Context, library, fromVersion, toVersion string, docs []Document) ([]Candidate, error)
}

// negativeCacheTTL mirrors the storage package's per-error-kind TTL table,
// generalized from index lookups to acquisition failures: a fetch or
// oracle failure for the same version pair is not retried within the TTL.
var negativeCacheTTL = map[migerrors.Code]time.Duration{
	migerrors.ErrSourceFetchFailed: 15 * time.Minute,
	migerrors.ErrOracleTimeout:     5 * time.Minute,
	migerrors.ErrOracleUnavailable: 15 * time.Minute,
}

// Pipeline drives the acquire algorithm of spec.md §4.5, backed by a
// Cache for positive results and a sqlite-backed NegativeCache for
// failures.
type Pipeline struct {
	fetcher  SourceFetcher
	oracle   ExtractionOracle
	cache    *Cache
	negative *NegativeCache
	docs     *DocumentCache
	logger   *logging.Logger
}

// New builds a Pipeline. cache, negative, and docs may be freshly opened
// against the session's .pymigrate/cache directory.
func New(fetcher SourceFetcher, oracle ExtractionOracle, cache *Cache, negative *NegativeCache, docs *DocumentCache, logger *logging.Logger) *Pipeline {
	return &Pipeline{fetcher: fetcher, oracle: oracle, cache: cache, negative: negative, docs: docs, logger: logger}
}

// Acquire implements spec.md §4.5's algorithm: cache hit short-circuits;
// a cache miss fetches sources, extracts candidates from each
// independently, and merges by (kind, symbol, replacement), taking the
// minimum confidence across sources unless the same change appears in
// more than one source (promoted to high).
func (p *Pipeline) Acquire(ctx context.Context, library, fromVersion, toVersion string) (*knowledge.MigrationSpec, error) {
	key := fmt.Sprintf("%s_%s_%s", library, fromVersion, toVersion)

	if spec, ok := p.cache.Get(key); ok {
		p.logger.Debug("knowledge spec cache hit", map[string]interface{}{"key": key})
		return spec, nil
	}

	if code, ok := p.negative.Get(key); ok {
		return emptySpec(library, fromVersion, toVersion), migerrors.New(code, "acquisition previously failed; within negative-cache TTL")
	}

	docs, cached := p.docs.Get(key)
	if !cached {
		var err error
		docs, err = p.fetcher.Fetch(ctx, library, fromVersion, toVersion)
		if err != nil {
			p.markNegative(key, migerrors.ErrSourceFetchFailed)
			return emptySpec(library, fromVersion, toVersion), migerrors.Wrap(migerrors.ErrSourceFetchFailed, "fetching changelog sources", err)
		}
		if err := p.docs.Put(key, docs); err != nil {
			p.logger.Warn("failed to persist fetched documents", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	if len(docs) == 0 {
		p.logger.Warn("no sources found for upgrade; degrading to tier 3", map[string]interface{}{"library": library, "from": fromVersion, "to": toVersion})
		return emptySpec(library, fromVersion, toVersion), nil
	}

	merged := map[string][]Candidate{}
	for _, doc := range docs {
		cands, extractErr := p.oracle.Extract(ctx, library, fromVersion, toVersion, []Document{doc})
		if extractErr != nil {
			p.logger.Warn("extraction oracle failed for one source", map[string]interface{}{"url": doc.URL, "error": extractErr.Error()})
			continue
		}
		for _, c := range cands {
			merged[c.Change.Key()] = append(merged[c.Change.Key()], c)
		}
	}

	if len(merged) == 0 {
		p.markNegative(key, migerrors.ErrOracleUnavailable)
		return emptySpec(library, fromVersion, toVersion), nil
	}

	spec := &knowledge.MigrationSpec{
		Library:       library,
		SourceRange:   fromVersion,
		Target:        toVersion,
		SchemaVersion: knowledge.CurrentSchemaVersion,
	}
	for k, cands := range merged {
		_ = k
		change := cands[0].Change
		if len(cands) > 1 {
			change.Confidence = knowledge.ConfidenceHigh
		} else {
			change.Confidence = cands[0].Confidence
		}
		spec.BreakingChanges = append(spec.BreakingChanges, change)
	}
	sort.Slice(spec.BreakingChanges, func(i, j int) bool {
		return spec.BreakingChanges[i].ID < spec.BreakingChanges[j].ID
	})

	if err := p.cache.Put(key, spec); err != nil {
		p.logger.Warn("failed to persist knowledge spec cache entry", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return spec, nil
}

func (p *Pipeline) markNegative(key string, code migerrors.Code) {
	ttl := negativeCacheTTL[code]
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	if err := p.negative.Put(key, code, ttl); err != nil {
		p.logger.Warn("failed to record negative cache entry", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func emptySpec(library, from, to string) *knowledge.MigrationSpec {
	return &knowledge.MigrationSpec{Library: library, SourceRange: from, Target: to, SchemaVersion: knowledge.CurrentSchemaVersion}
}
