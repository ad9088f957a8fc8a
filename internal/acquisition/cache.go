package acquisition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/migerrors"
)

// cacheFileSchema is the self-describing header every cache entry carries,
// per spec.md §6: "Versioned schema headers on every file; refuse to read
// unknown versions."
type cacheFileSchema struct {
	SchemaVersion int                     `json:"schemaVersion"`
	Spec          *knowledge.MigrationSpec `json:"spec"`
}

// Cache is the positive MigrationSpec cache,
// "<project-root>/.pymigrate/cache/<library>_<from>_<to>.spec", keyed by
// (library, from-version, to-version) with a long (months-scale) TTL —
// spec.md §4.5 step 5 says invalidation is manual, so no TTL is enforced
// here at all; a cache entry is valid until its directory is cleared.
type Cache struct {
	dir string
}

// OpenCache ensures dir exists and returns a Cache rooted there.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, migerrors.Wrap(migerrors.ErrCacheIOFailure, "creating knowledge cache directory", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".spec")
}

// Get reads a cached MigrationSpec, refusing (not guessing at) any schema
// version other than knowledge.CurrentSchemaVersion.
func (c *Cache) Get(key string) (*knowledge.MigrationSpec, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var entry cacheFileSchema
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.SchemaVersion != knowledge.CurrentSchemaVersion {
		return nil, false
	}
	return entry.Spec, entry.Spec != nil
}

// Put persists spec with a durable-rename pattern: write to a temp file in
// the same directory, then rename over the target, so a crash mid-write
// never leaves a corrupt cache entry for a concurrent reader to pick up.
func (c *Cache) Put(key string, spec *knowledge.MigrationSpec) error {
	entry := cacheFileSchema{SchemaVersion: knowledge.CurrentSchemaVersion, Spec: spec}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "encoding knowledge spec cache entry", err)
	}

	final := c.path(key)
	tmp := final + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "writing knowledge spec cache entry", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "renaming knowledge spec cache entry into place", err)
	}
	return nil
}
