package acquisition

import (
	"os"
	"testing"

	"pymigrate/internal/knowledge"
)

func TestCacheGetMissReturnsFalse(t *testing.T) {
	c, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if _, ok := c.Get("pydantic_1.0_2.0"); ok {
		t.Fatal("expected a miss for a key never put")
	}
}

func TestCachePutThenGetRoundTrips(t *testing.T) {
	c, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	spec := &knowledge.MigrationSpec{
		Library:       "pydantic",
		SourceRange:   ">=1.0,<2.0",
		Target:        "2.x",
		SchemaVersion: knowledge.CurrentSchemaVersion,
		BreakingChanges: []knowledge.BreakingChange{
			{ID: "bc1", Kind: knowledge.KindMethodRename},
		},
	}
	key := spec.CacheKey()
	if err := c.Put(key, spec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if got.Library != "pydantic" || len(got.BreakingChanges) != 1 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestCacheGetRefusesUnknownSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	// Write a cache entry with a future schema version directly, since Put
	// always stamps the current version; Get must still refuse to read a
	// file written by a newer pymigrate than this one.
	stale := []byte(`{"schemaVersion": 999, "spec": {"library": "pydantic"}}`)
	if err := os.WriteFile(c.path("stale-key"), stale, 0o644); err != nil {
		t.Fatalf("seed stale cache entry: %v", err)
	}
	if _, ok := c.Get("stale-key"); ok {
		t.Fatal("expected Get to refuse an entry whose schema version doesn't match CurrentSchemaVersion")
	}
}
