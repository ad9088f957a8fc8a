package acquisition

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"pymigrate/internal/migerrors"
)

// NegativeCache records acquisition failures (source-fetch failure,
// oracle timeout, oracle unavailable) keyed by (library, from, to), so a
// flapping collaborator isn't retried on every analyse() call within its
// TTL. Generalizes internal/storage's negative-cache-tier/policy-table
// idiom from query lookups to acquisition outcomes.
type NegativeCache struct {
	conn *sql.DB
}

// OpenNegativeCache opens (creating if absent) a SQLite-backed negative
// cache at dbPath.
func OpenNegativeCache(dbPath string) (*NegativeCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, migerrors.Wrap(migerrors.ErrCacheIOFailure, "creating negative cache directory", err)
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, migerrors.Wrap(migerrors.ErrCacheIOFailure, "opening negative cache db", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, migerrors.Wrap(migerrors.ErrCacheIOFailure, "setting negative cache pragma", err)
		}
	}
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS negative_cache (
			key TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)`); err != nil {
		conn.Close()
		return nil, migerrors.Wrap(migerrors.ErrCacheIOFailure, "creating negative_cache table", err)
	}
	return &NegativeCache{conn: conn}, nil
}

// Close releases the underlying database handle.
func (n *NegativeCache) Close() error { return n.conn.Close() }

// Get returns the cached failure code for key if it hasn't expired.
func (n *NegativeCache) Get(key string) (migerrors.Code, bool) {
	var code string
	var expiresAt int64
	err := n.conn.QueryRow(`SELECT code, expires_at FROM negative_cache WHERE key = ?`, key).Scan(&code, &expiresAt)
	if err != nil {
		return "", false
	}
	if time.Now().Unix() > expiresAt {
		return "", false
	}
	return migerrors.Code(code), true
}

// Put records that key failed with code, valid for ttl.
func (n *NegativeCache) Put(key string, code migerrors.Code, ttl time.Duration) error {
	_, err := n.conn.Exec(`
		INSERT INTO negative_cache (key, code, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at
	`, key, string(code), time.Now().Add(ttl).Unix())
	if err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, fmt.Sprintf("recording negative cache entry %q", key), err)
	}
	return nil
}
