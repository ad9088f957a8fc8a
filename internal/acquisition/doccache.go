package acquisition

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"pymigrate/internal/migerrors"
)

// DocumentCache persists the raw fetched changelog/migration-guide
// documents for a version pair, gzip-compressed, so re-running acquisition
// against an already-populated spec cache (e.g. after a manual cache
// edit) doesn't require re-fetching from upstream. This is a budget
// concern layered onto acquisition the way internal/compression layers a
// response-size budget onto query results; here the payload is changelog
// text rather than a query response.
type DocumentCache struct {
	dir string
}

// OpenDocumentCache ensures dir exists and returns a DocumentCache rooted
// there.
func OpenDocumentCache(dir string) (*DocumentCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, migerrors.Wrap(migerrors.ErrCacheIOFailure, "creating document cache directory", err)
	}
	return &DocumentCache{dir: dir}, nil
}

func (d *DocumentCache) path(key string) string {
	return filepath.Join(d.dir, key+".docs.gz")
}

// Put gzip-compresses and writes docs for key.
func (d *DocumentCache) Put(key string, docs []Document) error {
	raw, err := json.Marshal(docs)
	if err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "encoding fetched documents", err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "compressing fetched documents", err)
	}
	if err := gw.Close(); err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "finalizing compressed documents", err)
	}
	return os.WriteFile(d.path(key), buf.Bytes(), 0o644)
}

// Get reads and decompresses the cached documents for key, if present.
func (d *DocumentCache) Get(key string) ([]Document, bool) {
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		return nil, false
	}
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer gr.Close()
	raw, err := io.ReadAll(gr)
	if err != nil {
		return nil, false
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, false
	}
	return docs, true
}
