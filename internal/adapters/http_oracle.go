package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pymigrate/internal/acquisition"
	"pymigrate/internal/migerrors"
	"pymigrate/internal/transform"
)

// httpCollaborator is the shared plumbing for the three HTTP-backed
// oracle adapters below: a base URL, a bounded client, and a QuotaGate
// consulted before every request.
type httpCollaborator struct {
	baseURL string
	client  *http.Client
	quota   *QuotaGate
}

func newHTTPCollaborator(baseURL string, timeout time.Duration, quota *QuotaGate) httpCollaborator {
	return httpCollaborator{baseURL: baseURL, client: &http.Client{Timeout: timeout}, quota: quota}
}

func (c *httpCollaborator) postJSON(ctx context.Context, path string, body, out interface{}) error {
	if err := c.quota.Allow(); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return migerrors.Wrap(migerrors.ErrSourceFetchFailed, "encoding request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return migerrors.Wrap(migerrors.ErrSourceFetchFailed, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.quota.APIKey())

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return migerrors.Wrap(migerrors.ErrOracleTimeout, "request timed out", err)
		}
		return migerrors.Wrap(migerrors.ErrOracleUnavailable, "collaborator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return migerrors.New(migerrors.ErrOracleUnavailable, fmt.Sprintf("collaborator returned status %d: %s", resp.StatusCode, data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return migerrors.Wrap(migerrors.ErrOracleUnavailable, "decoding response", err)
	}
	return nil
}

// HTTPSourceFetcher implements acquisition.SourceFetcher against a
// changelog/migration-guide aggregation endpoint.
type HTTPSourceFetcher struct {
	httpCollaborator
}

// NewHTTPSourceFetcher builds a HTTPSourceFetcher.
func NewHTTPSourceFetcher(baseURL string, timeout time.Duration, quota *QuotaGate) *HTTPSourceFetcher {
	return &HTTPSourceFetcher{newHTTPCollaborator(baseURL, timeout, quota)}
}

type sourceFetchRequest struct {
	Library string `json:"library"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Fetch requests changelog documents for library's upgrade from from to
// to.
func (f *HTTPSourceFetcher) Fetch(ctx context.Context, library, fromVersion, toVersion string) ([]acquisition.Document, error) {
	var docs []acquisition.Document
	err := f.postJSON(ctx, "/v1/sources", sourceFetchRequest{Library: library, From: fromVersion, To: toVersion}, &docs)
	return docs, err
}

// HTTPExtractionOracle implements acquisition.ExtractionOracle against a
// changelog-to-BreakingChange extraction endpoint.
type HTTPExtractionOracle struct {
	httpCollaborator
}

// NewHTTPExtractionOracle builds a HTTPExtractionOracle.
func NewHTTPExtractionOracle(baseURL string, timeout time.Duration, quota *QuotaGate) *HTTPExtractionOracle {
	return &HTTPExtractionOracle{newHTTPCollaborator(baseURL, timeout, quota)}
}

type extractRequest struct {
	Library string                 `json:"library"`
	From    string                 `json:"from"`
	To      string                 `json:"to"`
	Docs    []acquisition.Document `json:"docs"`
}

// Extract requests structured BreakingChange candidates for docs.
func (o *HTTPExtractionOracle) Extract(ctx context.Context, library, fromVersion, toVersion string, docs []acquisition.Document) ([]acquisition.Candidate, error) {
	var candidates []acquisition.Candidate
	err := o.postJSON(ctx, "/v1/extract", extractRequest{Library: library, From: fromVersion, To: toVersion, Docs: docs}, &candidates)
	return candidates, err
}

// HTTPRewriteOracle implements engine.RewriteOracle against a whole-file
// rewrite endpoint, the Tier 3 fallback of spec.md §4.6.
type HTTPRewriteOracle struct {
	httpCollaborator
}

// NewHTTPRewriteOracle builds a HTTPRewriteOracle.
func NewHTTPRewriteOracle(baseURL string, timeout time.Duration, quota *QuotaGate) *HTTPRewriteOracle {
	return &HTTPRewriteOracle{newHTTPCollaborator(baseURL, timeout, quota)}
}

type rewriteRequest struct {
	Library string `json:"library"`
	From    string `json:"from"`
	To      string `json:"to"`
	Source  string `json:"source"`
}

type rewriteResponse struct {
	Source  string             `json:"source"`
	Changes []rewriteChangeDTO `json:"changes"`
}

type rewriteChangeDTO struct {
	Description string `json:"description"`
	Line        int    `json:"line"`
}

// Rewrite requests a whole-file rewrite of source for library's upgrade.
func (o *HTTPRewriteOracle) Rewrite(ctx context.Context, library, fromVersion, toVersion string, source []byte) ([]byte, []transform.Change, error) {
	var resp rewriteResponse
	err := o.postJSON(ctx, "/v1/rewrite", rewriteRequest{Library: library, From: fromVersion, To: toVersion, Source: string(source)}, &resp)
	if err != nil {
		return nil, nil, err
	}

	changes := make([]transform.Change, 0, len(resp.Changes))
	for _, c := range resp.Changes {
		changes = append(changes, transform.Change{
			Rule:        "tier3-oracle",
			Kind:        transform.RuleKind("oracle-rewrite"),
			Confidence:  "low",
			Description: c.Description,
			Line:        c.Line,
		})
	}
	return []byte(resp.Source), changes, nil
}
