package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pymigrate/internal/migerrors"
)

const (
	pypiTimeout = 5 * time.Second
	pypiBaseURL = "https://pypi.org/pypi"
)

// pypiPackageInfo is the subset of PyPI's JSON API response this resolver
// needs, mirroring internal/update/check.go's minimal-struct pattern for
// consuming a third-party JSON API (there GitHub Releases, here PyPI).
type pypiPackageInfo struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
}

// VersionResolver looks up the latest published version of a PyPI
// package, for the "to" end of a migration's version range when the user
// hasn't pinned one via adapters.VersionOverride.
type VersionResolver struct {
	client *http.Client
}

// NewVersionResolver builds a VersionResolver with a bounded HTTP client.
func NewVersionResolver() *VersionResolver {
	return &VersionResolver{client: &http.Client{Timeout: pypiTimeout}}
}

// Latest returns the latest published version string for library.
func (r *VersionResolver) Latest(ctx context.Context, library string) (string, error) {
	url := fmt.Sprintf("%s/%s/json", pypiBaseURL, library)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", migerrors.Wrap(migerrors.ErrSourceFetchFailed, "building PyPI request", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", migerrors.Wrap(migerrors.ErrSourceFetchFailed, "querying PyPI", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", migerrors.New(migerrors.ErrUnknownLibrary, fmt.Sprintf("PyPI has no package %q", library))
	}
	if resp.StatusCode != http.StatusOK {
		return "", migerrors.New(migerrors.ErrSourceFetchFailed, fmt.Sprintf("PyPI returned status %d for %q", resp.StatusCode, library))
	}

	var info pypiPackageInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", migerrors.Wrap(migerrors.ErrSourceFetchFailed, "decoding PyPI response", err)
	}
	if info.Info.Version == "" {
		return "", migerrors.New(migerrors.ErrBadVersion, fmt.Sprintf("PyPI response for %q had no version", library))
	}
	return info.Info.Version, nil
}
