// Package patchstore persists proposed and applied migration patches
// under "<project-root>/.pymigrate/": one session.json describing the
// in-flight MigrationSession's patches, one "<hash>.patch" unified-diff
// file per patch under patches/, and the knowledge-spec cache under
// cache/ (owned by internal/acquisition, sharing this root). Grounded on
// internal/storage/db.go and internal/diff/{hasher,gitdiff}.go, generalized
// from a symbol index to a patch queue.
package patchstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pymigrate/internal/migerrors"
)

const (
	rootDirName    = ".pymigrate"
	patchesDirName = "patches"
	cacheDirName   = "cache"
	sessionFile    = "session.json"
)

// Store roots all on-disk patch/session state at "<projectRoot>/.pymigrate".
type Store struct {
	projectRoot string
}

// Open ensures the .pymigrate layout exists under projectRoot and returns
// a Store rooted there.
func Open(projectRoot string) (*Store, error) {
	s := &Store{projectRoot: projectRoot}
	for _, dir := range []string{s.Root(), s.PatchesDir(), s.CacheDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, migerrors.Wrap(migerrors.ErrCacheIOFailure, fmt.Sprintf("creating %s", dir), err)
		}
	}
	return s, nil
}

// Root returns "<project-root>/.pymigrate".
func (s *Store) Root() string { return filepath.Join(s.projectRoot, rootDirName) }

// PatchesDir returns "<project-root>/.pymigrate/patches".
func (s *Store) PatchesDir() string { return filepath.Join(s.Root(), patchesDirName) }

// CacheDir returns "<project-root>/.pymigrate/cache", shared with
// internal/acquisition's Cache/NegativeCache/DocumentCache.
func (s *Store) CacheDir() string { return filepath.Join(s.Root(), cacheDirName) }

func (s *Store) sessionPath() string { return filepath.Join(s.Root(), sessionFile) }

func (s *Store) patchPath(hash string) string {
	return filepath.Join(s.PatchesDir(), hash+".patch")
}

// SavePatch writes p's unified diff to patches/<hash>.patch with the
// durable temp-file-then-rename pattern internal/acquisition.Cache.Put
// uses, so a crash mid-write never leaves a truncated patch file behind.
func (s *Store) SavePatch(p *Patch) error {
	final := s.patchPath(p.Hash)
	tmp := final + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.WriteFile(tmp, p.Diff, 0o644); err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "writing patch file", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "renaming patch file into place", err)
	}
	return nil
}

// LoadPatchDiff reads back the unified diff text previously saved for
// hash.
func (s *Store) LoadPatchDiff(hash string) ([]byte, error) {
	data, err := os.ReadFile(s.patchPath(hash))
	if err != nil {
		return nil, migerrors.Wrap(migerrors.ErrReadFailed, "reading patch file", err)
	}
	return data, nil
}

// ApplyToDisk writes p.NewSource over the file at <project-root>/p.Path.
// If backup is true, the pre-patch bytes are first copied to path+".bak".
// The write is atomic (temp file in the same directory, then rename), and
// idempotent: if the file on disk already matches p.NewSource byte for
// byte, ApplyToDisk returns immediately without touching mtime, matching
// spec.md §4.8's "re-applying an already-applied patch is a no-op".
func (s *Store) ApplyToDisk(p *Patch, backup bool) error {
	target := filepath.Join(s.projectRoot, p.Path)

	current, err := os.ReadFile(target)
	if err == nil && string(current) == string(p.NewSource) {
		p.State = StateApplied
		return nil
	}

	if backup {
		if err := os.WriteFile(target+".bak", p.OldSource, 0o644); err != nil {
			p.State = StateFailed
			return migerrors.Wrap(migerrors.ErrCacheIOFailure, "writing patch backup", err)
		}
	}

	tmp := target + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.WriteFile(tmp, p.NewSource, 0o644); err != nil {
		p.State = StateFailed
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "writing patched file", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		p.State = StateFailed
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "renaming patched file into place", err)
	}
	p.State = StateApplied
	return nil
}

// sessionSchema is the self-describing header every session.json carries,
// matching internal/acquisition's cache-entry convention.
type sessionSchema struct {
	SchemaVersion int              `json:"schemaVersion"`
	Session       *SessionSummary `json:"session"`
}

// SessionSummary is the persisted, serializable view of a
// internal/engine.Session: enough to resume `pymigrate status`
// or `pymigrate apply` against patches already proposed in a prior run.
type SessionSummary struct {
	ID          string         `json:"id"`
	ProjectRoot string         `json:"projectRoot"`
	TierPolicy  string         `json:"tierPolicy"`
	Patches     []PatchSummary `json:"patches"`
}

// PatchSummary is the on-disk representation of one Patch: the diff body
// itself lives in patches/<hash>.patch, referenced here by hash.
type PatchSummary struct {
	Path           string `json:"path"`
	Hash           string `json:"hash"`
	State          State  `json:"state"`
	RejectedReason string `json:"rejectedReason,omitempty"`
	ChangeCount    int    `json:"changeCount"`
}

const sessionSchemaVersion = 1

// SaveSession persists summary to session.json with a durable rename.
func (s *Store) SaveSession(summary *SessionSummary) error {
	entry := sessionSchema{SchemaVersion: sessionSchemaVersion, Session: summary}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "encoding session", err)
	}
	final := s.sessionPath()
	tmp := final + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "writing session file", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return migerrors.Wrap(migerrors.ErrCacheIOFailure, "renaming session file into place", err)
	}
	return nil
}

// LoadSession reads back a previously saved session, refusing (per
// spec.md §6) any schema version other than the current one.
func (s *Store) LoadSession() (*SessionSummary, error) {
	data, err := os.ReadFile(s.sessionPath())
	if err != nil {
		return nil, migerrors.Wrap(migerrors.ErrSessionNotFound, "reading session file", err)
	}
	var entry sessionSchema
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, migerrors.Wrap(migerrors.ErrReadFailed, "decoding session file", err)
	}
	if entry.SchemaVersion != sessionSchemaVersion {
		return nil, migerrors.New(migerrors.ErrUnknownSchemaVersion, fmt.Sprintf("session schema version %d not supported", entry.SchemaVersion))
	}
	return entry.Session, nil
}

// Summarize converts a Patch into its persisted PatchSummary.
func Summarize(p *Patch) PatchSummary {
	return PatchSummary{
		Path:           p.Path,
		Hash:           p.Hash,
		State:          p.State,
		RejectedReason: p.RejectedReason,
		ChangeCount:    len(p.Changes),
	}
}
