package patchstore

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"pymigrate/internal/transform"
)

// State is the Patch lifecycle spec.md §4.8 defines: a freshly rendered
// diff starts Proposed, moves to Ready once it passes the post-migration
// re-parse check (or Rejected if it fails), and a Ready patch moves to
// Applied or Failed when written to disk.
type State string

const (
	StateProposed State = "proposed"
	StateReady    State = "ready"
	StateRejected State = "rejected"
	StateApplied  State = "applied"
	StateFailed   State = "failed"
)

// Patch is one file's proposed rewrite: the unified diff text, the content
// hash identifying it in .pymigrate/patches/, and the Tier-1/2/3 changes
// that produced it, carried through for the risk score and for `pymigrate
// diff`/`status` reporting.
type Patch struct {
	Path       string
	Hash       string
	Diff       []byte
	OldSource  []byte
	NewSource  []byte
	State      State
	Changes    []transform.Change
	RejectedReason string
}

// NewPatch builds a Proposed Patch from old/new file contents, rendering
// the unified diff and computing its content hash. It does not validate
// the new source; callers run risk.Validate (the post-migration re-parse
// check) before moving the patch to Ready.
func NewPatch(path string, oldSource, newSource []byte, changes []transform.Change) (*Patch, error) {
	diff, err := RenderUnified(path, oldSource, newSource)
	if err != nil {
		return nil, err
	}
	return &Patch{
		Path:      path,
		Hash:      ContentHash(path, newSource),
		Diff:      diff,
		OldSource: oldSource,
		NewSource: newSource,
		State:     StateProposed,
		Changes:   changes,
	}, nil
}

// ContentHash computes the blake2b-256 content hash used as a patch's
// identity in .pymigrate/patches/<hash>.patch, generalizing
// internal/diff/hasher.go's symbol/ref/call-edge hashing from index
// snapshots to patch content: path and the post-patch bytes both feed the
// hash, so two files with identical new contents but different paths
// never collide.
func ContentHash(path string, newSource []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(newSource)
	return hex.EncodeToString(h.Sum(nil))
}

// Reject marks the patch Rejected with reason, per the post-migration
// re-parse check in internal/risk.
func (p *Patch) Reject(reason string) {
	p.State = StateRejected
	p.RejectedReason = reason
}

// Ready marks a Proposed patch Ready after it passes validation.
func (p *Patch) Ready() { p.State = StateReady }
