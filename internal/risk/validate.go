package risk

import (
	"fmt"

	"pymigrate/internal/patchstore"
	"pymigrate/internal/pycst"
)

// Validate runs the post-migration re-parse check spec.md §4.7 requires
// before a Patch may move from Proposed to Ready: the patch's NewSource
// must parse cleanly on its own, independent of pycst.Commit's parse-check
// on the tree that produced it, since a Patch can be constructed directly
// from arbitrary bytes (e.g. a Tier-3 oracle rewrite) without ever going
// through a Tree at all.
//
// A patch that fails re-parse is marked Rejected and never reaches
// ApplyToDisk.
func Validate(p *patchstore.Patch) error {
	if _, _, err := pycst.Parse(p.NewSource, p.Path); err != nil {
		p.Reject(fmt.Sprintf("post-migration re-parse failed: %v", err))
		return err
	}
	p.Ready()
	return nil
}

// ValidateAll runs Validate over every patch, returning the subset still
// Ready afterward. Rejected patches remain in patches (for `pymigrate
// status` reporting) but are excluded from the returned slice.
func ValidateAll(patches []*patchstore.Patch) []*patchstore.Patch {
	var ready []*patchstore.Patch
	for _, p := range patches {
		if err := Validate(p); err == nil {
			ready = append(ready, p)
		}
	}
	return ready
}
