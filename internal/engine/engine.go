package engine

import (
	"context"
	"strings"

	"pymigrate/internal/acquisition"
	"pymigrate/internal/config"
	"pymigrate/internal/knowledge"
	"pymigrate/internal/logging"
	"pymigrate/internal/patchstore"
	"pymigrate/internal/pycst"
	"pymigrate/internal/risk"
	"pymigrate/internal/scanner"
	"pymigrate/internal/transform"
)

// VersionPair is the (installed, target) version range for one library
// being migrated, supplied by internal/adapters' dependency lister and
// version resolver.
type VersionPair struct {
	From string
	To   string
}

// Engine runs the tiered migration algorithm over a scanned project.
type Engine struct {
	cfg      *config.EngineConfig
	registry map[string]*transform.Transformer
	acquirer *acquisition.Pipeline
	oracle   RewriteOracle
	logger   *logging.Logger
}

// New builds an Engine. acquirer and oracle may be nil, which simply
// disables Tier 2 and Tier 3 respectively (every file falls back only as
// far as a nil collaborator allows).
func New(cfg *config.EngineConfig, registry map[string]*transform.Transformer, acquirer *acquisition.Pipeline, oracle RewriteOracle, logger *logging.Logger) *Engine {
	return &Engine{cfg: cfg, registry: registry, acquirer: acquirer, oracle: oracle, logger: logger}
}

// Analyse runs Tier 1/2/3 over every scanned file for the requested
// libraries and returns the resulting Session: one Patch per changed
// file, already run through risk.Validate, plus the tiered changes that
// produced each patch for the risk score. Per-file work is parallelized
// across cfg.WorkerCount workers, matching internal/jobs/runner.go's
// worker-count configuration.
func (e *Engine) Analyse(ctx context.Context, files []*scanner.SourceFile, libraries []string, versions map[string]VersionPair) (*Session, error) {
	policy, err := ParseTierPolicy(e.cfg.TierPolicy)
	if err != nil {
		return nil, err
	}
	floor := confidenceFromString(e.cfg.ConfidenceFloor)

	sess := &Session{
		ID:         NewSessionID(),
		Libraries:  libraries,
		TierPolicy: policy,
		Specs:      map[string]*knowledge.MigrationSpec{},
	}

	// Tier 2 specs are acquired once per library (not per file) and
	// shared across the worker pool, since acquisition.Pipeline already
	// caches internally and a second concurrent Acquire for the same key
	// would just duplicate the fetch+extract work.
	if policy != TierPolicyTier1Only && e.acquirer != nil {
		for _, lib := range libraries {
			if _, ok := e.registry[lib]; ok {
				continue // has a Tier-1 transformer; only consulted as fallback below
			}
			vp := versions[lib]
			spec, acqErr := e.acquirer.Acquire(ctx, lib, vp.From, vp.To)
			if acqErr != nil {
				e.logger.Warn("tier 2 acquisition failed", map[string]interface{}{"library": lib, "error": acqErr.Error()})
				continue
			}
			sess.Specs[lib] = spec
		}
	}

	results := runPool(files, e.cfg.WorkerCount, func(f *scanner.SourceFile) FileResult {
		return e.analyseFile(ctx, f, libraries, versions, sess.Specs, policy, floor)
	})
	sess.Results = results
	return sess, nil
}

func (e *Engine) analyseFile(ctx context.Context, f *scanner.SourceFile, libraries []string, versions map[string]VersionPair, specs map[string]*knowledge.MigrationSpec, policy TierPolicy, floor knowledge.Confidence) FileResult {
	tree := f.Tree
	oldSource := append([]byte(nil), tree.Source...)
	present := presentLibraries(tree, libraries)
	if len(present) == 0 {
		return FileResult{Path: f.Rel}
	}

	var fileChanges []transform.Change
	var tiered []risk.TieredChange

	for _, lib := range orderedLibraries(present) {
		fired := false

		if transformer, ok := e.registry[lib]; ok {
			changes, errs := transformer.Apply(tree, floor)
			for _, err := range errs {
				e.logger.Warn("tier 1 rule failed", map[string]interface{}{"file": f.Rel, "library": lib, "error": err.Error()})
			}
			if len(changes) > 0 {
				fired = true
				fileChanges = append(fileChanges, changes...)
				for _, c := range changes {
					tiered = append(tiered, risk.TieredChange{Tier: risk.Tier1, Change: c})
				}
			}
		}

		if !fired && policy.allows(risk.Tier2) && specs[lib] != nil {
			changes := applyTier2(tree, specs[lib], floor)
			if len(changes) > 0 {
				fired = true
				for _, tc := range changes {
					fileChanges = append(fileChanges, tc.Change)
					tiered = append(tiered, tc)
				}
			}
		}

		if !fired && policy.allows(risk.Tier3) && e.oracle != nil {
			newTree, oracleChanges, err := e.runOracle(ctx, tree, lib, versions[lib])
			if err != nil {
				e.logger.Warn("tier 3 oracle failed", map[string]interface{}{"file": f.Rel, "library": lib, "error": err.Error()})
				continue
			}
			if newTree != nil {
				tree = newTree
				fileChanges = append(fileChanges, oracleChanges...)
				for _, c := range oracleChanges {
					tiered = append(tiered, risk.TieredChange{Tier: risk.Tier3, Change: c})
				}
			}
		}
	}

	if len(fileChanges) > 0 {
		if err := tree.RemoveUnusedImports(tree.UsedIdentifierNames(), "unused-import-cleanup"); err != nil {
			e.logger.Warn("unused import cleanup failed", map[string]interface{}{"file": f.Rel, "error": err.Error()})
		}
	}

	newSource, err := e.commit(tree, f.Rel)
	if err != nil {
		return FileResult{Path: f.Rel, Err: err}
	}
	if newSource == nil || string(newSource) == string(oldSource) {
		return FileResult{Path: f.Rel}
	}

	patch, err := patchstore.NewPatch(f.Rel, oldSource, newSource, fileChanges)
	if err != nil {
		return FileResult{Path: f.Rel, Err: err}
	}
	if err := risk.Validate(patch); err != nil {
		e.logger.Warn("patch failed post-migration re-parse; rejected", map[string]interface{}{"file": f.Rel, "error": err.Error()})
	}
	return FileResult{Path: f.Rel, Patch: patch, Changes: tiered}
}

// commit applies tree's queued edits, if any, and returns the resulting
// bytes. A tree with no pending edits (including one the oracle replaced
// outright, already parsed) is rendered as-is.
func (e *Engine) commit(tree *pycst.Tree, path string) ([]byte, error) {
	if !tree.HasPendingEdits() {
		return tree.Render(), nil
	}
	newTree, _, err := tree.Commit()
	if err != nil {
		return nil, err
	}
	return newTree.Source, nil
}

// runOracle commits tree's pending edits (so the oracle sees the effect
// of any Tier-1/2 rewrites already queued for other libraries in this
// file), calls the oracle on the resulting bytes, and reparses its output
// into a fresh Tree other libraries' rules continue from.
func (e *Engine) runOracle(ctx context.Context, tree *pycst.Tree, library string, vp VersionPair) (*pycst.Tree, []transform.Change, error) {
	current, err := e.commit(tree, tree.Filename)
	if err != nil {
		return nil, nil, err
	}
	rewritten, changes, err := e.oracle.Rewrite(ctx, library, vp.From, vp.To, current)
	if err != nil {
		return nil, nil, err
	}
	if rewritten == nil || string(rewritten) == string(current) {
		return nil, nil, nil
	}
	newTree, _, parseErr := pycst.Parse(rewritten, tree.Filename)
	if parseErr != nil {
		return nil, nil, parseErr
	}
	return newTree, changes, nil
}

func presentLibraries(tree *pycst.Tree, libraries []string) map[string]bool {
	present := map[string]bool{}
	for _, imp := range tree.Imports() {
		for _, lib := range libraries {
			if imp.Module == lib || strings.HasPrefix(imp.Module, lib+".") {
				present[lib] = true
			}
		}
	}
	return present
}

// orderedLibraries returns present's keys in LibraryOrder, followed by any
// requested library LibraryOrder doesn't know about (in map iteration
// order, which is fine: they have no declared interaction to preserve).
func orderedLibraries(present map[string]bool) []string {
	var out []string
	seen := map[string]bool{}
	for _, lib := range LibraryOrder {
		if present[lib] {
			out = append(out, lib)
			seen[lib] = true
		}
	}
	for lib := range present {
		if !seen[lib] {
			out = append(out, lib)
		}
	}
	return out
}

func confidenceFromString(s string) knowledge.Confidence {
	switch strings.ToLower(s) {
	case "high":
		return knowledge.ConfidenceHigh
	case "low":
		return knowledge.ConfidenceLow
	default:
		return knowledge.ConfidenceMedium
	}
}
