package engine

import (
	"strings"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/pycst"
	"pymigrate/internal/risk"
	"pymigrate/internal/transform"
	"pymigrate/internal/usageindex"
)

// applyTier2 rewrites tree generically from spec's BreakingChanges,
// without a hand-coded transform.Rule, per spec.md §4.6's Tier 2. Each
// BreakingChange.Kind maps to one of a small set of generic CST edits;
// a Kind this package doesn't know how to apply generically is skipped
// (left for Tier 3) rather than guessed at.
func applyTier2(tree *pycst.Tree, spec *knowledge.MigrationSpec, confidenceFloor knowledge.Confidence) []risk.TieredChange {
	idx := usageindex.Build(tree, spec.Library)
	var changes []risk.TieredChange

	for _, change := range spec.ByConfidenceDesc() {
		if !change.Confidence.AtLeast(confidenceFloor) {
			continue
		}
		var fired bool
		switch change.Kind {
		case knowledge.KindImportMove:
			fired = applyImportMove(tree, change)
		case knowledge.KindSymbolRename:
			fired = applySymbolRename(tree, idx, change)
		case knowledge.KindMethodRename, knowledge.KindAttributeRename:
			fired = applyMethodRename(tree, idx, change)
		case knowledge.KindArgumentRename:
			fired = applyArgumentRename(tree, change)
		case knowledge.KindArgumentRemoved:
			fired = applyArgumentRemoved(tree, change)
		}
		if fired {
			applyImportBookkeeping(tree, change)
			changes = append(changes, risk.TieredChange{
				Tier: risk.Tier2,
				Change: transform.Change{
					Rule:        "tier2:" + change.ID,
					Kind:        transform.RuleKind(change.Kind),
					Confidence:  change.Confidence,
					Description: change.Explanation,
				},
			})
		}
	}
	return changes
}

// applyImportBookkeeping consults the BreakingChange's declared
// RequiresImports/RemovesImports (internal/knowledge/types.go) once a
// generic Tier-2 rewrite has fired, so a rewrite that introduces a new
// symbol also gets its import added, and one that drops a symbol drops its
// now-dead import — the generic counterpart of what each hand-coded
// Tier-1 transform.Rule does inline via pycst.EnsureImport.
func applyImportBookkeeping(tree *pycst.Tree, change knowledge.BreakingChange) {
	for _, spec := range change.RequiresImports {
		if _, err := tree.EnsureImport(spec.Module, spec.Names, "tier2-requires-import:"+change.ID); err != nil {
			continue
		}
	}
	if len(change.RemovesImports) == 0 {
		return
	}
	drops := make([]pycst.ImportDrop, len(change.RemovesImports))
	for i, spec := range change.RemovesImports {
		drops[i] = pycst.ImportDrop{Module: spec.Module, Names: spec.Names}
	}
	_ = tree.RemoveImportsMatching(drops, "tier2-removes-import:"+change.ID)
}

// applyImportMove rewrites every import of change.Match.Symbol's module
// to change.Replacement.Symbol, the module-level generalization of
// transform's sqlalchemy-declarative-import-move rule.
func applyImportMove(tree *pycst.Tree, change knowledge.BreakingChange) bool {
	fired := false
	moved := map[pycst.NodeID]bool{}
	for _, imp := range tree.Imports() {
		if imp.Module != change.Match.Symbol {
			continue
		}
		target, text := imp.NameID, rewrittenModulePath(imp, change.Replacement.Symbol)
		if tree.Type(imp.StmtID) == "import_from_statement" {
			// A from-import's NameID is the imported symbol; the module path
			// is the statement's first named child, shared by all its bindings.
			if moved[imp.StmtID] {
				continue
			}
			moved[imp.StmtID] = true
			target, text = tree.NamedChildren(imp.StmtID)[0], change.Replacement.Symbol
		}
		if err := tree.ReplaceNode(target, []byte(text), "tier2-import-move:"+change.ID); err == nil {
			fired = true
		}
	}
	return fired
}

// rewrittenModulePath preserves an alias suffix while swapping the module
// prefix, mirroring the text tree.Text(imp.NameID) already has.
func rewrittenModulePath(imp pycst.Import, newModule string) string {
	if imp.Kind == pycst.ImportAliased && imp.Symbol == "" {
		return newModule + " as " + imp.Alias
	}
	return newModule
}

// applySymbolRename renames every usage of a bare library symbol (a
// function, class, or constant referenced directly, not through a method
// call) from change.Match.Symbol's final segment to
// change.Replacement.Symbol.
func applySymbolRename(tree *pycst.Tree, idx *usageindex.Index, change knowledge.BreakingChange) bool {
	fired := false
	for _, u := range idx.Usages {
		if u.QualifiedName != change.Match.Symbol {
			continue
		}
		if err := tree.ReplaceNode(u.NodeID, []byte(change.Replacement.Symbol), "tier2-symbol-rename:"+change.ID); err == nil {
			fired = true
		}
	}
	return fired
}

// applyMethodRename uses a zero-type-inference heuristic like
// transform.pydanticMethodRename's, except that calls with any arguments
// match: any call to `.<oldMethod>(...)` while the library is lexically in
// scope is treated as a candidate. Confidence gating is the caller's check
// of the BreakingChange's own confidence against confidenceFloor.
func applyMethodRename(tree *pycst.Tree, idx *usageindex.Index, change knowledge.BreakingChange) bool {
	if !idx.HasImports() {
		return false
	}
	oldMethod := lastSegment(change.Match.Symbol)
	fired := false
	for _, callID := range tree.Find("call") {
		fn := tree.ChildByField(callID, "function")
		if fn == pycst.InvalidNodeID || tree.Type(fn) != "attribute" {
			continue
		}
		attrID := tree.ChildByField(fn, "attribute")
		if attrID == pycst.InvalidNodeID || tree.Text(attrID) != oldMethod {
			continue
		}
		if err := tree.ReplaceNode(attrID, []byte(change.Replacement.Symbol), "tier2-method-rename:"+change.ID); err == nil {
			fired = true
		}
	}
	return fired
}

// applyArgumentRename renames a keyword argument at every call site whose
// called name matches change.Match.OwnerHint (or any call, if unset).
func applyArgumentRename(tree *pycst.Tree, change knowledge.BreakingChange) bool {
	fired := false
	for _, callID := range tree.Find("call") {
		if change.Match.OwnerHint != "" && calledName(tree, callID) != change.Match.OwnerHint {
			continue
		}
		args := tree.ChildByField(callID, "arguments")
		if args == pycst.InvalidNodeID {
			continue
		}
		for _, arg := range tree.NamedChildren(args) {
			if tree.Type(arg) != "keyword_argument" {
				continue
			}
			nameID := tree.ChildByField(arg, "name")
			if nameID == pycst.InvalidNodeID || tree.Text(nameID) != change.Match.ArgName {
				continue
			}
			if err := tree.ReplaceNode(nameID, []byte(change.Replacement.ArgName), "tier2-argument-rename:"+change.ID); err == nil {
				fired = true
			}
		}
	}
	return fired
}

// applyArgumentRemoved drops a keyword argument (and its preceding comma)
// at every matching call site.
func applyArgumentRemoved(tree *pycst.Tree, change knowledge.BreakingChange) bool {
	fired := false
	for _, callID := range tree.Find("call") {
		if change.Match.OwnerHint != "" && calledName(tree, callID) != change.Match.OwnerHint {
			continue
		}
		args := tree.ChildByField(callID, "arguments")
		if args == pycst.InvalidNodeID {
			continue
		}
		kept := argTextsWithout(tree, args, change.Match.ArgName)
		if kept == nil {
			continue
		}
		if err := tree.ReplaceNode(args, []byte("("+strings.Join(kept, ", ")+")"), "tier2-argument-removed:"+change.ID); err == nil {
			fired = true
		}
	}
	return fired
}

// argTextsWithout returns the text of every argument in args except the
// keyword argument named drop, or nil if no such argument was present.
func argTextsWithout(tree *pycst.Tree, args pycst.NodeID, drop string) []string {
	found := false
	var kept []string
	for _, arg := range tree.NamedChildren(args) {
		if tree.Type(arg) == "keyword_argument" {
			nameID := tree.ChildByField(arg, "name")
			if nameID != pycst.InvalidNodeID && tree.Text(nameID) == drop {
				found = true
				continue
			}
		}
		kept = append(kept, tree.Text(arg))
	}
	if !found {
		return nil
	}
	return kept
}

func calledName(tree *pycst.Tree, callID pycst.NodeID) string {
	fn := tree.ChildByField(callID, "function")
	if fn == pycst.InvalidNodeID {
		return ""
	}
	switch tree.Type(fn) {
	case "identifier":
		return tree.Text(fn)
	case "attribute":
		attrID := tree.ChildByField(fn, "attribute")
		if attrID != pycst.InvalidNodeID {
			return tree.Text(attrID)
		}
	}
	return ""
}

func lastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}
