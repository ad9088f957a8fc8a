// Package usageindex resolves, per source file and target library, every
// import binding and every reference to a symbol of that library, applying
// the six resolution rules of spec.md §4.3: plain/aliased/from imports,
// wildcard imports (low-confidence catch-all), relative imports, and
// file-scoped matching even for textually-nested imports.
package usageindex

import (
	"strings"

	"pymigrate/internal/pycst"
)

// Role is the syntactic context a reference to a library symbol appears
// in, used by transformer matchers to gate rules (e.g. a method-rename
// rule only fires on Role == RoleCall).
type Role string

const (
	RoleCall            Role = "call"
	RoleDecorator       Role = "decorator"
	RoleAttributeChain  Role = "attribute-chain"
	RoleBaseClass       Role = "base-class"
	RoleDefaultValue    Role = "default-value"
	RoleTypeAnnotation  Role = "type-annotation"
	RoleAssignmentTarget Role = "assignment-target"
	RoleOther           Role = "other"
)

// Usage is one reference to a symbol of the target library, resolved
// through the file's imports and aliases.
type Usage struct {
	NodeID        pycst.NodeID // the reference node itself (the identifier/attribute)
	EnclosingID   pycst.NodeID // the nearest call/decorator/class node that gives Role meaning
	QualifiedName string       // e.g. "pydantic.BaseModel.dict", resolved through the import
	LocalName     string       // the name as written at the reference site
	Role          Role
	LowConfidence bool // wildcard-import or post-rebind reference (spec §4.3 rule 4 and open question (a))
}

// Index is the complete Import/Usage model for one SourceFile against one
// target library (by its import module path, e.g. "pydantic" or
// "sqlalchemy").
type Index struct {
	Tree    *pycst.Tree
	Library string
	Imports []pycst.Import
	Usages  []Usage

	// aliasOf maps a local bound name to the library-qualified path it
	// resolves to (rule 1-3); wildcard is tracked separately because any
	// free identifier becomes a candidate reference under it (rule 4).
	aliasOf  map[string]string
	wildcard bool
	rebound  map[string]bool // rule "open question (a)": name reassigned after import
}

// Build scans tree for every import and reference touching library (the
// top-level module name, e.g. "pydantic"; dotted submodules like
// "sqlalchemy.orm" are matched by prefix).
func Build(tree *pycst.Tree, library string) *Index {
	idx := &Index{
		Tree:    tree,
		Library: library,
		aliasOf: map[string]string{},
		rebound: map[string]bool{},
	}

	for _, imp := range tree.Imports() {
		if !belongsToLibrary(imp.Module, library) {
			continue
		}
		idx.Imports = append(idx.Imports, imp)
		switch imp.Kind {
		case pycst.ImportWildcard:
			idx.wildcard = true
		default:
			local := imp.LocalName()
			idx.aliasOf[local] = qualify(imp)
		}
	}

	if len(idx.Imports) == 0 && !idx.wildcard {
		return idx
	}

	idx.findRebindings()
	idx.collectUsages()
	return idx
}

// belongsToLibrary reports whether an imported module path is the target
// library itself or one of its submodules (e.g. "sqlalchemy.orm" belongs
// to "sqlalchemy"), per spec.md's library-scope gating.
func belongsToLibrary(module, library string) bool {
	if module == library {
		return true
	}
	return strings.HasPrefix(module, library+".")
}

// qualify returns the fully-qualified library symbol an import binds,
// e.g. "from pydantic import BaseModel" -> "pydantic.BaseModel", and
// "import sqlalchemy.orm" -> "sqlalchemy.orm".
func qualify(imp pycst.Import) string {
	if imp.Symbol != "" {
		return imp.Module + "." + imp.Symbol
	}
	return imp.Module
}

// findRebindings implements the documented open question (a): a plain
// assignment to a name already bound by a library import marks every use
// of that name in the file (before or after the assignment) low-confidence
// rather than dropping them.
func (idx *Index) findRebindings() {
	for _, id := range idx.Tree.Find("assignment") {
		target := idx.Tree.ChildByField(id, "left")
		if target == pycst.InvalidNodeID || idx.Tree.Type(target) != "identifier" {
			continue
		}
		name := idx.Tree.Text(target)
		if _, bound := idx.aliasOf[name]; bound {
			idx.rebound[name] = true
		}
	}
}

// collectUsages walks every identifier/attribute reference in the tree and
// resolves it against the import bindings, classifying its syntactic role.
func (idx *Index) collectUsages() {
	for _, id := range idx.Tree.Find("identifier") {
		// Skip identifiers that are themselves part of an import statement;
		// those are bindings, not usages.
		if idx.withinImport(id) {
			continue
		}
		name := idx.Tree.Text(id)
		qualified, ok := idx.aliasOf[name]
		lowConf := false
		if !ok {
			if !idx.wildcard {
				continue
			}
			// Rule 4: wildcard import makes every free identifier a
			// possible, low-confidence reference.
			qualified = idx.Library + "." + name
			lowConf = true
		} else if idx.rebound[name] {
			lowConf = true
		}

		enclosing, role := idx.classify(id)
		idx.Usages = append(idx.Usages, Usage{
			NodeID:        id,
			EnclosingID:   enclosing,
			QualifiedName: idx.extendQualification(id, qualified),
			LocalName:     name,
			Role:          role,
			LowConfidence: lowConf,
		})
	}
}

// extendQualification follows one ".attr" access off the resolved base
// identifier so "BaseModel.dict" resolves to "pydantic.BaseModel.dict" when
// the attribute node's object is this identifier; deeper chains are not
// followed.
func (idx *Index) extendQualification(id pycst.NodeID, base string) string {
	parent := idx.Tree.Parent(id)
	if parent == pycst.InvalidNodeID || idx.Tree.Type(parent) != "attribute" {
		return base
	}
	objectID := idx.Tree.ChildByField(parent, "object")
	if objectID != id {
		return base
	}
	attrID := idx.Tree.ChildByField(parent, "attribute")
	if attrID == pycst.InvalidNodeID {
		return base
	}
	return base + "." + idx.Tree.Text(attrID)
}

// withinImport reports whether id is a descendant of an import statement.
func (idx *Index) withinImport(id pycst.NodeID) bool {
	for p := idx.Tree.Parent(id); p != pycst.InvalidNodeID; p = idx.Tree.Parent(p) {
		switch idx.Tree.Type(p) {
		case "import_statement", "import_from_statement":
			return true
		}
	}
	return false
}

// classify walks up from a reference to find the nearest call, decorator,
// class definition, default-value, annotation, or assignment-target
// context, returning that node and its Role.
func (idx *Index) classify(id pycst.NodeID) (pycst.NodeID, Role) {
	cur := id
	for p := idx.Tree.Parent(cur); p != pycst.InvalidNodeID; cur, p = p, idx.Tree.Parent(p) {
		switch idx.Tree.Type(p) {
		case "call":
			funcID := idx.Tree.ChildByField(p, "function")
			if isAncestorOrSelf(idx.Tree, funcID, id) {
				// A decorator's expression is itself a call for anything
				// written `@foo(...)`; report the decorator, not the call,
				// so a rule gated on RoleDecorator (e.g. a decorator-shape
				// rewrite) can see it.
				if dec := idx.Tree.Parent(p); dec != pycst.InvalidNodeID && idx.Tree.Type(dec) == "decorator" {
					return dec, RoleDecorator
				}
				return p, RoleCall
			}
		case "decorator":
			return p, RoleDecorator
		case "attribute":
			// keep climbing; the outermost attribute/call in the chain
			// will classify the reference
			continue
		case "class_definition":
			supers := idx.Tree.ChildByField(p, "superclasses")
			if supers != pycst.InvalidNodeID && isAncestorOrSelf(idx.Tree, supers, id) {
				return p, RoleBaseClass
			}
			return p, RoleOther
		case "default_parameter":
			valueID := idx.Tree.ChildByField(p, "value")
			if isAncestorOrSelf(idx.Tree, valueID, id) {
				return p, RoleDefaultValue
			}
		case "typed_parameter", "type":
			return p, RoleTypeAnnotation
		case "assignment":
			leftID := idx.Tree.ChildByField(p, "left")
			if isAncestorOrSelf(idx.Tree, leftID, id) {
				return p, RoleAssignmentTarget
			}
			return p, RoleOther
		}
	}
	return pycst.InvalidNodeID, RoleOther
}

func isAncestorOrSelf(t *pycst.Tree, ancestor, node pycst.NodeID) bool {
	if ancestor == pycst.InvalidNodeID {
		return false
	}
	for cur := node; cur != pycst.InvalidNodeID; cur = t.Parent(cur) {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// HasImports reports whether the index resolved any binding (including a
// wildcard) for its library in this file — the gate heuristic rules fall
// back to when a shape can't be resolved through full type inference.
func (idx *Index) HasImports() bool {
	return len(idx.Imports) > 0 || idx.wildcard
}

// CallArgs returns the argument list node of a call usage's enclosing
// node, or InvalidNodeID if u is not a call.
func (idx *Index) CallArgs(u Usage) pycst.NodeID {
	if u.Role != RoleCall {
		return pycst.InvalidNodeID
	}
	return idx.Tree.ChildByField(u.EnclosingID, "arguments")
}
