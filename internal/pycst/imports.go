//go:build cgo

package pycst

import "strings"

// ImportKind classifies one bound name produced by an import statement.
type ImportKind string

const (
	ImportModule   ImportKind = "module"   // import x
	ImportAliased  ImportKind = "aliased"  // import x as y / from x import a as b
	ImportFrom     ImportKind = "from"     // from x import a
	ImportWildcard ImportKind = "wildcard" // from x import *
	ImportRelative ImportKind = "relative" // from . import x / from .x import y
)

// Import describes one name bound into file scope by an import statement.
type Import struct {
	StmtID  NodeID // the import_statement / import_from_statement node
	NameID  NodeID // the dotted_name/aliased_import/wildcard node this binding came from
	Kind    ImportKind
	Module  string // "sqlalchemy.orm" for both `import sqlalchemy.orm` and `from sqlalchemy.orm import X`
	Symbol  string // imported attribute for from-imports, "" for plain module imports
	Alias   string // local bound name, empty means "use the natural name"
}

// LocalName returns the name this import binds into local scope.
func (i Import) LocalName() string {
	if i.Alias != "" {
		return i.Alias
	}
	if i.Symbol != "" {
		return i.Symbol
	}
	// Plain "import a.b.c" binds the top-level package name "a".
	if idx := strings.IndexByte(i.Module, '.'); idx >= 0 {
		return i.Module[:idx]
	}
	return i.Module
}

// Imports returns every import binding in the tree, in document order,
// regardless of lexical nesting (spec: imports are matched textually
// file-wide, never function-scoped for resolution purposes).
func (t *Tree) Imports() []Import {
	var out []Import
	for _, id := range t.Find("import_statement", "import_from_statement") {
		switch t.Type(id) {
		case "import_statement":
			out = append(out, t.parseImportStatement(id)...)
		case "import_from_statement":
			out = append(out, t.parseImportFromStatement(id)...)
		}
	}
	return out
}

func (t *Tree) parseImportStatement(stmt NodeID) []Import {
	var out []Import
	for _, child := range t.NamedChildren(stmt) {
		switch t.Type(child) {
		case "dotted_name":
			out = append(out, Import{StmtID: stmt, NameID: child, Kind: ImportModule, Module: t.Text(child)})
		case "aliased_import":
			name, alias := t.aliasedParts(child)
			out = append(out, Import{StmtID: stmt, NameID: child, Kind: ImportAliased, Module: name, Alias: alias})
		}
	}
	return out
}

func (t *Tree) parseImportFromStatement(stmt NodeID) []Import {
	named := t.NamedChildren(stmt)
	if len(named) == 0 {
		return nil
	}
	moduleNode := named[0]
	module := t.Text(moduleNode)
	relative := strings.HasPrefix(module, ".")

	var out []Import
	for _, child := range named[1:] {
		switch t.Type(child) {
		case "wildcard_import":
			kind := ImportWildcard
			out = append(out, Import{StmtID: stmt, NameID: child, Kind: kind, Module: module})
		case "dotted_name", "identifier":
			symbol := t.Text(child)
			kind := ImportFrom
			if relative {
				kind = ImportRelative
			}
			out = append(out, Import{StmtID: stmt, NameID: child, Kind: kind, Module: module, Symbol: symbol})
		case "aliased_import":
			symbol, alias := t.aliasedParts(child)
			kind := ImportAliased
			if relative {
				kind = ImportRelative
			}
			out = append(out, Import{StmtID: stmt, NameID: child, Kind: kind, Module: module, Symbol: symbol, Alias: alias})
		}
	}
	return out
}

// aliasedParts returns (original-name, alias) for an aliased_import node,
// whose grammar shape is `<name> as <alias>`.
func (t *Tree) aliasedParts(aliasedImport NodeID) (name, alias string) {
	nameID := t.ChildByField(aliasedImport, "name")
	aliasID := t.ChildByField(aliasedImport, "alias")
	if nameID != InvalidNodeID {
		name = t.Text(nameID)
	}
	if aliasID != InvalidNodeID {
		alias = t.Text(aliasID)
	}
	return
}

// EnsureImport queues a top-of-file `from module import names...` (or
// `import module` when names is empty) unless an import already binds a
// superset of the requested names from that module. It returns whether an
// edit was queued.
func (t *Tree) EnsureImport(module string, names []string, origin string) (bool, error) {
	existing := t.Imports()
	haveAll := true
	for _, name := range names {
		found := false
		for _, imp := range existing {
			if imp.Module == module && (imp.Symbol == name || (imp.Symbol == "" && imp.Module == name)) {
				found = true
				break
			}
		}
		if !found {
			haveAll = false
			break
		}
	}
	if len(names) == 0 {
		haveAll = false
		for _, imp := range existing {
			if imp.Module == module && imp.Symbol == "" {
				haveAll = true
			}
		}
	}
	if haveAll && len(existing) > 0 {
		return false, nil
	}

	var stmt string
	if len(names) == 0 {
		stmt = "import " + module
	} else {
		stmt = "from " + module + " import " + strings.Join(names, ", ")
	}

	insertAt := t.firstInsertionPoint()
	if insertAt == InvalidNodeID {
		return false, nil
	}
	if err := t.InsertStatementBefore(insertAt, stmt, origin); err != nil {
		return false, err
	}
	return true, nil
}

// firstInsertionPoint returns the node new top-of-file imports should be
// inserted before: the first top-level statement that is not a module
// docstring or an existing import.
func (t *Tree) firstInsertionPoint() NodeID {
	top := t.NamedChildren(t.Root())
	for i, id := range top {
		typ := t.Type(id)
		if typ == "import_statement" || typ == "import_from_statement" {
			continue
		}
		if i == 0 && typ == "expression_statement" {
			// Could be a module docstring; skip past it too.
			children := t.NamedChildren(id)
			if len(children) == 1 && t.Type(children[0]) == "string" {
				continue
			}
		}
		return id
	}
	if len(top) > 0 {
		return top[0]
	}
	return InvalidNodeID
}

// RemoveUnusedImports drops any imported local name absent from used, and
// removes whole import statements once every binding they introduce is
// gone. used is keyed by local binding name (Import.LocalName()).
func (t *Tree) RemoveUnusedImports(used map[string]bool, origin string) error {
	byStmt := map[NodeID][]Import{}
	var order []NodeID
	for _, imp := range t.Imports() {
		if _, ok := byStmt[imp.StmtID]; !ok {
			order = append(order, imp.StmtID)
		}
		byStmt[imp.StmtID] = append(byStmt[imp.StmtID], imp)
	}

	for _, stmt := range order {
		imps := byStmt[stmt]
		var keep []Import
		for _, imp := range imps {
			if imp.Kind == ImportWildcard || used[imp.LocalName()] {
				keep = append(keep, imp)
			}
		}
		if len(keep) == len(imps) {
			continue
		}
		if len(keep) == 0 {
			if err := t.DeleteNode(stmt, origin); err != nil {
				return err
			}
			continue
		}
		rebuilt := t.rebuildImportStatement(stmt, keep)
		if err := t.ReplaceNode(stmt, []byte(rebuilt), origin); err != nil {
			return err
		}
	}
	return nil
}

// UsedIdentifierNames returns the set of identifier texts referenced
// anywhere in the tree outside of import statements themselves — the
// "still referenced" half of the unused-import check. It is computed from
// the tree as parsed; edits queued but not yet committed are not reflected.
func (t *Tree) UsedIdentifierNames() map[string]bool {
	used := map[string]bool{}
	for _, id := range t.Find("identifier") {
		if t.withinImportStatement(id) {
			continue
		}
		used[t.Text(id)] = true
	}
	return used
}

func (t *Tree) withinImportStatement(id NodeID) bool {
	for p := t.Parent(id); p != InvalidNodeID; p = t.Parent(p) {
		switch t.Type(p) {
		case "import_statement", "import_from_statement":
			return true
		}
	}
	return false
}

// ImportDrop names an import binding (or, with Names empty, a whole
// `import Module` statement) to remove unconditionally, independent of
// usage — the pycst-level mirror of knowledge.ImportSpec, kept separate so
// this package doesn't depend on the domain model.
type ImportDrop struct {
	Module string
	Names  []string
}

// RemoveImportsMatching drops every import binding whose (Module, Symbol)
// matches one of specs, regardless of whether the name still appears
// elsewhere in the file — used for a breaking change's declared
// RemovesImports, where the rewrite that fired already knows the old
// import is obsolete rather than inferring it from usage.
func (t *Tree) RemoveImportsMatching(specs []ImportDrop, origin string) error {
	if len(specs) == 0 {
		return nil
	}
	drop := func(imp Import) bool {
		for _, spec := range specs {
			if imp.Module != spec.Module {
				continue
			}
			if len(spec.Names) == 0 {
				return true
			}
			for _, name := range spec.Names {
				if imp.Symbol == name {
					return true
				}
			}
		}
		return false
	}

	byStmt := map[NodeID][]Import{}
	var order []NodeID
	for _, imp := range t.Imports() {
		if _, ok := byStmt[imp.StmtID]; !ok {
			order = append(order, imp.StmtID)
		}
		byStmt[imp.StmtID] = append(byStmt[imp.StmtID], imp)
	}

	for _, stmt := range order {
		imps := byStmt[stmt]
		var keep []Import
		for _, imp := range imps {
			if !drop(imp) {
				keep = append(keep, imp)
			}
		}
		if len(keep) == len(imps) {
			continue
		}
		if len(keep) == 0 {
			if err := t.DeleteNode(stmt, origin); err != nil {
				return err
			}
			continue
		}
		rebuilt := t.rebuildImportStatement(stmt, keep)
		if err := t.ReplaceNode(stmt, []byte(rebuilt), origin); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) rebuildImportStatement(stmt NodeID, keep []Import) string {
	if t.Type(stmt) == "import_statement" {
		parts := make([]string, 0, len(keep))
		for _, imp := range keep {
			if imp.Alias != "" {
				parts = append(parts, imp.Module+" as "+imp.Alias)
			} else {
				parts = append(parts, imp.Module)
			}
		}
		return "import " + strings.Join(parts, ", ")
	}
	module := keep[0].Module
	parts := make([]string, 0, len(keep))
	for _, imp := range keep {
		if imp.Alias != "" {
			parts = append(parts, imp.Symbol+" as "+imp.Alias)
		} else {
			parts = append(parts, imp.Symbol)
		}
	}
	return "from " + module + " import " + strings.Join(parts, ", ")
}
