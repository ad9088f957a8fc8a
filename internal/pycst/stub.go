//go:build !cgo

// Package pycst implements the lossless Concrete Syntax Tree facade. This
// stub is built when CGO is unavailable, since github.com/smacker/go-tree-sitter
// requires cgo; every operation reports pycst as unavailable rather than
// failing the build outright, matching the teacher's cgo/!cgo split for
// tree-sitter-backed packages (internal/complexity and internal/symbols).
package pycst

import "errors"

// ErrCGORequired is returned by every pycst operation in a CGO_ENABLED=0
// build.
var ErrCGORequired = errors.New("pycst: tree-sitter parsing requires CGO_ENABLED=1")

type NodeID int

const InvalidNodeID NodeID = -1

type Diagnostic struct {
	Line    int
	Column  int
	Message string
}

type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// ByteDiff describes one contiguous region of Source that Commit replaced.
type ByteDiff struct {
	OldStart, OldEnd uint32
	NewText          []byte
}

// ImportKind classifies one bound name produced by an import statement.
type ImportKind string

const (
	ImportModule   ImportKind = "module"
	ImportAliased  ImportKind = "aliased"
	ImportFrom     ImportKind = "from"
	ImportWildcard ImportKind = "wildcard"
	ImportRelative ImportKind = "relative"
)

// Import describes one name bound into file scope by an import statement.
type Import struct {
	StmtID NodeID
	NameID NodeID
	Kind   ImportKind
	Module string
	Symbol string
	Alias  string
}

func (i Import) LocalName() string {
	if i.Alias != "" {
		return i.Alias
	}
	if i.Symbol != "" {
		return i.Symbol
	}
	return i.Module
}

// Tree is a self-contained parse of one Python source file. In a !cgo
// build it always holds zero nodes; every accessor reports absence rather
// than panicking, so callers that only conditionally touch pycst (as
// opposed to the CLI, which requires it outright) still link.
type Tree struct {
	Source   []byte
	Filename string
}

func Parse(source []byte, filename string) (*Tree, []Diagnostic, error) {
	return nil, nil, ErrCGORequired
}

func (t *Tree) Root() NodeID                              { return InvalidNodeID }
func (t *Tree) Type(id NodeID) string                      { return "" }
func (t *Tree) Range(id NodeID) (start, end uint32)         { return 0, 0 }
func (t *Tree) Line(id NodeID) int                          { return 0 }
func (t *Tree) Text(id NodeID) string                       { return "" }
func (t *Tree) Parent(id NodeID) NodeID                     { return InvalidNodeID }
func (t *Tree) ChildByField(id NodeID, field string) NodeID { return InvalidNodeID }
func (t *Tree) Children(id NodeID) []NodeID                 { return nil }
func (t *Tree) NamedChildren(id NodeID) []NodeID            { return nil }
func (t *Tree) Walk(fn func(id NodeID) bool)                {}
func (t *Tree) Find(kinds ...string) []NodeID                { return nil }
func (t *Tree) Imports() []Import                            { return nil }

func (t *Tree) ReplaceNode(id NodeID, newText []byte, origin string) error { return ErrCGORequired }
func (t *Tree) ReplaceAttribute(id NodeID, field string, newText []byte, origin string) error {
	return ErrCGORequired
}
func (t *Tree) InsertStatementBefore(id NodeID, statement string, origin string) error {
	return ErrCGORequired
}
func (t *Tree) InsertStatementAfter(id NodeID, statement string, origin string) error {
	return ErrCGORequired
}
func (t *Tree) DeleteNode(id NodeID, origin string) error { return ErrCGORequired }
func (t *Tree) WrapExpression(id NodeID, wrapperTemplate string, origin string) error {
	return ErrCGORequired
}
func (t *Tree) EnsureImport(module string, names []string, origin string) (bool, error) {
	return false, ErrCGORequired
}
func (t *Tree) RemoveUnusedImports(used map[string]bool, origin string) error {
	return ErrCGORequired
}
func (t *Tree) UsedIdentifierNames() map[string]bool { return nil }

type ImportDrop struct {
	Module string
	Names  []string
}

func (t *Tree) RemoveImportsMatching(specs []ImportDrop, origin string) error {
	return ErrCGORequired
}

func (t *Tree) HasPendingEdits() bool                   { return false }
func (t *Tree) Render() []byte                          { return t.Source }
func (t *Tree) Commit() (*Tree, []ByteDiff, error)      { return nil, nil, ErrCGORequired }
