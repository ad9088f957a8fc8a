//go:build cgo

// Package pycst implements the lossless Concrete Syntax Tree facade: parse
// Python source with tree-sitter, traverse it by node kind or structural
// predicate, and queue edits that re-emit byte-identical output outside
// the edited span. Node identity is an index into a per-tree arena
// (Tree.nodes), never a raw tree-sitter pointer, so edits survive a
// commit()-driven rebuild of the underlying tree.
package pycst

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	tspython "github.com/smacker/go-tree-sitter/python"
)

// NodeID is an arena index into a Tree's node table. The zero value is the
// root node; use InvalidNodeID to test for absence.
type NodeID int

// InvalidNodeID represents "no node".
const InvalidNodeID NodeID = -1

// Diagnostic reports a parse problem at a specific location.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
}

// ParseError is returned when source is not valid Python.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Tree is a self-contained, lossless parse of one Python source file. It
// is owned by whatever constructs it (the Scanner's SourceFile, or a
// transformer mid-rewrite) and never shared for mutation.
type Tree struct {
	Source   []byte
	Filename string

	root   NodeID
	nodes  []*sitter.Node
	parent []NodeID

	pending []pendingEdit
}

var pyLanguage = tspython.GetLanguage()

// Parse parses Python source into a lossless Tree. It fails with
// *ParseError if the source is not syntactically valid Python; there is no
// error-recovery mode: the individual ERROR/MISSING nodes are returned as
// diagnostics together with the *ParseError and no Tree. A successful parse
// returns no diagnostics.
func Parse(source []byte, filename string) (*Tree, []Diagnostic, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(pyLanguage)

	sitterTree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, nil, fmt.Errorf("pycst: parse %s: %w", filename, err)
	}

	root := sitterTree.RootNode()
	if root == nil {
		return nil, nil, &ParseError{Message: "empty parse tree"}
	}

	t := &Tree{Source: source, Filename: filename}
	t.root = t.index(root, InvalidNodeID)

	var diags []Diagnostic
	if root.HasError() {
		walkErrors(root, &diags)
		if len(diags) == 0 {
			diags = append(diags, Diagnostic{Line: 1, Column: 1, Message: "syntax error"})
		}
		return nil, diags, &ParseError{
			Line:    diags[0].Line,
			Column:  diags[0].Column,
			Message: diags[0].Message,
		}
	}

	return t, diags, nil
}

// index performs a preorder walk, assigning each node a stable NodeID and
// recording its parent.
func (t *Tree) index(n *sitter.Node, parentID NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	t.parent = append(t.parent, parentID)

	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child != nil {
			t.index(child, id)
		}
	}
	return id
}

func walkErrors(n *sitter.Node, out *[]Diagnostic) {
	if n.IsError() || n.IsMissing() {
		pt := n.StartPoint()
		msg := "unexpected syntax"
		if n.IsMissing() {
			msg = fmt.Sprintf("missing %s", n.Type())
		}
		*out = append(*out, Diagnostic{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Message: msg})
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child != nil {
			walkErrors(child, out)
		}
	}
}

// Root returns the tree's root node id.
func (t *Tree) Root() NodeID { return t.root }

func (t *Tree) raw(id NodeID) *sitter.Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Type returns the grammar node type, e.g. "call", "import_from_statement".
func (t *Tree) Type(id NodeID) string {
	if n := t.raw(id); n != nil {
		return n.Type()
	}
	return ""
}

// Range returns the byte range [start, end) the node spans in Source.
func (t *Tree) Range(id NodeID) (start, end uint32) {
	n := t.raw(id)
	if n == nil {
		return 0, 0
	}
	return n.StartByte(), n.EndByte()
}

// Line returns the 1-indexed source line the node starts on.
func (t *Tree) Line(id NodeID) int {
	if n := t.raw(id); n != nil {
		return int(n.StartPoint().Row) + 1
	}
	return 0
}

// Text returns the node's original source text.
func (t *Tree) Text(id NodeID) string {
	n := t.raw(id)
	if n == nil {
		return ""
	}
	return string(t.Source[n.StartByte():n.EndByte()])
}

// Parent returns the node's parent, or InvalidNodeID at the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if id < 0 || int(id) >= len(t.parent) {
		return InvalidNodeID
	}
	return t.parent[id]
}

// ChildByField returns the node's child bound to the given grammar field
// name (e.g. "function", "arguments", "name"), or InvalidNodeID.
func (t *Tree) ChildByField(id NodeID, field string) NodeID {
	n := t.raw(id)
	if n == nil {
		return InvalidNodeID
	}
	child := n.ChildByFieldName(field)
	if child == nil {
		return InvalidNodeID
	}
	return t.idOf(child)
}

// Children returns every direct child (named and anonymous) in order.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.raw(id)
	if n == nil {
		return nil
	}
	out := make([]NodeID, 0, n.ChildCount())
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil {
			out = append(out, t.idOf(c))
		}
	}
	return out
}

// NamedChildren returns only the grammar-named direct children (skips
// punctuation/keyword tokens).
func (t *Tree) NamedChildren(id NodeID) []NodeID {
	n := t.raw(id)
	if n == nil {
		return nil
	}
	out := make([]NodeID, 0, n.NamedChildCount())
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c != nil {
			out = append(out, t.idOf(c))
		}
	}
	return out
}

// idOf resolves a live *sitter.Node back to its NodeID by matching its byte
// range and position within the arena built at parse time. Because the
// arena is a preorder walk of the exact same tree the node came from, a
// linear scan anchored at the node's start byte is sufficient and avoids
// keeping a second pointer-keyed map alive for the Tree's lifetime.
func (t *Tree) idOf(n *sitter.Node) NodeID {
	start, end := n.StartByte(), n.EndByte()
	typ := n.Type()
	for i, candidate := range t.nodes {
		if candidate == n {
			return NodeID(i)
		}
		if candidate.StartByte() == start && candidate.EndByte() == end && candidate.Type() == typ {
			return NodeID(i)
		}
	}
	return InvalidNodeID
}

// Walk calls fn for every node in the tree in preorder, stopping early if
// fn returns false.
func (t *Tree) Walk(fn func(id NodeID) bool) {
	for id := range t.nodes {
		if !fn(NodeID(id)) {
			return
		}
	}
}

// Find returns every node whose Type() is in kinds, in document order.
func (t *Tree) Find(kinds ...string) []NodeID {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	var out []NodeID
	t.Walk(func(id NodeID) bool {
		if set[t.Type(id)] {
			out = append(out, id)
		}
		return true
	})
	return out
}
