//go:build cgo

package pycst

import (
	"fmt"
	"sort"
)

type editKind int

const (
	editReplaceRange editKind = iota
	editInsertBefore
	editInsertAfter
)

type pendingEdit struct {
	kind  editKind
	start uint32
	end   uint32 // == start for pure insertions
	text  []byte
	// origin names the rule/transformer that queued this edit, carried
	// through to Patch provenance.
	origin string
}

// ByteDiff describes one contiguous region of Source that Commit replaced.
type ByteDiff struct {
	OldStart, OldEnd uint32
	NewText          []byte
}

// ReplaceNode queues replacement of the node's entire byte range with
// newText.
func (t *Tree) ReplaceNode(id NodeID, newText []byte, origin string) error {
	n := t.raw(id)
	if n == nil {
		return fmt.Errorf("pycst: replace-node: unknown node %d", id)
	}
	t.pending = append(t.pending, pendingEdit{
		kind: editReplaceRange, start: n.StartByte(), end: n.EndByte(), text: newText, origin: origin,
	})
	return nil
}

// ReplaceAttribute queues replacement of the child bound to the given
// grammar field (e.g. a call's "arguments", a class's "superclasses").
func (t *Tree) ReplaceAttribute(id NodeID, field string, newText []byte, origin string) error {
	child := t.ChildByField(id, field)
	if child == InvalidNodeID {
		return fmt.Errorf("pycst: replace-attribute: node %d has no field %q", id, field)
	}
	return t.ReplaceNode(child, newText, origin)
}

// InsertStatementBefore queues insertion of a new statement immediately
// before the given node, on its own line, matching its indentation.
func (t *Tree) InsertStatementBefore(id NodeID, statement string, origin string) error {
	n := t.raw(id)
	if n == nil {
		return fmt.Errorf("pycst: insert-before: unknown node %d", id)
	}
	indent := t.leadingIndent(n.StartByte())
	text := []byte(statement + "\n" + indent)
	t.pending = append(t.pending, pendingEdit{
		kind: editInsertBefore, start: n.StartByte(), end: n.StartByte(), text: text, origin: origin,
	})
	return nil
}

// InsertStatementAfter queues insertion of a new statement immediately
// after the given node, on its own line, matching its indentation.
func (t *Tree) InsertStatementAfter(id NodeID, statement string, origin string) error {
	n := t.raw(id)
	if n == nil {
		return fmt.Errorf("pycst: insert-after: unknown node %d", id)
	}
	indent := t.leadingIndent(n.StartByte())
	text := []byte("\n" + indent + statement)
	t.pending = append(t.pending, pendingEdit{
		kind: editInsertAfter, start: n.EndByte(), end: n.EndByte(), text: text, origin: origin,
	})
	return nil
}

// DeleteNode queues removal of the node's entire byte range.
func (t *Tree) DeleteNode(id NodeID, origin string) error {
	return t.ReplaceNode(id, nil, origin)
}

// WrapExpression queues replacing the node with wrapperTemplate, where the
// single "%s" placeholder is substituted with the node's original text
// (e.g. `text(%s)` turns `"SELECT 1"` into `text("SELECT 1")`).
func (t *Tree) WrapExpression(id NodeID, wrapperTemplate string, origin string) error {
	n := t.raw(id)
	if n == nil {
		return fmt.Errorf("pycst: wrap-expression: unknown node %d", id)
	}
	original := t.Text(id)
	wrapped := fmt.Sprintf(wrapperTemplate, original)
	return t.ReplaceNode(id, []byte(wrapped), origin)
}

// leadingIndent returns the run of spaces/tabs immediately preceding the
// line containing byte offset pos.
func (t *Tree) leadingIndent(pos uint32) string {
	lineStart := pos
	for lineStart > 0 && t.Source[lineStart-1] != '\n' {
		lineStart--
	}
	end := lineStart
	for end < pos && (t.Source[end] == ' ' || t.Source[end] == '\t') {
		end++
	}
	return string(t.Source[lineStart:end])
}

// HasPendingEdits reports whether any edit is queued.
func (t *Tree) HasPendingEdits() bool { return len(t.pending) > 0 }

// Render returns the tree's bytes. With no pending edits this is exactly
// the original source — render(parse(x)) == x, byte for byte.
func (t *Tree) Render() []byte {
	if len(t.pending) == 0 {
		return t.Source
	}
	out, _, _ := t.splice()
	return out
}

// splice applies all queued edits to Source in start-order, without
// re-parsing, and returns the resulting bytes plus the diff regions.
func (t *Tree) splice() ([]byte, []ByteDiff, error) {
	edits := make([]pendingEdit, len(t.pending))
	copy(edits, t.pending)
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		// Insertions at the same position: "before" edits sort ahead of
		// "after" edits targeting the prior node's end == this node's start.
		return edits[i].kind < edits[j].kind
	})

	for i := 1; i < len(edits); i++ {
		prev, cur := edits[i-1], edits[i]
		if prev.kind == editReplaceRange && cur.start < prev.end {
			return nil, nil, fmt.Errorf("pycst: overlapping edits at byte %d (from %q and %q)", cur.start, prev.origin, cur.origin)
		}
	}

	var out []byte
	var diffs []ByteDiff
	cursor := uint32(0)
	for _, e := range edits {
		if e.start < cursor {
			return nil, nil, fmt.Errorf("pycst: edit from %q overlaps a prior edit", e.origin)
		}
		out = append(out, t.Source[cursor:e.start]...)
		out = append(out, e.text...)
		diffs = append(diffs, ByteDiff{OldStart: e.start, OldEnd: e.end, NewText: e.text})
		cursor = e.end
	}
	out = append(out, t.Source[cursor:]...)
	return out, diffs, nil
}

// Commit applies every queued edit, re-parses the result (parse-check),
// and returns the new Tree plus the byte diffs that produced it. On
// failure the receiver Tree is left untouched so the caller can drop this
// Patch for the file without corrupting other in-flight edits.
func (t *Tree) Commit() (*Tree, []ByteDiff, error) {
	if len(t.pending) == 0 {
		return t, nil, nil
	}
	newSource, diffs, err := t.splice()
	if err != nil {
		return nil, nil, err
	}
	newTree, _, parseErr := Parse(newSource, t.Filename)
	if parseErr != nil {
		return nil, nil, fmt.Errorf("pycst: commit produced unparseable source: %w", parseErr)
	}
	return newTree, diffs, nil
}
