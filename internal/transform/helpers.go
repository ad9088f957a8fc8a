package transform

import (
	"strings"

	"pymigrate/internal/pycst"
	"pymigrate/internal/usageindex"
)

// callParts returns the function node and argument-list node of a "call"
// CST node, or InvalidNodeID for either if id is not a call.
func callParts(t *pycst.Tree, id pycst.NodeID) (fn, args pycst.NodeID) {
	if t.Type(id) != "call" {
		return pycst.InvalidNodeID, pycst.InvalidNodeID
	}
	return t.ChildByField(id, "function"), t.ChildByField(id, "arguments")
}

// attributeParts returns (object, attrName) for an "attribute" node, or
// ("", "") if id is not an attribute.
func attributeParts(t *pycst.Tree, id pycst.NodeID) (object pycst.NodeID, attrName string) {
	if t.Type(id) != "attribute" {
		return pycst.InvalidNodeID, ""
	}
	objID := t.ChildByField(id, "object")
	attrID := t.ChildByField(id, "attribute")
	if attrID == pycst.InvalidNodeID {
		return objID, ""
	}
	return objID, t.Text(attrID)
}

// calledAttrName returns the method name of a call like `x.method(...)`,
// or "" if the call's function is not a plain attribute access.
func calledAttrName(t *pycst.Tree, callID pycst.NodeID) string {
	fn, _ := callParts(t, callID)
	if fn == pycst.InvalidNodeID {
		return ""
	}
	_, name := attributeParts(t, fn)
	return name
}

// callReceiverText returns the source text of the object a method call is
// made on, e.g. "session" in "session.query(X)".
func callReceiverText(t *pycst.Tree, callID pycst.NodeID) string {
	fn, _ := callParts(t, callID)
	obj, _ := attributeParts(t, fn)
	if obj == pycst.InvalidNodeID {
		return ""
	}
	return t.Text(obj)
}

// positionalArgCount returns the number of non-keyword arguments in an
// argument_list node.
func positionalArgCount(t *pycst.Tree, argsID pycst.NodeID) int {
	n := 0
	for _, child := range t.NamedChildren(argsID) {
		if t.Type(child) != "keyword_argument" {
			n++
		}
	}
	return n
}

// keywordArg returns the keyword_argument node named name within an
// argument_list, or InvalidNodeID.
func keywordArg(t *pycst.Tree, argsID pycst.NodeID, name string) pycst.NodeID {
	for _, child := range t.NamedChildren(argsID) {
		if t.Type(child) != "keyword_argument" {
			continue
		}
		nameID := t.ChildByField(child, "name")
		if nameID != pycst.InvalidNodeID && t.Text(nameID) == name {
			return child
		}
	}
	return pycst.InvalidNodeID
}

// keywordValueText returns the text of a keyword_argument's value.
func keywordValueText(t *pycst.Tree, kwID pycst.NodeID) string {
	v := t.ChildByField(kwID, "value")
	if v == pycst.InvalidNodeID {
		return ""
	}
	return t.Text(v)
}

// argListTextWithout rebuilds an argument_list's inner text, dropping the
// argument at dropID and preserving every other argument verbatim
// (spec.md's argument-remove: "remove a keyword argument and any trailing
// comma it leaves behind").
func argListTextWithout(t *pycst.Tree, argsID, dropID pycst.NodeID) string {
	var parts []string
	for _, child := range t.NamedChildren(argsID) {
		if child == dropID {
			continue
		}
		parts = append(parts, t.Text(child))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// soleStringArg returns the single positional "string" argument node of
// a call if that's the call's only argument, else InvalidNodeID.
func soleStringArg(t *pycst.Tree, argsID pycst.NodeID) pycst.NodeID {
	named := t.NamedChildren(argsID)
	if len(named) != 1 {
		return pycst.InvalidNodeID
	}
	if t.Type(named[0]) != "string" {
		return pycst.InvalidNodeID
	}
	return named[0]
}

// isLibraryInScope reports whether idx resolved at least one import
// binding (or a wildcard) for its library — the gate heuristic rules use
// in place of real type inference, per spec.md §4.4's "falls back to
// conservative syntactic shape" note.
func isLibraryInScope(idx *usageindex.Index) bool {
	return idx.HasImports()
}
