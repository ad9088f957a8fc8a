package transform

import (
	"pymigrate/internal/knowledge"
)

// RequestsToHTTPX returns the Tier-1 transformer for the requests->httpx
// migration, grounded on
// original_source/pyresolve/migrator/transforms/requests_transformer.py's
// attribute/call-shape handling, generalized from version-bump fixups to a
// cross-library symbol swap.
func RequestsToHTTPX() *Transformer {
	return &Transformer{
		Library: "requests",
		Name:    "requests-to-httpx",
		Rules: []Rule{
			requestsModuleRename(),
			requestsSessionToClient(),
		},
	}
}

// requestsModuleRename rewrites `import requests` to `import httpx` and
// every `requests.<fn>(...)` reference to `httpx.<fn>(...)`; httpx's
// top-level get/post/put/delete/patch/head/options functions are
// call-compatible, so no argument rewriting is needed.
//
// It skips any reference that resolves to `requests.Session`:
// requestsSessionToClient below replaces that whole attribute (module and
// member together) with `httpx.Client`, so also queuing an edit here on
// just the `requests` identifier would overlap that rule's edit on the
// enclosing node and fail the tree's overlap check. The two rules are
// mutually exclusive by construction rather than by ordering.
func requestsModuleRename() Rule {
	return Rule{
		Name:       "requests-module-rename",
		Kind:       RuleMethodRename,
		Confidence: knowledge.ConfidenceHigh,
		Find: func(ctx *Context) []Match {
			var out []Match
			for _, imp := range ctx.Index.Imports {
				if imp.Module == "requests" {
					out = append(out, Match{NodeID: imp.NameID, Captures: map[string]string{"kind": "import"}})
				}
			}
			for _, u := range ctx.Index.Usages {
				if u.LocalName != "requests" {
					continue
				}
				if u.QualifiedName == "requests.Session" {
					continue
				}
				out = append(out, Match{NodeID: u.NodeID, Captures: map[string]string{"kind": "ref"}})
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			return ctx.Tree.ReplaceNode(m.NodeID, []byte("httpx"), "requests-module-rename")
		},
	}
}

// requestsSessionToClient rewrites requests.Session() constructions to
// httpx.Client(), the closest call-compatible equivalent.
func requestsSessionToClient() Rule {
	return Rule{
		Name:       "requests-session-to-client",
		Kind:       RuleClassmethodRename,
		Confidence: knowledge.ConfidenceHigh,
		Find: func(ctx *Context) []Match {
			var out []Match
			for _, u := range ctx.Index.Usages {
				if u.QualifiedName == "requests.Session" && u.Role == "call" {
					out = append(out, Match{NodeID: u.NodeID})
				}
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			t := ctx.Tree
			parent := t.Parent(m.NodeID)
			if t.Type(parent) != "attribute" {
				return nil
			}
			return t.ReplaceNode(parent, []byte("httpx.Client"), "requests-session-to-client")
		},
	}
}
