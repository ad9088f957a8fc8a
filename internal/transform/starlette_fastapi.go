package transform

import (
	"pymigrate/internal/knowledge"
)

// StarletteToFastAPI returns the Tier-1 transformer covering scenario S7:
// `from starlette.responses import ...` moves to `fastapi.responses`,
// while `starlette.status` is a documented exclusion (FastAPI re-exports
// responses but not the status module under its own namespace) and is
// deliberately left unmatched rather than rewritten.
func StarletteToFastAPI() *Transformer {
	return &Transformer{
		Library: "starlette",
		Name:    "starlette-to-fastapi",
		Rules: []Rule{
			starletteResponsesImportMove(),
		},
	}
}

func starletteResponsesImportMove() Rule {
	return Rule{
		Name:       "starlette-responses-import-move",
		Kind:       RuleImportMove,
		Confidence: knowledge.ConfidenceHigh,
		Find: func(ctx *Context) []Match {
			var out []Match
			for _, stmtID := range ctx.Tree.Find("import_from_statement") {
				named := ctx.Tree.NamedChildren(stmtID)
				if len(named) == 0 {
					continue
				}
				if ctx.Tree.Text(named[0]) == "starlette.responses" {
					out = append(out, Match{NodeID: named[0]})
				}
				// starlette.status is intentionally not matched: spec.md
				// scenario S7 requires it survive the migration unchanged.
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			return ctx.Tree.ReplaceNode(m.NodeID, []byte("fastapi.responses"), "starlette-responses-import-move")
		},
	}
}
