package transform

import (
	"fmt"
	"strings"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/pycst"
)

// SQLAlchemy returns the Tier-1 transformer for the 1.4->2.0 migration,
// grounded on scenarios S4-S6 and on
// original_source/pyresolve/migrator/transforms/sqlalchemy_transformer.py's
// declarative-import and create_engine(future=True) handling.
func SQLAlchemy() *Transformer {
	return &Transformer{
		Library: "sqlalchemy",
		Name:    "sqlalchemy-1.4-to-2.0",
		Rules: []Rule{
			sqlalchemyDeclarativeImportMove(),
			sqlalchemyRemoveFutureFlag(),
			sqlalchemyWrapRawSQL(),
			sqlalchemyQueryChain(),
		},
	}
}

// sqlalchemyDeclarativeImportMove moves the declarative_base import from
// sqlalchemy.ext.declarative to sqlalchemy.orm, preserving the imported
// symbol list and any aliases.
func sqlalchemyDeclarativeImportMove() Rule {
	return Rule{
		Name:       "sqlalchemy-declarative-import-move",
		Kind:       RuleImportMove,
		Confidence: knowledge.ConfidenceHigh,
		Find: func(ctx *Context) []Match {
			var out []Match
			for _, stmtID := range ctx.Tree.Find("import_from_statement") {
				named := ctx.Tree.NamedChildren(stmtID)
				if len(named) == 0 {
					continue
				}
				if ctx.Tree.Text(named[0]) == "sqlalchemy.ext.declarative" {
					out = append(out, Match{NodeID: stmtID})
				}
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			t := ctx.Tree
			named := t.NamedChildren(m.NodeID)
			if len(named) == 0 {
				return fmt.Errorf("sqlalchemy-declarative-import-move: empty import")
			}
			return t.ReplaceNode(named[0], []byte("sqlalchemy.orm"), "sqlalchemy-declarative-import-move")
		},
	}
}

// sqlalchemyRemoveFutureFlag implements S5: create_engine(..., future=True)
// loses the now-default future kwarg, without leaving a dangling comma.
func sqlalchemyRemoveFutureFlag() Rule {
	return Rule{
		Name:       "sqlalchemy-remove-future-flag",
		Kind:       RuleArgumentRemove,
		Confidence: knowledge.ConfidenceHigh,
		Find: func(ctx *Context) []Match {
			t := ctx.Tree
			var out []Match
			for _, callID := range t.Find("call") {
				fn, args := callParts(t, callID)
				if t.Type(fn) != "identifier" || t.Text(fn) != "create_engine" {
					continue
				}
				kw := keywordArg(t, args, "future")
				if kw != pycst.InvalidNodeID {
					out = append(out, Match{NodeID: callID, Captures: map[string]string{"kw": fmt.Sprint(kw)}})
				}
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			t := ctx.Tree
			_, args := callParts(t, m.NodeID)
			kw := keywordArg(t, args, "future")
			if kw == pycst.InvalidNodeID {
				return fmt.Errorf("sqlalchemy-remove-future-flag: argument vanished")
			}
			newArgs := argListTextWithout(t, args, kw)
			return t.ReplaceAttribute(m.NodeID, "arguments", []byte(newArgs), "sqlalchemy-remove-future-flag")
		},
	}
}

// sqlalchemyWrapRawSQL implements S6: conn.execute("SELECT 1") becomes
// conn.execute(text("SELECT 1")), gated by the medium-confidence heuristic
// "any .execute(<string>) call while sqlalchemy is in scope" since the
// receiver's type (Connection vs. something else) isn't inferred.
func sqlalchemyWrapRawSQL() Rule {
	return Rule{
		Name:       "sqlalchemy-wrap-raw-sql",
		Kind:       RuleCallWrapping,
		Confidence: knowledge.ConfidenceMedium,
		Find: func(ctx *Context) []Match {
			if !isLibraryInScope(ctx.Index) {
				return nil
			}
			t := ctx.Tree
			var out []Match
			for _, callID := range t.Find("call") {
				if calledAttrName(t, callID) != "execute" {
					continue
				}
				_, args := callParts(t, callID)
				strArg := soleStringArg(t, args)
				if strArg == pycst.InvalidNodeID {
					continue
				}
				if strings.HasPrefix(t.Text(strArg), "text(") {
					continue
				}
				out = append(out, Match{NodeID: strArg})
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			if err := ctx.Tree.WrapExpression(m.NodeID, "text(%s)", "sqlalchemy-wrap-raw-sql"); err != nil {
				return err
			}
			_, err := ctx.Tree.EnsureImport("sqlalchemy", []string{"text"}, "sqlalchemy-wrap-raw-sql")
			return err
		},
	}
}

// sqlalchemyQueryChain implements S4: session.query(X).filter(c).first()
// becomes session.execute(select(X).where(c)).scalars().first(); the
// .count() variant becomes
// session.execute(select(func.count()).select_from(X)).scalar().
func sqlalchemyQueryChain() Rule {
	return Rule{
		Name:       "sqlalchemy-query-pattern-chain",
		Kind:       RuleQueryPatternChain,
		Confidence: knowledge.ConfidenceMedium,
		Find: func(ctx *Context) []Match {
			t := ctx.Tree
			var out []Match
			for _, callID := range t.Find("call") {
				sink := calledAttrName(t, callID)
				switch sink {
				case "first", "all", "one", "count", "scalar":
				default:
					continue
				}
				if chain := parseQueryChain(t, callID); chain != nil {
					out = append(out, Match{NodeID: callID})
				}
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			t := ctx.Tree
			chain := parseQueryChain(t, m.NodeID)
			if chain == nil {
				return fmt.Errorf("sqlalchemy-query-pattern-chain: chain disappeared")
			}
			var code string
			if chain.sink == "count" {
				code = fmt.Sprintf("%s.execute(select(func.count()).select_from(%s)).scalar()", chain.receiver, chain.queryArgs)
				if _, err := t.EnsureImport("sqlalchemy", []string{"select", "func"}, "sqlalchemy-query-pattern-chain"); err != nil {
					return err
				}
			} else {
				where := ""
				for _, f := range chain.filters {
					where += ".where(" + f + ")"
				}
				code = fmt.Sprintf("%s.execute(select(%s)%s).scalars().%s()", chain.receiver, chain.queryArgs, where, chain.sink)
				if _, err := t.EnsureImport("sqlalchemy", []string{"select"}, "sqlalchemy-query-pattern-chain"); err != nil {
					return err
				}
			}
			return t.ReplaceNode(m.NodeID, []byte(code), "sqlalchemy-query-pattern-chain")
		},
	}
}

// queryChain is the parsed shape of a session.query(X)[.filter(c)...].sink()
// expression.
type queryChain struct {
	receiver  string
	queryArgs string
	filters   []string // in original left-to-right order
	sink      string
}

// parseQueryChain walks a sink call (.first()/.count()/...) back through
// any number of .filter(...) calls to the base .query(X) call, returning
// nil if the chain doesn't terminate there.
func parseQueryChain(t *pycst.Tree, sinkCall pycst.NodeID) *queryChain {
	sink := calledAttrName(t, sinkCall)
	fn, sinkArgs := callParts(t, sinkCall)
	if fn == pycst.InvalidNodeID || len(t.NamedChildren(sinkArgs)) != 0 {
		return nil
	}
	cur, _ := attributeParts(t, fn)

	var filtersRev []string
	for t.Type(cur) == "call" && calledAttrName(t, cur) == "filter" {
		_, fargs := callParts(t, cur)
		var parts []string
		for _, a := range t.NamedChildren(fargs) {
			parts = append(parts, t.Text(a))
		}
		filtersRev = append(filtersRev, strings.Join(parts, ", "))
		nextFn, _ := callParts(t, cur)
		cur, _ = attributeParts(t, nextFn)
	}

	if t.Type(cur) != "call" || calledAttrName(t, cur) != "query" {
		return nil
	}
	_, queryArgsID := callParts(t, cur)
	var qparts []string
	for _, a := range t.NamedChildren(queryArgsID) {
		qparts = append(qparts, t.Text(a))
	}
	queryFn, _ := callParts(t, cur)
	receiver, _ := attributeParts(t, queryFn)
	if receiver == pycst.InvalidNodeID {
		return nil
	}

	filters := make([]string, len(filtersRev))
	for i, f := range filtersRev {
		filters[len(filtersRev)-1-i] = f
	}

	return &queryChain{
		receiver:  t.Text(receiver),
		queryArgs: strings.Join(qparts, ", "),
		filters:   filters,
		sink:      sink,
	}
}
