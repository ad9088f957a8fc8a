// Package transform implements Tier-1: one named transformer per
// pre-coded library migration, each a composition of small, deterministic
// CST rewrites. Every rule in this package must be local (one statement
// unless explicitly multi-statement), idempotent, and free of randomness
// or network calls, per spec.md §4.4.
package transform

import (
	"sort"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/pycst"
	"pymigrate/internal/usageindex"
)

// RuleKind is the closed set of Tier-1 rewrite shapes spec.md §4.4
// enumerates. It is deliberately a finer-grained taxonomy than
// knowledge.Kind: several RuleKinds (call-wrapping, query-pattern-chain)
// only ever arise as Tier-1 rules and have no Tier-2/3 BreakingChange
// equivalent, so they are not folded into knowledge.Kind.
type RuleKind string

const (
	RuleMethodRename         RuleKind = "method-rename"
	RuleClassmethodRename    RuleKind = "classmethod-rename"
	RuleDecoratorShape       RuleKind = "decorator-shape"
	RuleClassBodyRestructure RuleKind = "class-body-restructure"
	RuleCallWrapping         RuleKind = "call-wrapping"
	RuleArgumentRename       RuleKind = "argument-rename"
	RuleArgumentRemove       RuleKind = "argument-remove"
	RuleImportMove           RuleKind = "import-move"
	RuleQueryPatternChain    RuleKind = "query-pattern-chain"
)

// Match is one located opportunity to apply a Rule: a primary node plus any
// captured fragments the rule's Apply function needs.
type Match struct {
	NodeID   pycst.NodeID
	Captures map[string]string
}

// Context is what a Rule's Match/Apply functions see: the tree being
// rewritten and the Usage Index already built for the rule's library.
type Context struct {
	Tree  *pycst.Tree
	Index *usageindex.Index
}

// Rule is one named, deterministic CST rewrite. Find locates every
// opportunity in one pass over ctx; Apply performs the rewrite for a
// single Match, queuing edits on ctx.Tree. Apply must be local: it may
// touch the Match's node and its immediate surroundings (one statement,
// or the declared multi-statement span for decorator/class-restructure
// rules) and nothing else.
type Rule struct {
	Name       string
	Kind       RuleKind
	Confidence knowledge.Confidence
	Find       func(ctx *Context) []Match
	Apply      func(ctx *Context, m Match) error
}

// Change records that one rule fired at one site, for Patch provenance
// and the risk score's tier/confidence mix.
type Change struct {
	Rule        string
	Kind        RuleKind
	Confidence  knowledge.Confidence
	Description string
	Line        int
}

// Transformer is the named, library-scoped composition of Rules spec.md
// §4.4 calls a "Tier-1 transformer". Library is the top-level import name
// the Usage Index is built against (e.g. "pydantic").
type Transformer struct {
	Library string
	Name    string
	Rules   []Rule
}

// Apply runs every rule of tr against tree in confidence order (high
// first), gated by confidenceFloor, queuing edits and returning the
// Changes that fired. A rule whose Apply returns an error is skipped
// (logged by the caller); other rules proceed, matching spec.md §4.4's
// failure semantics.
func (tr *Transformer) Apply(tree *pycst.Tree, confidenceFloor knowledge.Confidence) ([]Change, []error) {
	idx := usageindex.Build(tree, tr.Library)
	ctx := &Context{Tree: tree, Index: idx}

	rules := make([]Rule, len(tr.Rules))
	copy(rules, tr.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return confidenceRank(rules[i].Confidence) > confidenceRank(rules[j].Confidence)
	})

	var changes []Change
	var errs []error
	for _, rule := range rules {
		if !rule.Confidence.AtLeast(confidenceFloor) {
			continue
		}
		for _, m := range rule.Find(ctx) {
			if err := rule.Apply(ctx, m); err != nil {
				errs = append(errs, err)
				continue
			}
			changes = append(changes, Change{
				Rule:       rule.Name,
				Kind:       rule.Kind,
				Confidence: rule.Confidence,
				Line:       tree.Line(m.NodeID),
			})
		}
	}
	return changes, errs
}

func confidenceRank(c knowledge.Confidence) int {
	switch c {
	case knowledge.ConfidenceHigh:
		return 2
	case knowledge.ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// Registry maps a library name to its hand-coded Tier-1 transformer. A
// library absent here has no Tier 1 and the Migration Engine falls
// through to Tier 2/3.
func Registry() map[string]*Transformer {
	return map[string]*Transformer{
		"pydantic":   Pydantic(),
		"sqlalchemy": SQLAlchemy(),
		"requests":   RequestsToHTTPX(),
		"starlette":  StarletteToFastAPI(),
	}
}
