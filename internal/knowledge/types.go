// Package knowledge holds the in-memory representation of a library
// migration: a set of BreakingChanges, each with kind, match/replacement
// shape, confidence, and provenance, grouped into an immutable
// MigrationSpec for one (library, source-range, target-version) triple.
package knowledge

import "fmt"

// Kind is the closed set of breaking-change shapes the engine understands.
// Matchers and the transformer library dispatch on Kind. Nothing rejects an
// unrecognized Kind at construction; Tier 2 skips a Kind it has no generic
// rewrite for.
type Kind string

const (
	KindSymbolRename       Kind = "symbol-rename"
	KindAttributeRename    Kind = "attribute-rename"
	KindMethodRename       Kind = "method-rename"
	KindFunctionSignature  Kind = "function-signature"
	KindDecoratorShape     Kind = "decorator-shape"
	KindClassConfigRestruct Kind = "class-config-restructure"
	KindImportMove         Kind = "import-move"
	KindArgumentRename     Kind = "argument-rename"
	KindArgumentRemoved    Kind = "argument-removed"
	KindBehaviorChange     Kind = "behavior-change"
)

// Confidence is how sure the engine is that a rewrite is correct absent
// full type inference.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AtLeast reports whether c meets or exceeds floor (high > medium > low).
func (c Confidence) AtLeast(floor Confidence) bool {
	rank := map[Confidence]int{ConfidenceLow: 0, ConfidenceMedium: 1, ConfidenceHigh: 2}
	cr, ok := rank[c]
	fr, ok2 := rank[floor]
	if !ok || !ok2 {
		return false
	}
	return cr >= fr
}

// Match narrows a BreakingChange to the source shape it applies to: a
// lexical symbol (possibly qualified by owning type, for methods) plus any
// syntactic predicate text carried only for provenance/debugging — actual
// matching is done by the matcher the Kind implies, in the engine's Tier-2
// rewrites (internal/engine/tier2.go).
type Match struct {
	Symbol      string // "BaseModel.dict", "create_engine", "sqlalchemy.ext.declarative"
	OwnerHint   string // "BaseModel" for a method rename gated by base class
	ArgName     string // for argument-rename/argument-removed
	SyntaxHint  string // free text: "call with zero positional args"
}

// Replacement describes the target-version shape a Match should become.
// Template is carried as extracted; no tier of the engine reads it or
// interpolates captures ("%ARGS%", "%RECV%") into it.
type Replacement struct {
	Symbol      string // new symbol/method/decorator name
	ArgName     string // renamed keyword argument, if any
	Template    string // literal replacement template, for tier-2/3 rules
	ClassConfig map[string]string // e.g. {"orm_mode":"from_attributes"} for class-config-restructure
}

// Provenance records where a BreakingChange came from, for display;
// acquisition's multi-source promotion counts candidates per Key() and does
// not read it.
type Provenance struct {
	URL     string
	Excerpt string
}

// BreakingChange is one documented, machine-consumable API change between
// two versions of a library.
type BreakingChange struct {
	ID              string
	Kind            Kind
	Match           Match
	Replacement     Replacement
	Confidence      Confidence
	RequiresImports []ImportSpec
	RemovesImports  []ImportSpec
	Explanation     string
	Provenance      Provenance
}

// ImportSpec names an import to add or consider removing as a side effect
// of applying a BreakingChange.
type ImportSpec struct {
	Module string
	Names  []string
}

// Key returns the de-duplication key used when merging BreakingChanges
// extracted from independent sources: (kind, symbol, replacement-symbol).
func (b BreakingChange) Key() string {
	return fmt.Sprintf("%s|%s|%s", b.Kind, b.Match.Symbol, b.Replacement.Symbol)
}

// MigrationSpec is the ordered, immutable list of BreakingChanges for one
// library version upgrade. Identity is (Library, SourceRange, Target).
type MigrationSpec struct {
	Library        string
	SourceRange    string // e.g. ">=1.0,<2.0"
	Target         string
	BreakingChanges []BreakingChange
	SchemaVersion  int
}

// CurrentSchemaVersion is written into every persisted MigrationSpec; a
// cache entry with any other value is refused rather than guessed at.
const CurrentSchemaVersion = 1

// CacheKey returns the (library, from, to) cache key spec.md §4.5 mandates.
func (m *MigrationSpec) CacheKey() string {
	return fmt.Sprintf("%s_%s_%s", m.Library, m.SourceRange, m.Target)
}

// ByConfidenceDesc returns the spec's confidence ordering (high first),
// used by the engine to run higher-confidence rules before lower ones
// within a tier.
func (m *MigrationSpec) ByConfidenceDesc() []BreakingChange {
	rank := map[Confidence]int{ConfidenceHigh: 0, ConfidenceMedium: 1, ConfidenceLow: 2}
	out := make([]BreakingChange, len(m.BreakingChanges))
	copy(out, m.BreakingChanges)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && rank[out[j].Confidence] < rank[out[j-1].Confidence]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
