//go:build cgo

package usageindex

import (
	"testing"

	"pymigrate/internal/pycst"
)

const source = `import pydantic
from pydantic import BaseModel as BM

class User(BM):
    def dump(self):
        return self.dict()

def rebind():
    pydantic = None
    return pydantic
`

func parse(t *testing.T, src string) *pycst.Tree {
	t.Helper()
	tree, _, err := pycst.Parse([]byte(src), "sample.py")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tree
}

func TestBuildResolvesPlainAndAliasedImports(t *testing.T) {
	tree := parse(t, source)
	idx := Build(tree, "pydantic")

	if !idx.HasImports() {
		t.Fatal("expected HasImports true")
	}
	if len(idx.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d: %+v", len(idx.Imports), idx.Imports)
	}
}

func TestCollectUsagesResolvesBaseClassButNotSelfMethodCall(t *testing.T) {
	tree := parse(t, source)
	idx := Build(tree, "pydantic")

	var sawBaseClass, sawCall bool
	for _, u := range idx.Usages {
		if u.QualifiedName == "pydantic.BaseModel" && u.Role == RoleBaseClass {
			sawBaseClass = true
		}
		if u.Role == RoleCall && u.LocalName == "self" {
			sawCall = true
		}
	}
	if !sawBaseClass {
		t.Error("expected a base-class usage for BM (aliased BaseModel)")
	}
	// self.dict() isn't a library reference, so it must not resolve.
	if sawCall {
		t.Error("expected self.dict() not to be resolved as a library usage")
	}
}

func TestRebindMarksLowConfidence(t *testing.T) {
	tree := parse(t, source)
	idx := Build(tree, "pydantic")

	found := false
	for _, u := range idx.Usages {
		if u.LocalName == "pydantic" && u.LowConfidence {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the reassigned `pydantic` name to be tracked low-confidence, not dropped")
	}
}

func TestWildcardImportMarksEveryFreeIdentifierLowConfidence(t *testing.T) {
	tree := parse(t, "from pydantic import *\n\nBaseModel()\n")
	idx := Build(tree, "pydantic")
	if !idx.HasImports() {
		t.Fatal("expected wildcard import to count as HasImports")
	}
	var found bool
	for _, u := range idx.Usages {
		if u.LocalName == "BaseModel" {
			found = true
			if !u.LowConfidence {
				t.Error("expected wildcard-resolved usage to be low confidence")
			}
		}
	}
	if !found {
		t.Fatal("expected a usage for BaseModel under the wildcard import")
	}
}
