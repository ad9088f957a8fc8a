//go:build cgo

package transform

import (
	"strings"
	"testing"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/pycst"
)

func mustParse(t *testing.T, src string) *pycst.Tree {
	t.Helper()
	tree, _, err := pycst.Parse([]byte(src), "sample.py")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tree
}

func render(t *testing.T, tree *pycst.Tree) string {
	t.Helper()
	if !tree.HasPendingEdits() {
		return string(tree.Source)
	}
	committed, _, err := tree.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return string(committed.Render())
}

func TestPydanticMethodRenameDictToModelDump(t *testing.T) {
	src := "from pydantic import BaseModel\n\nclass U(BaseModel):\n    pass\n\ndef f(u):\n    return u.dict()\n"
	tree := mustParse(t, src)

	changes, errs := Pydantic().Apply(tree, knowledge.ConfidenceLow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(changes) == 0 {
		t.Fatal("expected at least one change for u.dict()")
	}

	out := render(t, tree)
	if !strings.Contains(out, "u.model_dump()") {
		t.Fatalf("expected u.model_dump() in output, got:\n%s", out)
	}
	if strings.Contains(out, ".dict()") {
		t.Fatalf("expected .dict() to be fully replaced, got:\n%s", out)
	}
}

func TestPydanticValidatorDecoratorAddsClassmethodAndFieldValidator(t *testing.T) {
	src := "from pydantic import BaseModel, validator\n\n" +
		"class U(BaseModel):\n" +
		"    @validator(\"age\", pre=True)\n" +
		"    def check_age(cls, v):\n" +
		"        return v\n"
	tree := mustParse(t, src)

	changes, errs := Pydantic().Apply(tree, knowledge.ConfidenceLow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(changes) == 0 {
		t.Fatal("expected at least one change for the validator decorator")
	}

	out := render(t, tree)
	if !strings.Contains(out, "@field_validator(\"age\", mode=\"before\")") {
		t.Fatalf("expected rewritten field_validator decorator, got:\n%s", out)
	}
	if !strings.Contains(out, "@classmethod") {
		t.Fatalf("expected an inserted @classmethod decorator, got:\n%s", out)
	}
}

func TestPydanticConfigRestructureRenamesKeys(t *testing.T) {
	src := "from pydantic import BaseModel\n\n" +
		"class U(BaseModel):\n" +
		"    class Config:\n" +
		"        orm_mode = True\n" +
		"        allow_mutation = False\n"
	tree := mustParse(t, src)

	changes, errs := Pydantic().Apply(tree, knowledge.ConfidenceLow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(changes) == 0 {
		t.Fatal("expected at least one change for the Config inner class")
	}

	out := render(t, tree)
	if !strings.Contains(out, "model_config = ConfigDict(from_attributes=True, frozen=True)") {
		t.Fatalf("expected restructured model_config assignment, got:\n%s", out)
	}
}

func TestPydanticMethodRenameSkipsCallsWithArguments(t *testing.T) {
	src := "from pydantic import BaseModel\n\ndef f(u):\n    return u.dict(exclude_none=True)\n"
	tree := mustParse(t, src)

	changes, _ := Pydantic().Apply(tree, knowledge.ConfidenceLow)
	for _, c := range changes {
		if c.Rule == "pydantic-method-rename-dict" {
			t.Fatal("expected the zero-argument-only heuristic to skip a call with arguments")
		}
	}
}

func TestPydanticTransformerIsIdempotent(t *testing.T) {
	src := "from pydantic import BaseModel\n\nclass U(BaseModel):\n    pass\n\ndef f(u):\n    return u.dict()\n"
	tree := mustParse(t, src)

	if _, errs := Pydantic().Apply(tree, knowledge.ConfidenceLow); len(errs) != 0 {
		t.Fatalf("first pass errors: %v", errs)
	}
	committed, _, err := tree.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	changes, errs := Pydantic().Apply(committed, knowledge.ConfidenceLow)
	if len(errs) != 0 {
		t.Fatalf("second pass errors: %v", errs)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no further changes on a second pass, got %+v", changes)
	}
}
