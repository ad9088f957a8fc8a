package adapters

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParsePEP508(t *testing.T) {
	cases := []struct {
		spec           string
		name, constraint string
	}{
		{"pydantic>=2,<3", "pydantic", ">=2,<3"},
		{"requests[security]==2.31.0", "requests", "[security]==2.31.0"},
		{"click", "click", ""},
		{"sqlalchemy~=2.0", "sqlalchemy", "~=2.0"},
	}
	for _, tc := range cases {
		got := parsePEP508(tc.spec)
		if got.Name != tc.name || got.Constraint != tc.constraint {
			t.Errorf("parsePEP508(%q) = %+v, want {%q %q}", tc.spec, got, tc.name, tc.constraint)
		}
	}
}

func TestDependencyListerReturnsEmptyWithoutPyprojectToml(t *testing.T) {
	deps, err := NewDependencyLister().List(t.TempDir())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(deps) != 0 {
		t.Fatalf("expected no dependencies, got %+v", deps)
	}
}

func TestDependencyListerParsesPEP621Dependencies(t *testing.T) {
	root := t.TempDir()
	content := "[project]\ndependencies = [\"pydantic>=2,<3\", \"requests==2.31.0\"]\n"
	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	deps, err := NewDependencyLister().List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependencies, got %+v", deps)
	}
	names := map[string]bool{deps[0].Name: true, deps[1].Name: true}
	if !names["pydantic"] || !names["requests"] {
		t.Fatalf("expected pydantic and requests, got %+v", deps)
	}
}

func TestDependencyListerParsesPoetryDependenciesAndSkipsPython(t *testing.T) {
	root := t.TempDir()
	content := "[tool.poetry.dependencies]\npython = \"^3.11\"\nsqlalchemy = \"^2.0\"\n"
	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	deps, err := NewDependencyLister().List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(deps) != 1 || deps[0].Name != "sqlalchemy" {
		t.Fatalf("expected only sqlalchemy, got %+v", deps)
	}
}
