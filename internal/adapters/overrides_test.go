package adapters

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadVersionOverridesReturnsNilWhenAbsent(t *testing.T) {
	overrides, err := LoadVersionOverrides(t.TempDir())
	if err != nil {
		t.Fatalf("LoadVersionOverrides: %v", err)
	}
	if overrides != nil {
		t.Fatalf("expected nil overrides, got %+v", overrides)
	}
}

func TestLoadVersionOverridesParsesLibraries(t *testing.T) {
	root := t.TempDir()
	content := "[libraries.pydantic]\nfrom = \"1.10.0\"\nto = \"2.6.0\"\n"
	if err := os.WriteFile(filepath.Join(root, ".pymigrate-overrides.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	overrides, err := LoadVersionOverrides(root)
	if err != nil {
		t.Fatalf("LoadVersionOverrides: %v", err)
	}
	got, ok := overrides["pydantic"]
	if !ok {
		t.Fatalf("expected a pydantic entry, got %+v", overrides)
	}
	if got.From != "1.10.0" || got.To != "2.6.0" {
		t.Fatalf("unexpected override: %+v", got)
	}
}

func TestLoadVersionOverridesRejectsMalformedTOML(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".pymigrate-overrides.toml"), []byte("not valid toml [["), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := LoadVersionOverrides(root); err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}
