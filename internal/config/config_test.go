package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if cfg.Version != SchemaVersion {
		t.Fatalf("expected version %d, got %d", SchemaVersion, cfg.Version)
	}
	if cfg.Engine.WorkerCount <= 0 {
		t.Fatal("expected positive default worker count")
	}
	if len(cfg.Scanner.Exclude) == 0 {
		t.Fatal("expected default exclude globs")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load with no config file should not error: %v", err)
	}
	if cfg.Engine.TierPolicy != Default().Engine.TierPolicy {
		t.Fatal("expected default tier policy when no config file present")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `version = 1

[engine]
tierPolicy = "tier1-only"
confidenceFloor = "high"
`
	if err := os.WriteFile(filepath.Join(dir, ".pymigrate.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.TierPolicy != "tier1-only" {
		t.Fatalf("expected tierPolicy override, got %q", cfg.Engine.TierPolicy)
	}
	if cfg.Engine.ConfidenceFloor != "high" {
		t.Fatalf("expected confidenceFloor override, got %q", cfg.Engine.ConfidenceFloor)
	}
	// Fields not present in the file keep their defaults.
	if cfg.Scanner.MaxFileSizeBytes != Default().Scanner.MaxFileSizeBytes {
		t.Fatal("expected untouched fields to retain defaults")
	}
}

func TestLoadRejectsUnknownSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	content := "version = 99\n"
	if err := os.WriteFile(filepath.Join(dir, ".pymigrate.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
}
