package patchstore

import (
	"os"
	"path/filepath"
	"testing"

	"pymigrate/internal/transform"
)

func TestOpenCreatesLayout(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, dir := range []string{s.Root(), s.PatchesDir(), s.CacheDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected %s to exist as a directory, err=%v", dir, err)
		}
	}
}

func TestSaveAndLoadPatchDiffRoundTrips(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p, err := NewPatch("app.py", []byte("a\n"), []byte("b\n"), nil)
	if err != nil {
		t.Fatalf("NewPatch: %v", err)
	}
	if err := s.SavePatch(p); err != nil {
		t.Fatalf("SavePatch: %v", err)
	}
	got, err := s.LoadPatchDiff(p.Hash)
	if err != nil {
		t.Fatalf("LoadPatchDiff: %v", err)
	}
	if string(got) != string(p.Diff) {
		t.Fatalf("round trip mismatch: got %q, want %q", got, p.Diff)
	}
}

func TestSaveAndLoadSessionRoundTrips(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	summary := &SessionSummary{
		ID:          "session-1",
		ProjectRoot: "/repo",
		TierPolicy:  "all",
		Patches: []PatchSummary{
			{Path: "app.py", Hash: "abc123", State: StateReady, ChangeCount: 2},
		},
	}
	if err := s.SaveSession(summary); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, err := s.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.ID != summary.ID || got.TierPolicy != summary.TierPolicy || len(got.Patches) != 1 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	if got.Patches[0].Hash != "abc123" || got.Patches[0].ChangeCount != 2 {
		t.Fatalf("unexpected patch summary: %+v", got.Patches[0])
	}
}

func TestLoadSessionErrorsWhenAbsent(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.LoadSession(); err == nil {
		t.Fatal("expected an error loading a session that was never saved")
	}
}

func TestApplyToDiskWritesBackupAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	target := filepath.Join(root, "app.py")
	if err := os.WriteFile(target, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p := &Patch{Path: "app.py", OldSource: []byte("old\n"), NewSource: []byte("new\n")}
	if err := s.ApplyToDisk(p, true); err != nil {
		t.Fatalf("ApplyToDisk: %v", err)
	}
	if p.State != StateApplied {
		t.Fatalf("expected StateApplied, got %s", p.State)
	}
	gotContent, err := os.ReadFile(target)
	if err != nil || string(gotContent) != "new\n" {
		t.Fatalf("expected file to contain new content, got %q, err=%v", gotContent, err)
	}
	backup, err := os.ReadFile(target + ".bak")
	if err != nil || string(backup) != "old\n" {
		t.Fatalf("expected backup with old content, got %q, err=%v", backup, err)
	}

	// Re-applying the same patch (target already matches NewSource) must be
	// a no-op: it must not touch the backup file's content a second time.
	if err := os.Remove(target + ".bak"); err != nil {
		t.Fatalf("remove backup: %v", err)
	}
	if err := s.ApplyToDisk(p, true); err != nil {
		t.Fatalf("second ApplyToDisk: %v", err)
	}
	if _, err := os.Stat(target + ".bak"); err == nil {
		t.Fatal("expected the idempotent no-op path to skip re-writing the backup")
	}
}

func TestSummarize(t *testing.T) {
	p := &Patch{
		Path:    "app.py",
		Hash:    "h",
		State:   StateReady,
		Changes: []transform.Change{{Rule: "r1"}, {Rule: "r2"}},
	}
	sum := Summarize(p)
	if sum.Path != "app.py" || sum.Hash != "h" || sum.State != StateReady || sum.ChangeCount != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
