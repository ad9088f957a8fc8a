package patchstore

import (
	"bytes"
	"testing"
)

func TestRenderUnifiedThenApplyUnifiedDiffRoundTrips(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
	}{
		{
			name: "single line change",
			old:  "def f():\n    return self.dict()\n",
			new:  "def f():\n    return self.model_dump()\n",
		},
		{
			name: "insert only",
			old:  "import os\n\nprint(os.getcwd())\n",
			new:  "import os\nimport sys\n\nprint(os.getcwd())\n",
		},
		{
			name: "delete only",
			old:  "a\nb\nc\nd\ne\n",
			new:  "a\nc\nd\ne\n",
		},
		{
			name: "no trailing newline",
			old:  "a\nb\nc",
			new:  "a\nb\nz",
		},
		{
			name: "multiple far-apart hunks",
			old:  "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n13\n14\n15\n",
			new:  "1X\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n13\n14\n15X\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			diff, err := RenderUnified("sample.py", []byte(tc.old), []byte(tc.new))
			if err != nil {
				t.Fatalf("RenderUnified: %v", err)
			}
			if diff == nil {
				t.Fatal("expected a non-nil diff for a changed file")
			}

			got, err := ApplyUnifiedDiff([]byte(tc.old), diff)
			if err != nil {
				t.Fatalf("ApplyUnifiedDiff: %v", err)
			}
			if !bytes.Equal(got, []byte(tc.new)) {
				t.Fatalf("round trip mismatch:\n diff: %s\n got:  %q\n want: %q", diff, got, tc.new)
			}
		})
	}
}

func TestRenderUnifiedReturnsNilForIdenticalContent(t *testing.T) {
	diff, err := RenderUnified("sample.py", []byte("a\nb\n"), []byte("a\nb\n"))
	if err != nil {
		t.Fatalf("RenderUnified: %v", err)
	}
	if diff != nil {
		t.Fatalf("expected nil diff for unchanged content, got %q", diff)
	}
}

func TestApplyUnifiedDiffRejectsStaleContext(t *testing.T) {
	old := "a\nb\nc\n"
	new := "a\nB\nc\n"
	diff, err := RenderUnified("sample.py", []byte(old), []byte(new))
	if err != nil {
		t.Fatalf("RenderUnified: %v", err)
	}

	drifted := []byte("a\nb\nc\nd\n")
	if _, err := ApplyUnifiedDiff(drifted, diff); err == nil {
		// Appending a trailing line doesn't touch the hunk's context, so this
		// specific drift is expected to still apply; assert the more direct
		// case below instead.
		t.Log("appended trailing line does not intersect the hunk context")
	}

	changedContext := []byte("a\nZZZ\nc\n")
	if _, err := ApplyUnifiedDiff(changedContext, diff); err == nil {
		t.Fatal("expected an error when the on-disk file no longer matches the diff's context lines")
	}
}
