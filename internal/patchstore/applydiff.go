package patchstore

import (
	"bytes"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"pymigrate/internal/migerrors"
)

// ApplyUnifiedDiff reconstructs the post-patch bytes for one file by
// parsing a unified diff (as produced by RenderUnified, or hand-edited by
// a reviewer) with github.com/sourcegraph/go-diff and replaying its hunks
// against original — the counterpart to RenderUnified, used by `pymigrate
// apply` to turn a persisted .pymigrate/patches/<hash>.patch back into
// the bytes to write, in a process that never saw the in-memory Patch
// that produced it.
func ApplyUnifiedDiff(original []byte, diffText []byte) ([]byte, error) {
	fd, err := godiff.ParseFileDiff(diffText)
	if err != nil {
		return nil, migerrors.Wrap(migerrors.ErrReadFailed, "parsing unified diff", err)
	}

	oldLines := splitLines(original)
	var out []string
	cursor := 0 // next unconsumed index into oldLines (0-based)

	for _, hunk := range fd.Hunks {
		start := int(hunk.OrigStartLine) - 1
		if start < cursor || start > len(oldLines) {
			return nil, fmt.Errorf("patchstore: hunk starts at line %d, out of order or out of range", hunk.OrigStartLine)
		}
		out = append(out, oldLines[cursor:start]...)
		cursor = start

		for _, line := range strings.Split(strings.TrimSuffix(string(hunk.Body), "\n"), "\n") {
			if line == "" {
				continue
			}
			switch line[0] {
			case ' ':
				if cursor >= len(oldLines) || oldLines[cursor] != line[1:] {
					return nil, fmt.Errorf("patchstore: context mismatch at line %d; file has changed since the patch was proposed", cursor+1)
				}
				out = append(out, line[1:])
				cursor++
			case '-':
				if cursor >= len(oldLines) || oldLines[cursor] != line[1:] {
					return nil, fmt.Errorf("patchstore: removed-line mismatch at line %d; file has changed since the patch was proposed", cursor+1)
				}
				cursor++
			case '+':
				out = append(out, line[1:])
			default:
				return nil, fmt.Errorf("patchstore: malformed hunk line %q", line)
			}
		}
	}
	out = append(out, oldLines[cursor:]...)

	var buf bytes.Buffer
	for i, line := range out {
		buf.WriteString(line)
		if i < len(out)-1 || endsWithNewline(original) {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

func endsWithNewline(data []byte) bool {
	return len(data) > 0 && data[len(data)-1] == '\n'
}
