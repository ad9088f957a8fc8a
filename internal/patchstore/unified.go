package patchstore

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// contextLines is the number of unchanged lines shown around each change,
// matching the conventional unified-diff default.
const contextLines = 3

// opKind is one line-level edit operation produced by diffLines.
type opKind int

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type lineOp struct {
	kind opKind
	text string
}

// splitLines splits data into lines without trailing newlines. The final
// element is dropped if data ends in '\n', so joining with '\n' and
// appending a trailing newline (when the original had one) reproduces the
// input exactly.
func splitLines(data []byte) []string {
	s := string(data)
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// diffLines computes a minimal line-level edit script between old and new
// using classic O(n*m) LCS dynamic programming, after trimming the common
// prefix/suffix — which in practice (a handful of rewritten lines inside
// an otherwise untouched file) reduces the DP table to the small changed
// region instead of the whole file.
func diffLines(old, new []string) []lineOp {
	prefix := 0
	for prefix < len(old) && prefix < len(new) && old[prefix] == new[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(new)-prefix &&
		old[len(old)-1-suffix] == new[len(new)-1-suffix] {
		suffix++
	}

	var ops []lineOp
	for i := 0; i < prefix; i++ {
		ops = append(ops, lineOp{opEqual, old[i]})
	}

	oldMid := old[prefix : len(old)-suffix]
	newMid := new[prefix : len(new)-suffix]
	ops = append(ops, lcsDiff(oldMid, newMid)...)

	for i := len(old) - suffix; i < len(old); i++ {
		ops = append(ops, lineOp{opEqual, old[i]})
	}
	return ops
}

// lcsDiff runs the DP longest-common-subsequence backtrace over a and b.
func lcsDiff(a, b []string) []lineOp {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil
	}
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var ops []lineOp
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, lineOp{opEqual, a[i]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			ops = append(ops, lineOp{opDelete, a[i]})
			i++
		default:
			ops = append(ops, lineOp{opInsert, b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, lineOp{opDelete, a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, lineOp{opInsert, b[j]})
	}
	return ops
}

// buildHunks groups a line-level edit script into unified-diff hunks,
// merging changes that are within 2*contextLines of each other the way
// diff(1) does, so a file with several nearby edits gets one hunk instead
// of several overlapping ones.
func buildHunks(ops []lineOp) []*godiff.Hunk {
	type change struct {
		start, end int // indices into ops, [start,end) is one non-equal run
	}
	var changes []change
	i := 0
	for i < len(ops) {
		if ops[i].kind == opEqual {
			i++
			continue
		}
		start := i
		for i < len(ops) && ops[i].kind != opEqual {
			i++
		}
		changes = append(changes, change{start, i})
	}
	if len(changes) == 0 {
		return nil
	}

	// Merge runs separated by <= 2*contextLines equal lines.
	var groups [][2]int
	curStart, curEnd := changes[0].start, changes[0].end
	for k := 1; k < len(changes); k++ {
		gap := changes[k].start - curEnd
		if gap <= 2*contextLines {
			curEnd = changes[k].end
			continue
		}
		groups = append(groups, [2]int{curStart, curEnd})
		curStart, curEnd = changes[k].start, changes[k].end
	}
	groups = append(groups, [2]int{curStart, curEnd})

	var hunks []*godiff.Hunk
	for _, g := range groups {
		lo := g[0] - contextLines
		if lo < 0 {
			lo = 0
		}
		hi := g[1] + contextLines
		if hi > len(ops) {
			hi = len(ops)
		}
		hunks = append(hunks, renderHunk(ops, lo, hi))
	}
	return hunks
}

// renderHunk builds one *godiff.Hunk body (the +/-/space prefixed lines)
// and its orig/new start-line and line-count header fields from the slice
// ops[lo:hi], tracking absolute old/new line numbers as it walks the full
// ops slice so the header is correct regardless of where the slice starts.
func renderHunk(ops []lineOp, lo, hi int) *godiff.Hunk {
	oldLine, newLine := 1, 1
	for i := 0; i < lo; i++ {
		switch ops[i].kind {
		case opEqual:
			oldLine++
			newLine++
		case opDelete:
			oldLine++
		case opInsert:
			newLine++
		}
	}

	origStart, newStart := oldLine, newLine
	var body strings.Builder
	origLines, newLines := 0, 0
	for i := lo; i < hi; i++ {
		switch ops[i].kind {
		case opEqual:
			body.WriteString(" " + ops[i].text + "\n")
			origLines++
			newLines++
		case opDelete:
			body.WriteString("-" + ops[i].text + "\n")
			origLines++
		case opInsert:
			body.WriteString("+" + ops[i].text + "\n")
			newLines++
		}
	}

	return &godiff.Hunk{
		OrigStartLine: int32(origStart),
		OrigLines:     int32(origLines),
		NewStartLine:  int32(newStart),
		NewLines:      int32(newLines),
		Body:          []byte(body.String()),
	}
}

// RenderUnified renders a unified text diff between oldSource and
// newSource for one file, using github.com/sourcegraph/go-diff to print
// the final FileDiff — the same library internal/diff/gitdiff.go uses to
// parse diffs, here exercised on the render side.
func RenderUnified(path string, oldSource, newSource []byte) ([]byte, error) {
	ops := diffLines(splitLines(oldSource), splitLines(newSource))
	hunks := buildHunks(ops)
	if len(hunks) == 0 {
		return nil, nil
	}
	fd := &godiff.FileDiff{
		OrigName: "a/" + path,
		NewName:  "b/" + path,
		Hunks:    hunks,
	}
	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return nil, fmt.Errorf("patchstore: rendering unified diff for %s: %w", path, err)
	}
	return out, nil
}
