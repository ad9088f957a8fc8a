// Package version is the single source of truth for build version
// information, referenced by the CLI's --version flag and stamped into
// session reports for later triage.
package version

import "fmt"

const shortHashLen = 7

// These are overridden at link time:
//
//	go build -ldflags "-X pymigrate/internal/version.Version=1.0.0 -X pymigrate/internal/version.Commit=abc123"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// buildInfo snapshots the package vars at call time so Info and Full agree
// even if a caller mutates them between calls (the test suite does exactly
// that, swapping Version/Commit/BuildDate per table case).
type buildInfo struct {
	version, commit, buildDate string
}

func current() buildInfo {
	return buildInfo{version: Version, commit: Commit, buildDate: BuildDate}
}

func (b buildInfo) shortCommit() string {
	if b.commit == "unknown" || len(b.commit) <= shortHashLen {
		return ""
	}
	return b.commit[:shortHashLen]
}

// Info returns the version, with a parenthesized short commit hash appended
// when one is known and long enough to be unambiguous.
func Info() string {
	b := current()
	if sc := b.shortCommit(); sc != "" {
		return fmt.Sprintf("%s (%s)", b.version, sc)
	}
	return b.version
}

// Full returns a multi-line version block for `pymigrate version` and for
// diagnostics bundles attached to a session.
func Full() string {
	b := current()
	return fmt.Sprintf("pymigrate version %s\nCommit: %s\nBuilt: %s", b.version, b.commit, b.buildDate)
}
