// Package scanner enumerates the Python source files of a project, honoring
// configured exclude globs and a per-file size ceiling, and parses each one
// into a lossless pycst.Tree.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pymigrate/internal/config"
	"pymigrate/internal/logging"
	"pymigrate/internal/migerrors"
	"pymigrate/internal/pycst"
)

// SourceFile is one scanned Python file, parsed and ready for analysis.
type SourceFile struct {
	Path string // absolute path
	Rel  string // path relative to the project root, forward-slash separated
	Tree *pycst.Tree
}

// Scanner walks a project root and parses every Python file it finds.
type Scanner struct {
	config *config.ScannerConfig
	logger *logging.Logger
}

// New builds a Scanner from the shared configuration.
func New(cfg *config.ScannerConfig, logger *logging.Logger) *Scanner {
	return &Scanner{config: cfg, logger: logger}
}

// Scan walks root, skipping excluded paths, and parses every *.py file
// found. Parse failures are collected as diagnostics rather than aborting
// the whole scan, matching the spec's tolerance for unparseable files
// elsewhere in a project.
func (s *Scanner) Scan(ctx context.Context, root string) ([]*SourceFile, []FileDiagnostic, error) {
	var files []*SourceFile
	var diags []FileDiagnostic

	s.logger.Info("scanning project", map[string]interface{}{"root": root})

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && s.matchesExclude(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".py") {
			return nil
		}
		if s.matchesExclude(rel) {
			return nil
		}
		if s.config.MaxFileSizeBytes > 0 && info.Size() > s.config.MaxFileSizeBytes {
			s.logger.Warn("skipping oversized file", map[string]interface{}{
				"file": rel, "sizeBytes": info.Size(), "limitBytes": s.config.MaxFileSizeBytes,
			})
			diags = append(diags, FileDiagnostic{
				Path: rel,
				Err:  migerrors.New(migerrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d byte limit", s.config.MaxFileSizeBytes)),
			})
			return nil
		}

		if !info.Mode().IsRegular() && !s.config.FollowSymlinks {
			return nil
		}

		source, readErr := os.ReadFile(path)
		if readErr != nil {
			diags = append(diags, FileDiagnostic{Path: rel, Err: migerrors.Wrap(migerrors.ErrReadFailed, "reading source file", readErr)})
			return nil
		}

		tree, parseDiags, parseErr := pycst.Parse(source, rel)
		if parseErr != nil {
			s.logger.Warn("file failed to parse, skipping", map[string]interface{}{"file": rel, "error": parseErr.Error()})
			diags = append(diags, FileDiagnostic{Path: rel, Err: migerrors.Wrap(migerrors.ErrParseFailed, "parsing python source", parseErr)})
			return nil
		}
		for _, d := range parseDiags {
			diags = append(diags, FileDiagnostic{Path: rel, Line: d.Line, Err: migerrors.New(migerrors.ErrParseFailed, d.Message)})
		}

		files = append(files, &SourceFile{Path: path, Rel: rel, Tree: tree})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scanner: walking %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })

	s.logger.Info("scan complete", map[string]interface{}{"filesParsed": len(files), "diagnostics": len(diags)})
	return files, diags, nil
}

// FileDiagnostic records a non-fatal problem encountered for one file during
// a scan (too large, unreadable, or unparseable).
type FileDiagnostic struct {
	Path string
	Line int
	Err  error
}

func (d FileDiagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", d.Path, d.Line, d.Err)
	}
	return fmt.Sprintf("%s: %v", d.Path, d.Err)
}

// matchesExclude reports whether rel matches any of the scanner's configured
// glob patterns.
func (s *Scanner) matchesExclude(rel string) bool {
	for _, pattern := range s.config.Exclude {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		// Support "dir/**" style prefix globs, which filepath.Match can't
		// express directly.
		if strings.HasSuffix(pattern, "/**") {
			prefix := strings.TrimSuffix(pattern, "**")
			if strings.HasPrefix(rel, prefix) {
				return true
			}
		}
	}
	return false
}
