// Package adapters provides the default, network-facing collaborators the
// core engine depends on only through interfaces: a project's declared
// dependencies, the latest published version of a library, changelog
// documents, and the extraction/rewrite oracles. Every concrete type here
// is swappable per spec.md §6 ("pluggable collaborators behind narrow
// interfaces") without the engine, acquisition, or transform packages
// knowing an HTTP request was ever made.
package adapters

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"pymigrate/internal/migerrors"
)

// pyProjectFile is the subset of a PEP 621 pyproject.toml this lister
// reads: the project's declared runtime dependencies, plus the
// setuptools/poetry-style extras pymigrate doesn't need to distinguish
// for a version-pin lookup.
type pyProjectFile struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]interface{} `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Dependency is one declared runtime dependency: the library name and the
// version constraint pinned in pyproject.toml, if any ("" for an
// unconstrained dependency).
type Dependency struct {
	Name       string
	Constraint string
}

// DependencyLister reads a project's pyproject.toml to discover which
// libraries it depends on, per spec.md §4.1's "Dependency discovery"
// input to library selection.
type DependencyLister struct{}

// NewDependencyLister builds a DependencyLister.
func NewDependencyLister() *DependencyLister { return &DependencyLister{} }

// List reads "<projectRoot>/pyproject.toml" and returns its declared
// dependencies. A project with no pyproject.toml returns an empty list,
// not an error: library names can also be given as arguments to
// `pymigrate analyse`, so dependency discovery is best-effort.
func (l *DependencyLister) List(projectRoot string) ([]Dependency, error) {
	path := filepath.Join(projectRoot, "pyproject.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, migerrors.Wrap(migerrors.ErrReadFailed, "reading pyproject.toml", err)
	}

	var doc pyProjectFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, migerrors.Wrap(migerrors.ErrReadFailed, "parsing pyproject.toml", err)
	}

	var deps []Dependency
	for _, spec := range doc.Project.Dependencies {
		deps = append(deps, parsePEP508(spec))
	}
	for name, constraint := range doc.Tool.Poetry.Dependencies {
		if name == "python" {
			continue
		}
		deps = append(deps, Dependency{Name: name, Constraint: fmt.Sprint(constraint)})
	}
	return deps, nil
}

// parsePEP508 splits a PEP 508 dependency specifier ("pydantic>=2,<3",
// "requests[security]==2.31.0") into a bare library name and the raw
// constraint text; an extras marker, if any, stays at the front of the
// constraint text.
func parsePEP508(spec string) Dependency {
	name := spec
	constraint := ""
	for i, r := range spec {
		if r == '=' || r == '>' || r == '<' || r == '!' || r == '~' || r == '[' || r == ';' || r == ' ' {
			name = spec[:i]
			constraint = spec[i:]
			break
		}
	}
	return Dependency{Name: name, Constraint: constraint}
}
