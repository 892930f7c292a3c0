// SPDX-License-Identifier: MPL-2.0

// Package manifest reads dependency declarations from project manifest
// files and assembles the dependency graph. Supported formats are
// requirements.txt (and the conventional requirements/ split files) and
// pyproject.toml (both poetry and PEP 621 tables).
//
// Missing manifest files are not errors: a project with no manifests simply
// declares nothing.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"modguard/internal/depgraph"
	"modguard/pkg/collision"
)

// RootVersion is the placeholder version assigned to the consuming project
// itself when it becomes the graph root.
const RootVersion = "0.0.0"

type (
	// Declaration is one declared dependency: a package name and either a
	// version or the "latest" sentinel for unconstrained declarations.
	Declaration struct {
		Name       string
		Constraint string
	}

	// Reader parses one manifest format. Read returns an empty sequence,
	// not an error, when path does not exist.
	Reader interface {
		Read(path string) ([]Declaration, error)
	}

	// RequirementsReader parses pip requirements files.
	RequirementsReader struct{}

	// PyprojectReader parses pyproject.toml dependency tables.
	PyprojectReader struct{}

	// pyproject mirrors the two dependency layouts we read. Poetry
	// constraints may be plain strings or tables with a version field.
	pyproject struct {
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
	}
)

// specifierRe splits "name<op>version" requirement lines. The version group
// may be empty for bare names.
var specifierRe = regexp.MustCompile(`^([^<>=!~\s]+)\s*(?:[<>=!~]=?\s*(\S+).*)?$`)

// Read parses a requirements file. Comment and blank lines are skipped;
// URL requirements ("name @ url") are recorded as unconstrained.
func (RequirementsReader) Read(path string) ([]Declaration, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open requirements file: %w", err)
	}
	defer f.Close()

	var decls []Declaration
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		if name, _, ok := strings.Cut(line, " @ "); ok {
			decls = append(decls, Declaration{Name: strings.TrimSpace(name), Constraint: collision.VersionUnconstrained})
			continue
		}

		m := specifierRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		constraint := m[2]
		if constraint == "" {
			constraint = collision.VersionUnconstrained
		}
		decls = append(decls, Declaration{Name: m[1], Constraint: constraint})
	}
	if err := scanner.Err(); err != nil {
		return decls, fmt.Errorf("read requirements file: %w", err)
	}
	return decls, nil
}

// Read parses a pyproject.toml file. Poetry dependencies are emitted in
// sorted name order (the TOML table carries no order); the "python" entry
// is a runtime constraint, not a package, and is skipped.
func (PyprojectReader) Read(path string) ([]Declaration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pyproject file: %w", err)
	}

	var doc pyproject
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse pyproject file: %w", err)
	}

	var decls []Declaration

	poetryNames := make([]string, 0, len(doc.Tool.Poetry.Dependencies))
	for name := range doc.Tool.Poetry.Dependencies {
		if name == "python" {
			continue
		}
		poetryNames = append(poetryNames, name)
	}
	sort.Strings(poetryNames)
	for _, name := range poetryNames {
		decls = append(decls, Declaration{Name: name, Constraint: poetryConstraint(doc.Tool.Poetry.Dependencies[name])})
	}

	for _, dep := range doc.Project.Dependencies {
		m := specifierRe.FindStringSubmatch(strings.TrimSpace(dep))
		if m == nil {
			continue
		}
		constraint := m[2]
		if constraint == "" {
			constraint = collision.VersionUnconstrained
		}
		decls = append(decls, Declaration{Name: m[1], Constraint: constraint})
	}

	return decls, nil
}

// poetryConstraint extracts a version from a poetry dependency value, which
// may be a plain string ("^2.0") or a table ({version = "^2.0", ...}).
func poetryConstraint(value any) string {
	switch v := value.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if version, ok := v["version"].(string); ok && version != "" {
			return version
		}
	}
	return collision.VersionUnconstrained
}

// ManifestPaths returns the manifest locations checked under projectRoot,
// in precedence order.
func ManifestPaths(projectRoot string) []string {
	return []string{
		filepath.Join(projectRoot, "requirements.txt"),
		filepath.Join(projectRoot, "requirements", "base.txt"),
		filepath.Join(projectRoot, "requirements", "production.txt"),
		filepath.Join(projectRoot, "requirements", "dev.txt"),
		filepath.Join(projectRoot, "pyproject.toml"),
	}
}

// readerFor picks the Reader for a manifest path by file name.
func readerFor(path string) Reader {
	if filepath.Base(path) == "pyproject.toml" {
		return PyprojectReader{}
	}
	return RequirementsReader{}
}

// BuildGraph reads every manifest under projectRoot and assembles the
// dependency graph, with the project directory itself as root node. A
// manifest that fails to parse degrades the graph rather than aborting;
// the per-file errors are returned alongside for the caller to surface.
func BuildGraph(projectRoot string) (*depgraph.Graph, []error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	root := collision.PackageIdentity{Name: filepath.Base(abs), Version: RootVersion}

	g := depgraph.New()
	g.AddNode(root)

	var warnings []error
	for _, path := range ManifestPaths(projectRoot) {
		decls, err := readerFor(path).Read(path)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", path, err))
			continue
		}
		for _, decl := range decls {
			g.AddDependency(root, collision.PackageIdentity{Name: decl.Name, Version: decl.Constraint})
		}
	}
	return g, warnings
}
