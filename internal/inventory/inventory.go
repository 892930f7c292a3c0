// SPDX-License-Identifier: MPL-2.0

// Package inventory discovers which top-level modules each installed package
// provides. Discovery runs per package with bounded parallelism; the merged
// inventory is ordered by package name so downstream detection and planning
// stay deterministic.
package inventory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"modguard/pkg/collision"
)

// DefaultMaxWorkers bounds concurrent per-package discovery when Options
// leaves MaxWorkers unset.
const DefaultMaxWorkers = 8

type (
	// Provider lists the top-level modules one installed package provides.
	Provider interface {
		Modules(ctx context.Context, pkg collision.PackageIdentity) ([]collision.ModuleRecord, error)
	}

	// SiteProvider discovers modules from an installed-packages directory
	// (a site-packages style layout). It prefers the package's dist-info
	// top_level.txt and falls back to walking the package's own directory.
	SiteProvider struct {
		// Root is the installed-packages directory.
		Root string
	}

	// Options controls Gather.
	Options struct {
		// MaxWorkers bounds concurrent discovery tasks. Zero or negative
		// means DefaultMaxWorkers.
		MaxWorkers int
		// Exclude names packages skipped before discovery.
		Exclude []string
		// Logger receives per-package discovery warnings. Nil means the
		// package default logger.
		Logger *log.Logger
	}
)

// Modules implements Provider.
func (p SiteProvider) Modules(ctx context.Context, pkg collision.PackageIdentity) ([]collision.ModuleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if records, ok := p.fromDistInfo(pkg); ok {
		return records, nil
	}
	return p.fromPackageDir(pkg)
}

// fromDistInfo reads <name>-<version>.dist-info/top_level.txt. The listed
// names are authoritative when the file exists.
func (p SiteProvider) fromDistInfo(pkg collision.PackageIdentity) ([]collision.ModuleRecord, bool) {
	infoDir := filepath.Join(p.Root, fmt.Sprintf("%s-%s.dist-info", normalizeName(pkg.Name), pkg.Version))
	raw, err := os.ReadFile(filepath.Join(infoDir, "top_level.txt"))
	if err != nil {
		return nil, false
	}

	var records []collision.ModuleRecord
	for _, line := range strings.Split(string(raw), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		records = append(records, collision.ModuleRecord{
			Name:    name,
			Locator: filepath.Join(p.Root, name),
			Owner:   pkg,
		})
	}
	return records, true
}

// fromPackageDir lists top-level .py files and package directories under the
// package's own directory. Dunder names and metadata directories are not
// modules.
func (p SiteProvider) fromPackageDir(pkg collision.PackageIdentity) ([]collision.ModuleRecord, error) {
	dir := filepath.Join(p.Root, normalizeName(pkg.Name))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list package directory: %w", err)
	}

	var records []collision.ModuleRecord
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "__") || strings.HasSuffix(name, ".dist-info") {
			continue
		}
		if entry.IsDir() {
			records = append(records, collision.ModuleRecord{
				Name:    name,
				Locator: filepath.Join(dir, name),
				Owner:   pkg,
			})
			continue
		}
		if strings.HasSuffix(name, ".py") {
			records = append(records, collision.ModuleRecord{
				Name:    strings.TrimSuffix(name, ".py"),
				Locator: filepath.Join(dir, name),
				Owner:   pkg,
			})
		}
	}
	return records, nil
}

// normalizeName maps a declared package name to its on-disk form.
func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

// Gather discovers modules for every package and merges the results into an
// inventory ordered by package name. Discovery runs one task per package on
// a bounded errgroup; a package whose discovery fails is kept in the
// inventory with an empty module list and logged as a warning, so one broken
// package never hides collisions among the rest.
func Gather(ctx context.Context, provider Provider, packages []collision.PackageIdentity, opts Options) []collision.PackageModules {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = true
	}

	kept := make([]collision.PackageIdentity, 0, len(packages))
	for _, pkg := range packages {
		if excluded[pkg.Name] {
			continue
		}
		kept = append(kept, pkg)
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = DefaultMaxWorkers
	}

	results := make([][]collision.ModuleRecord, len(kept))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pkg := range kept {
		g.Go(func() error {
			records, err := provider.Modules(ctx, pkg)
			if err != nil {
				logger.Warn("module discovery failed", "package", pkg.Name, "err", err)
				return nil
			}
			results[i] = records
			return nil
		})
	}
	// Tasks swallow their own errors, so Wait only synchronizes.
	_ = g.Wait()

	inventory := make([]collision.PackageModules, 0, len(kept))
	for i, pkg := range kept {
		inventory = append(inventory, collision.PackageModules{Package: pkg, Modules: results[i]})
	}
	sort.SliceStable(inventory, func(i, j int) bool {
		return inventory[i].Package.Name < inventory[j].Package.Name
	})
	return inventory
}
