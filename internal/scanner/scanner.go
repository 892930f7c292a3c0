// SPDX-License-Identifier: MPL-2.0

// Package scanner extracts import statements from a project's Python
// sources. Files are scanned in parallel and the results merged in file
// path order, so the same tree always yields the same statement sequence.
package scanner

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"modguard/pkg/collision"
)

// DefaultMaxWorkers bounds concurrent file scans when Options leaves
// MaxWorkers unset.
const DefaultMaxWorkers = 8

// Options controls Scan.
type Options struct {
	// MaxWorkers bounds concurrent file scans. Zero or negative means
	// DefaultMaxWorkers.
	MaxWorkers int
	// Logger receives per-file read warnings. Nil means the package
	// default logger.
	Logger *log.Logger
}

var (
	// importRe matches "import a.b.c as x, d.e" statements.
	importRe = regexp.MustCompile(`^\s*import\s+(.+)$`)
	// fromRe matches "from a.b.c import x" statements.
	fromRe = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\s`)
)

// Scan walks every .py file under root and returns the import statements
// found, ordered by file path then line position. Hidden directories,
// __pycache__ and the .modguard state directory are skipped; a file that
// cannot be read is logged and skipped rather than failing the scan.
func Scan(ctx context.Context, root string, opts Options) ([]collision.ImportStatement, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || name == "__pycache__") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".py") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = DefaultMaxWorkers
	}

	results := make([][]collision.ImportStatement, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			statements, err := scanFile(path)
			if err != nil {
				logger.Warn("skipping unreadable source file", "file", path, "err", err)
				return nil
			}
			results[i] = statements
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []collision.ImportStatement
	for _, statements := range results {
		merged = append(merged, statements...)
	}
	return merged, nil
}

// scanFile extracts the import statements of one source file, in line order.
func scanFile(path string) ([]collision.ImportStatement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var statements []collision.ImportStatement
	lines := bufio.NewScanner(f)
	for lines.Scan() {
		line := lines.Text()
		trimmed := strings.TrimSpace(line)

		if m := fromRe.FindStringSubmatch(line); m != nil {
			// Relative imports carry no top-level module.
			if module := topLevel(m[1]); module != "" {
				statements = append(statements, collision.ImportStatement{
					File:   path,
					Module: module,
					Raw:    trimmed,
				})
			}
			continue
		}
		if m := importRe.FindStringSubmatch(line); m != nil {
			for _, target := range strings.Split(m[1], ",") {
				module := importTarget(target)
				if module == "" {
					continue
				}
				statements = append(statements, collision.ImportStatement{
					File:   path,
					Module: topLevel(module),
					Raw:    trimmed,
				})
			}
		}
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}
	return statements, nil
}

// importTarget strips an "as alias" clause and surrounding space from one
// comma-separated import target.
func importTarget(target string) string {
	target = strings.TrimSpace(target)
	if name, _, ok := strings.Cut(target, " as "); ok {
		target = strings.TrimSpace(name)
	}
	return target
}

// topLevel returns the first segment of a dotted module path. Relative
// imports ("from . import x") have no top-level module and map to "".
func topLevel(module string) string {
	name, _, _ := strings.Cut(module, ".")
	return name
}
