// SPDX-License-Identifier: MPL-2.0

// Package guard is the embedding API: one call takes a project tree and an
// installed-package inventory to a classified conflict report, and another
// takes the report to a fix plan. The CLI is a thin layer over this package.
package guard

import (
	"context"

	"github.com/charmbracelet/log"

	"modguard/internal/scanner"
	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
)

// Options controls ScanProject.
type Options struct {
	// MaxWorkers bounds the parallel source walk.
	MaxWorkers int
	// DefaultSeverity labels conflicts with no observed usage. Empty or
	// invalid means collision.DefaultSeverity.
	DefaultSeverity collision.Severity
	// Logger receives scan warnings. Nil means the default logger.
	Logger *log.Logger
}

// ScanProject detects collisions in the inventory and classifies their
// severity against the import statements found under root. The inventory
// must already be in deterministic order; the returned report iterates in
// conflict discovery order.
func ScanProject(ctx context.Context, root string, inventory []collision.PackageModules, opts Options) (*collision.DetailedConflictReport, error) {
	report := collision.Detect(inventory)

	imports, err := scanner.Scan(ctx, root, scanner.Options{
		MaxWorkers: opts.MaxWorkers,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	detailed := collision.Classify(report, imports)
	detailed.SetDefaultSeverity(opts.DefaultSeverity)
	return detailed, nil
}

// PlanFixes derives a remediation plan from a classified report.
func PlanFixes(report *collision.DetailedConflictReport) *fixplan.Plan {
	return fixplan.Suggest(report)
}
