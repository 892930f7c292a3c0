// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"modguard/internal/ci"
	"modguard/internal/executor"
	"modguard/internal/inventory"
	"modguard/internal/issue"
	"modguard/internal/manifest"
	"modguard/internal/versions"
	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
	"modguard/pkg/guard"
)

var (
	scanFix     bool
	scanDryRun  bool
	scanJSON    bool
	scanExclude []string

	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a project for namespace collisions",
		Long: `Scan inventories the modules provided by the project's installed
packages, reports module names claimed by more than one package, and
grades each collision by how the project's own code imports it.

With --fix, a remediation plan is derived and applied: rename shims
are recorded in ` + executor.RegistryPath + `, version constraints edit
the project manifests. --dry-run previews the plan without touching
anything; the conflicts it reports still count as unresolved.

The command exits 0 when the project is clean (or every fix applied)
and 1 when conflicts remain or any fix failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanFix, "fix", false, "apply the suggested fixes")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "preview fixes without applying them")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "emit a machine-readable JSON report")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "packages to remove from the inventory before detection")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	logger := scanLogger(cmd.ErrOrStderr())
	ctx := cmd.Context()

	report, err := scanProject(ctx, root, logger)
	if err != nil {
		return err
	}

	var plan *fixplan.Plan
	var result *fixplan.Result
	if scanFix || scanDryRun {
		plan = guard.PlanFixes(report)
		concretizeVersions(plan)
		result = executor.Apply(ctx, executor.ProjectExecutor{Root: root}, plan, executor.Options{
			DryRun: scanDryRun,
		})
	}

	out := cmd.OutOrStdout()
	switch {
	case scanJSON:
		if err := writeJSONReport(out, report, plan, result); err != nil {
			return err
		}
	case ci.InPreCommit():
		text, _ := ci.FormatReport(report)
		fmt.Fprintln(out, text)
		if result != nil {
			renderResult(out, result)
		}
	default:
		renderReport(out, report)
		if plan != nil {
			renderPlan(out, plan)
		}
		if result != nil {
			renderResult(out, result)
		}
	}

	if ci.InGitHubActions() {
		ci.WriteAnnotations(out, report)
		if plan != nil {
			ci.WritePlanNotices(out, plan)
		}
		if err := ci.WriteSummary(report); err != nil {
			logger.Warn("failed to publish workflow outputs", "err", err)
		}
	}

	// A dry run never resolves anything; only a real --fix pass that
	// applied every action leaves the project clean.
	fixedClean := scanFix && !scanDryRun && result != nil && result.AllSucceeded()
	if report.HasConflicts() && !fixedClean {
		return &ExitError{Code: 1}
	}
	return nil
}

// scanProject assembles the inventory from manifests and site directories,
// then detects and classifies collisions against the project sources.
func scanProject(ctx context.Context, root string, logger *log.Logger) (*collision.DetailedConflictReport, error) {
	graph, warnings := manifest.BuildGraph(root)
	for _, warn := range warnings {
		logger.Warn("skipping unreadable manifest", "err", warn)
	}

	rootName := filepath.Base(absOrSelf(root))
	packages := graph.DirectDependencies(rootName)
	logger.Debug("declared dependencies", "count", len(packages))

	provider := siteProviderFor(root, logger)
	inv := inventory.Gather(ctx, provider, packages, inventory.Options{
		MaxWorkers: cfg.MaxWorkers,
		Exclude:    append(append([]string(nil), cfg.Exclude...), scanExclude...),
		Logger:     logger,
	})

	defaultSeverity, _ := collision.ParseSeverity(cfg.DefaultSeverity)
	report, err := guard.ScanProject(ctx, root, inv, guard.Options{
		MaxWorkers:      cfg.MaxWorkers,
		DefaultSeverity: defaultSeverity,
		Logger:          logger,
	})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("scan project sources").
			WithResource(root).
			WithSuggestion("Check that the path exists and is readable").
			Wrap(err).
			BuildError()
	}
	return report, nil
}

// siteProviderFor picks the installed-packages directories to inventory:
// configured site dirs first, then the conventional virtualenv locations
// under the project root.
func siteProviderFor(root string, logger *log.Logger) inventory.Provider {
	dirs := make([]string, 0, len(cfg.SiteDirs)+2)
	for _, dir := range cfg.SiteDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		dirs = append(dirs, dir)
	}
	if len(dirs) == 0 {
		matches, _ := filepath.Glob(filepath.Join(root, ".venv", "lib", "python*", "site-packages"))
		dirs = append(dirs, matches...)
		dirs = append(dirs, filepath.Join(root, "site-packages"))
	}
	logger.Debug("site directories", "dirs", dirs)

	providers := make([]inventory.Provider, 0, len(dirs))
	for _, dir := range dirs {
		providers = append(providers, inventory.SiteProvider{Root: dir})
	}
	return firstOf(providers)
}

type multiProvider []inventory.Provider

func firstOf(providers []inventory.Provider) inventory.Provider {
	return multiProvider(providers)
}

// Modules tries each site directory in order and returns the first
// successful discovery.
func (m multiProvider) Modules(ctx context.Context, pkg collision.PackageIdentity) ([]collision.ModuleRecord, error) {
	var lastErr error
	for _, p := range m {
		records, err := p.Modules(ctx, pkg)
		if err == nil {
			return records, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no site directories to search")
	}
	return nil, lastErr
}

// concretizeVersions replaces the "latest" sentinel on version-constraint
// actions with a real version when the configured index knows one.
func concretizeVersions(plan *fixplan.Plan) {
	if len(cfg.Versions) == 0 {
		return
	}
	resolver := versions.Resolver{Index: versions.StaticIndex(cfg.Versions)}
	for i, action := range plan.Actions {
		if action.Kind != fixplan.KindVersionConstraint {
			continue
		}
		if action.Params[fixplan.ParamNewVersion] != collision.VersionUnconstrained {
			continue
		}
		target, ok := resolver.Latest(action.PackageName, action.Params[fixplan.ParamCurrentVersion])
		if !ok {
			continue
		}
		plan.Actions[i].Params[fixplan.ParamNewVersion] = target
	}
}

func scanLogger(w io.Writer) *log.Logger {
	logger := log.New(w)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

type (
	jsonConflict struct {
		Module   string       `json:"module"`
		Severity string       `json:"severity"`
		Owners   []string     `json:"owners"`
		Records  []jsonRecord `json:"records"`
		Sites    []jsonSite   `json:"usage_sites,omitempty"`
	}

	jsonRecord struct {
		Package string `json:"package"`
		Version string `json:"version"`
		Locator string `json:"locator,omitempty"`
	}

	jsonSite struct {
		File   string `json:"file"`
		Import string `json:"import"`
	}

	jsonAction struct {
		Kind    string            `json:"kind"`
		Module  string            `json:"module"`
		Package string            `json:"package"`
		Params  map[string]string `json:"params,omitempty"`
	}

	jsonOutcome struct {
		Action    jsonAction `json:"action"`
		Succeeded bool       `json:"succeeded"`
		Message   string     `json:"message,omitempty"`
	}

	jsonReport struct {
		Conflicts []jsonConflict `json:"conflicts"`
		Plan      []jsonAction   `json:"plan,omitempty"`
		Outcomes  []jsonOutcome  `json:"outcomes,omitempty"`
	}
)

func writeJSONReport(w io.Writer, report *collision.DetailedConflictReport, plan *fixplan.Plan, result *fixplan.Result) error {
	doc := jsonReport{Conflicts: []jsonConflict{}}
	for _, name := range report.ModuleNames() {
		records := report.Records(name)
		if len(records) <= 1 {
			continue
		}
		conflict := jsonConflict{
			Module:   name,
			Severity: string(report.Severity(name)),
			Owners:   report.Owners(name),
		}
		for _, rec := range records {
			conflict.Records = append(conflict.Records, jsonRecord{
				Package: rec.Owner.Name,
				Version: rec.Owner.Version,
				Locator: rec.Locator,
			})
		}
		for _, site := range report.UsageSites(name) {
			conflict.Sites = append(conflict.Sites, jsonSite{File: site.File, Import: site.ImportText})
		}
		doc.Conflicts = append(doc.Conflicts, conflict)
	}
	if plan != nil {
		for _, action := range plan.Actions {
			doc.Plan = append(doc.Plan, toJSONAction(action))
		}
	}
	if result != nil {
		for _, outcome := range result.Outcomes {
			doc.Outcomes = append(doc.Outcomes, jsonOutcome{
				Action:    toJSONAction(outcome.Action),
				Succeeded: outcome.Succeeded,
				Message:   outcome.Message,
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toJSONAction(action fixplan.Action) jsonAction {
	return jsonAction{
		Kind:    string(action.Kind),
		Module:  action.ModuleName,
		Package: action.PackageName,
		Params:  action.Params,
	}
}
