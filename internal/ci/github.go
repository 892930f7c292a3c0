// SPDX-License-Identifier: MPL-2.0

// Package ci integrates scan results with CI environments: GitHub Actions
// workflow commands and pre-commit hook output.
package ci

import (
	"fmt"
	"io"
	"os"
	"strings"

	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
)

// InGitHubActions reports whether the process runs inside a GitHub Actions
// job.
func InGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// annotationType maps a conflict severity to a workflow-command annotation
// level. Critical and High fail loudly; Info is informational only.
func annotationType(s collision.Severity) string {
	switch s {
	case collision.SeverityCritical, collision.SeverityHigh:
		return "error"
	case collision.SeverityMedium, collision.SeverityLow:
		return "warning"
	default:
		return "notice"
	}
}

// escapeData escapes a workflow-command message payload.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

// escapeProperty escapes a workflow-command property value.
func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	s = strings.ReplaceAll(s, ",", "%2C")
	return s
}

// WriteAnnotations emits one workflow-command annotation per conflict. A
// conflict with usage sites is annotated at each site's file; one without is
// annotated without a location.
func WriteAnnotations(w io.Writer, report *collision.DetailedConflictReport) {
	for _, name := range report.ModuleNames() {
		records := report.Records(name)
		if len(records) <= 1 {
			continue
		}

		kind := annotationType(report.Severity(name))
		message := fmt.Sprintf("Module '%s' is provided by multiple packages: %s",
			name, strings.Join(report.Owners(name), ", "))

		sites := report.UsageSites(name)
		if len(sites) == 0 {
			fmt.Fprintf(w, "::%s::%s\n", kind, escapeData(message))
			continue
		}
		for _, site := range sites {
			fmt.Fprintf(w, "::%s file=%s::%s\n", kind, escapeProperty(site.File), escapeData(message))
		}
	}
}

// WritePlanNotices emits one notice per suggested fix action.
func WritePlanNotices(w io.Writer, plan *fixplan.Plan) {
	for _, action := range plan.Actions {
		fmt.Fprintf(w, "::notice::Suggested fix: %s\n", escapeData(action.String()))
	}
}

// SetOutput appends a step output to the file named by GITHUB_OUTPUT. It is
// a no-op outside GitHub Actions.
func SetOutput(name, value string) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open GITHUB_OUTPUT: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s=%s\n", name, value); err != nil {
		return fmt.Errorf("write GITHUB_OUTPUT: %w", err)
	}
	return nil
}

// WriteSummary publishes scan outputs for downstream workflow steps.
func WriteSummary(report *collision.DetailedConflictReport) error {
	if err := SetOutput("conflicts", fmt.Sprintf("%d", report.ConflictCount())); err != nil {
		return err
	}
	status := "clean"
	if report.HasConflicts() {
		status = "conflicts"
	}
	return SetOutput("status", status)
}
