// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
)

// renderReport writes the styled human-readable conflict report.
func renderReport(w io.Writer, report *collision.DetailedConflictReport) {
	if !report.HasConflicts() {
		fmt.Fprintln(w, SuccessStyle.Render("✓ No module conflicts detected."))
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render(fmt.Sprintf("Detected %d module conflicts:", report.ConflictCount())))
	for _, name := range report.ModuleNames() {
		records := report.Records(name)
		if len(records) <= 1 {
			continue
		}

		severity := report.Severity(name)
		fmt.Fprintf(w, "  %s %s %s %s\n",
			severityStyle(severity).Render("["+string(severity)+"]"),
			CmdStyle.Render(name),
			SubtitleStyle.Render("provided by"),
			strings.Join(report.Owners(name), ", "))

		for _, site := range report.UsageSites(name) {
			fmt.Fprintf(w, "      %s\n", VerboseStyle.Render(site.String()))
		}
	}
}

// renderPlan writes the suggested fix actions.
func renderPlan(w io.Writer, plan *fixplan.Plan) {
	if !plan.HasActions() {
		return
	}
	fmt.Fprintln(w, TitleStyle.Render("Fix plan:"))
	for _, action := range plan.Actions {
		fmt.Fprintf(w, "  - %s\n", action)
	}
}

// renderResult writes per-action outcomes and the success tally.
func renderResult(w io.Writer, result *fixplan.Result) {
	if len(result.Outcomes) == 0 {
		return
	}
	for _, outcome := range result.Outcomes {
		marker := SuccessStyle.Render("✓")
		if !outcome.Succeeded {
			marker = ErrorStyle.Render("✗")
		}
		fmt.Fprintf(w, "  %s %s\n", marker, outcome.Action)
		if outcome.Message != "" {
			fmt.Fprintf(w, "    %s\n", VerboseStyle.Render(outcome.Message))
		}
	}
	fmt.Fprintf(w, "%s\n", SubtitleStyle.Render(
		fmt.Sprintf("Applied %d/%d fixes.", result.SuccessCount(), len(result.Outcomes))))
}
