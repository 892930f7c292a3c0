// SPDX-License-Identifier: MPL-2.0

package fixplan

import (
	"sort"
	"strings"

	"modguard/pkg/collision"
)

// Suggest derives a fix plan from a classified conflict report.
//
// Per conflicting module the strategy is decided by severity, first match
// wins: MEDIUM/LOW pick a rename shim, CRITICAL/HIGH record a version
// re-pin intent, and everything else (INFO, unclassified values) falls back
// to manual. Actions accumulate in module-then-package order, so the plan is
// byte-identical across runs for the same report.
func Suggest(report *collision.DetailedConflictReport) *Plan {
	plan := &Plan{Report: report}

	for _, moduleName := range report.ModuleNames() {
		records := report.Records(moduleName)
		if len(records) <= 1 {
			// Defensive: the detector never emits single-record entries.
			continue
		}

		owners := report.Owners(moduleName)
		switch severity := report.Severity(moduleName); severity {
		case collision.SeverityMedium, collision.SeverityLow:
			planRenameShims(plan, report, moduleName, owners)
		case collision.SeverityCritical, collision.SeverityHigh:
			planVersionConstraints(plan, report, moduleName, owners)
		default:
			planManual(plan, moduleName, owners)
		}
	}
	return plan
}

// planRenameShims keeps the most-used owner's module under the bare name and
// emits one rename action per remaining owner.
func planRenameShims(plan *Plan, report *collision.DetailedConflictReport, moduleName string, owners []string) {
	ranked := rankByImportFrequency(report.UsageSites(moduleName), owners)
	for _, owner := range ranked[1:] {
		plan.Add(Action{
			Kind:        KindRenameShim,
			ModuleName:  moduleName,
			PackageName: owner,
			Params: map[string]string{
				ParamRenamedTo:    owner + "." + moduleName,
				ParamOriginalName: moduleName,
			},
		})
	}
}

// planVersionConstraints records the intent to re-pin every owning package.
// Picking an installable version is the version resolver's job; the planner
// only writes the "latest" sentinel.
func planVersionConstraints(plan *Plan, report *collision.DetailedConflictReport, moduleName string, owners []string) {
	versions := ownerVersions(report.Records(moduleName))
	for _, owner := range owners {
		plan.Add(Action{
			Kind:        KindVersionConstraint,
			ModuleName:  moduleName,
			PackageName: owner,
			Params: map[string]string{
				ParamNewVersion:     collision.VersionUnconstrained,
				ParamCurrentVersion: versions[owner],
			},
		})
	}
}

func planManual(plan *Plan, moduleName string, owners []string) {
	for _, owner := range owners {
		plan.Add(Action{
			Kind:        KindManual,
			ModuleName:  moduleName,
			PackageName: owner,
			Params: map[string]string{
				ParamReason: "complex conflict requires manual intervention",
			},
		})
	}
}

// rankByImportFrequency orders owners by how often their package name
// appears in the recorded usage-site import texts, most frequent first with
// name as tie-break. When no site mentions any owner, the ranking falls back
// to lexicographic order. The first entry is the keeper.
func rankByImportFrequency(sites []collision.UsageSite, owners []string) []string {
	counts := make(map[string]int, len(owners))
	total := 0
	for _, site := range sites {
		for _, owner := range owners {
			if strings.Contains(site.ImportText, owner) {
				counts[owner]++
				total++
			}
		}
	}

	ranked := make([]string, len(owners))
	copy(ranked, owners)
	if total == 0 {
		sort.Strings(ranked)
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}

// ownerVersions maps each owner name to the version of its first record.
func ownerVersions(records []collision.ModuleRecord) map[string]string {
	versions := make(map[string]string, len(records))
	for _, rec := range records {
		if _, ok := versions[rec.Owner.Name]; !ok {
			versions[rec.Owner.Name] = rec.Owner.Version
		}
	}
	return versions
}
