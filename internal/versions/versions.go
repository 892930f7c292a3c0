// SPDX-License-Identifier: MPL-2.0

// Package versions resolves the "latest" intent of version-constraint fixes
// into concrete versions, using a package index of candidate version strings.
package versions

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
)

type (
	// Index lists the known published versions of a package.
	Index interface {
		Versions(packageName string) []string
	}

	// StaticIndex is an Index backed by a fixed map, for configuration-driven
	// candidate lists and tests.
	StaticIndex map[string][]string

	// Resolver picks concrete versions from an Index.
	Resolver struct {
		Index Index
	}
)

// Versions implements Index.
func (s StaticIndex) Versions(packageName string) []string {
	return s[packageName]
}

// Latest returns the newest valid semantic version published for
// packageName that differs from current. Candidates that do not parse as
// semver are skipped. The second return is false when no candidate
// qualifies.
func (r Resolver) Latest(packageName, current string) (string, bool) {
	var parsed []*semver.Version
	for _, raw := range r.Index.Versions(packageName) {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
	}
	if len(parsed) == 0 {
		return "", false
	}
	sort.Sort(sort.Reverse(semver.Collection(parsed)))

	currentV, err := semver.NewVersion(current)
	for _, v := range parsed {
		if err == nil && v.Equal(currentV) {
			continue
		}
		return v.Original(), true
	}
	return "", false
}

// SuggestConstraints builds a version-constraint-only plan for every
// conflict in the report: one action per owner, pinning it to the newest
// resolvable version. Owners whose package has no resolvable version get no
// action.
func (r Resolver) SuggestConstraints(report *collision.DetailedConflictReport) *fixplan.Plan {
	plan := &fixplan.Plan{Report: report}
	for _, moduleName := range report.ModuleNames() {
		records := report.Records(moduleName)
		if len(records) <= 1 {
			continue
		}

		seen := make(map[string]bool)
		for _, rec := range records {
			owner := rec.Owner
			if seen[owner.Name] {
				continue
			}
			seen[owner.Name] = true

			target, ok := r.Latest(owner.Name, owner.Version)
			if !ok {
				continue
			}
			plan.Add(fixplan.Action{
				Kind:        fixplan.KindVersionConstraint,
				ModuleName:  moduleName,
				PackageName: owner.Name,
				Params: map[string]string{
					fixplan.ParamNewVersion:     target,
					fixplan.ParamCurrentVersion: owner.Version,
				},
			})
		}
	}
	return plan
}
