// SPDX-License-Identifier: MPL-2.0

package versions

import (
	"testing"

	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
)

func TestLatest_PicksNewestValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		candidates []string
		current    string
		want       string
		wantOK     bool
	}{
		{
			name:       "newest wins",
			candidates: []string{"1.0.0", "2.1.0", "2.0.0"},
			current:    "1.0.0",
			want:       "2.1.0",
			wantOK:     true,
		},
		{
			name:       "skips current version",
			candidates: []string{"2.1.0", "2.0.0"},
			current:    "2.1.0",
			want:       "2.0.0",
			wantOK:     true,
		},
		{
			name:       "invalid candidates skipped",
			candidates: []string{"not-a-version", "1.5.0", "also bad"},
			current:    "1.0.0",
			want:       "1.5.0",
			wantOK:     true,
		},
		{
			name:       "no valid candidates",
			candidates: []string{"garbage"},
			current:    "1.0.0",
			wantOK:     false,
		},
		{
			name:       "only candidate is current",
			candidates: []string{"1.0.0"},
			current:    "1.0.0",
			wantOK:     false,
		},
		{
			name:       "unparseable current never matches",
			candidates: []string{"3.0.0"},
			current:    collision.VersionUnconstrained,
			want:       "3.0.0",
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Resolver{Index: StaticIndex{"pkg": tt.candidates}}
			got, ok := r.Latest("pkg", tt.current)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (version %q)", tt.wantOK, ok, got)
			}
			if ok && got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSuggestConstraints_OneActionPerResolvableOwner(t *testing.T) {
	t.Parallel()
	inventory := []collision.PackageModules{}
	for _, owner := range []string{"pkg1", "pkg2"} {
		id := collision.PackageIdentity{Name: owner, Version: "1.0.0"}
		inventory = append(inventory, collision.PackageModules{
			Package: id,
			Modules: []collision.ModuleRecord{{Name: "utils", Owner: id}},
		})
	}
	report := collision.Classify(collision.Detect(inventory), nil)

	r := Resolver{Index: StaticIndex{
		"pkg1": {"1.0.0", "2.0.0"},
		// pkg2 has nothing newer, so no action for it.
		"pkg2": {"1.0.0"},
	}}
	plan := r.SuggestConstraints(report)

	if len(plan.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d: %v", len(plan.Actions), plan.Actions)
	}
	action := plan.Actions[0]
	if action.Kind != fixplan.KindVersionConstraint || action.PackageName != "pkg1" {
		t.Errorf("unexpected action: %+v", action)
	}
	if got := action.Params[fixplan.ParamNewVersion]; got != "2.0.0" {
		t.Errorf("expected concrete new_version 2.0.0, got %s", got)
	}
}

func TestSuggestConstraints_EmptyReport(t *testing.T) {
	t.Parallel()
	report := collision.Classify(collision.Detect(nil), nil)
	plan := Resolver{Index: StaticIndex{}}.SuggestConstraints(report)
	if plan.HasActions() {
		t.Errorf("expected no actions, got %v", plan.Actions)
	}
}
