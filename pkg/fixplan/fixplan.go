// SPDX-License-Identifier: MPL-2.0

// Package fixplan models remediation plans for namespace collisions and the
// heuristic planner that derives them from a conflict report. The planner is
// pure: it records intent (rename this module, re-pin that package) and
// leaves execution to an executor behind the Executor contract.
package fixplan

import (
	"fmt"
	"strings"

	"modguard/pkg/collision"
)

const (
	// KindRenameShim aliases a module under a package-qualified name so the
	// bare name stays unambiguous.
	KindRenameShim Kind = "rename_shim"
	// KindVersionConstraint re-pins a package version.
	KindVersionConstraint Kind = "version_constraint"
	// KindIsolation runs the conflicting package in a separate execution scope.
	KindIsolation Kind = "isolation"
	// KindManual flags a conflict that has no automated remedy.
	KindManual Kind = "manual"

	// ParamRenamedTo is the package-qualified alias a rename shim installs.
	ParamRenamedTo = "renamed_to"
	// ParamOriginalName is the bare module name a rename shim redirects.
	ParamOriginalName = "original_name"
	// ParamNewVersion is the version a constraint action pins to. The
	// "latest" sentinel delegates the concrete choice to a version resolver.
	ParamNewVersion = "new_version"
	// ParamCurrentVersion is the version declared before the fix.
	ParamCurrentVersion = "current_version"
	// ParamReason is the human-readable explanation on a manual action.
	ParamReason = "reason"
	// ParamAltVersions lists alternative candidate versions, comma separated.
	ParamAltVersions = "alt_versions"
)

type (
	// Kind is the remediation strategy of a fix action.
	Kind string

	// Action is one remediation step for one (module, package) pair.
	Action struct {
		Kind        Kind
		ModuleName  string
		PackageName string
		// Params carries kind-specific values keyed by the Param* constants.
		Params map[string]string
	}

	// Plan is an ordered list of actions derived from a conflict report.
	// Order is generation order and is stable for identical input.
	Plan struct {
		Report  *collision.DetailedConflictReport
		Actions []Action
	}

	// Outcome records what happened when one action was executed or simulated.
	Outcome struct {
		Action    Action
		Succeeded bool
		Message   string
	}

	// Result aggregates the outcomes of applying a plan, one per action, in
	// plan order.
	Result struct {
		Plan     *Plan
		Outcomes []Outcome
	}
)

func (a Action) String() string {
	switch a.Kind {
	case KindRenameShim:
		renamed := a.Params[ParamRenamedTo]
		if renamed == "" {
			renamed = a.PackageName + "." + a.ModuleName
		}
		return fmt.Sprintf("Rename '%s' in '%s' to '%s'", a.ModuleName, a.PackageName, renamed)
	case KindVersionConstraint:
		return fmt.Sprintf("Update '%s' to version %s", a.PackageName, a.Params[ParamNewVersion])
	case KindIsolation:
		return fmt.Sprintf("Isolate '%s' in a separate environment", a.PackageName)
	case KindManual:
		return fmt.Sprintf("Manual intervention required for '%s' in '%s'", a.ModuleName, a.PackageName)
	}
	return fmt.Sprintf("Unknown fix action '%s'", a.Kind)
}

// Add appends an action to the plan.
func (p *Plan) Add(a Action) {
	p.Actions = append(p.Actions, a)
}

// HasActions reports whether the plan contains any action.
func (p *Plan) HasActions() bool {
	return len(p.Actions) > 0
}

// ActionsForModule returns every action targeting moduleName, in plan order.
func (p *Plan) ActionsForModule(moduleName string) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.ModuleName == moduleName {
			out = append(out, a)
		}
	}
	return out
}

// ActionsForPackage returns every action targeting packageName, in plan order.
func (p *Plan) ActionsForPackage(packageName string) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.PackageName == packageName {
			out = append(out, a)
		}
	}
	return out
}

func (p *Plan) String() string {
	if !p.HasActions() {
		return "No fixes required."
	}

	var b strings.Builder
	count := 0
	if p.Report != nil {
		count = p.Report.ConflictCount()
	}
	fmt.Fprintf(&b, "Fix plan for %d conflicts:\n", count)
	for _, a := range p.Actions {
		fmt.Fprintf(&b, "- %s\n", a)
	}
	return b.String()
}

func (o Outcome) String() string {
	status := "Successfully applied"
	if !o.Succeeded {
		status = "Failed to apply"
	}
	s := fmt.Sprintf("%s: %s", status, o.Action)
	if o.Message != "" {
		s += "\n  " + o.Message
	}
	return s
}

// Add appends an outcome to the result.
func (r *Result) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// AllSucceeded reports whether every outcome succeeded.
func (r *Result) AllSucceeded() bool {
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			return false
		}
	}
	return true
}

// SuccessCount returns the number of succeeded outcomes.
func (r *Result) SuccessCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}

// FailureCount returns the number of failed outcomes.
func (r *Result) FailureCount() int {
	return len(r.Outcomes) - r.SuccessCount()
}

func (r *Result) String() string {
	if len(r.Outcomes) == 0 {
		return "No fixes were applied."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Applied %d/%d fixes:\n", r.SuccessCount(), len(r.Outcomes))
	for _, o := range r.Outcomes {
		fmt.Fprintf(&b, "- %s\n", o)
	}
	return b.String()
}
