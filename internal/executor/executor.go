// SPDX-License-Identifier: MPL-2.0

// Package executor applies fix plans to a project. Rename shims land in an
// alias registry under .modguard/ rather than rewriting installed packages;
// version constraints edit the project's own manifests. Application is
// all-actions, in plan order: one failed action never hides the outcome of
// the next.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
)

// RegistryPath is the alias registry location relative to the project root.
const RegistryPath = ".modguard/aliases.toml"

type (
	// Executor applies one fix action.
	Executor interface {
		Execute(ctx context.Context, action fixplan.Action) fixplan.Outcome
	}

	// ProjectExecutor applies fixes to the project rooted at Root.
	ProjectExecutor struct {
		Root string
	}

	// aliasRegistry is the serialized form of .modguard/aliases.toml. Keys
	// are the aliased module paths; go-toml marshals maps in sorted key
	// order, so the registry file is stable across runs.
	aliasRegistry struct {
		Aliases map[string]aliasEntry `toml:"aliases"`
	}

	aliasEntry struct {
		Module  string `toml:"module"`
		Package string `toml:"package"`
	}
)

// Options controls Apply.
type Options struct {
	// DryRun previews the plan: every action reports success and nothing
	// on disk changes.
	DryRun bool
}

// Apply executes every action of the plan in order and aggregates the
// outcomes. It never short-circuits: failures are recorded and the loop
// continues.
func Apply(ctx context.Context, exec Executor, plan *fixplan.Plan, opts Options) *fixplan.Result {
	result := &fixplan.Result{Plan: plan}
	for _, action := range plan.Actions {
		if opts.DryRun {
			result.Add(fixplan.Outcome{
				Action:    action,
				Succeeded: true,
				Message:   "dry run: " + action.String(),
			})
			continue
		}
		result.Add(exec.Execute(ctx, action))
	}
	return result
}

// Execute implements Executor.
func (e ProjectExecutor) Execute(ctx context.Context, action fixplan.Action) fixplan.Outcome {
	if err := ctx.Err(); err != nil {
		return failure(action, err.Error())
	}

	switch action.Kind {
	case fixplan.KindRenameShim:
		return e.applyRenameShim(action)
	case fixplan.KindVersionConstraint:
		return e.applyVersionConstraint(action)
	case fixplan.KindIsolation:
		return failure(action, "isolated environments are not automatable; split the conflicting dependencies manually")
	case fixplan.KindManual:
		return failure(action, "manual resolution required: "+action.Params[fixplan.ParamReason])
	default:
		return failure(action, fmt.Sprintf("unknown fix kind %q", action.Kind))
	}
}

// applyRenameShim records the alias in the registry. Import rewriting is the
// project's loader's job; the registry is the durable record of which alias
// replaces which bare module name.
func (e ProjectExecutor) applyRenameShim(action fixplan.Action) fixplan.Outcome {
	alias := action.Params[fixplan.ParamRenamedTo]
	if alias == "" {
		return failure(action, "rename shim action carries no alias")
	}

	registry, err := e.loadRegistry()
	if err != nil {
		return failure(action, err.Error())
	}
	registry.Aliases[alias] = aliasEntry{
		Module:  action.ModuleName,
		Package: action.PackageName,
	}
	if err := e.saveRegistry(registry); err != nil {
		return failure(action, err.Error())
	}
	return success(action, fmt.Sprintf("registered alias '%s' for module '%s'", alias, action.ModuleName))
}

func (e ProjectExecutor) loadRegistry() (aliasRegistry, error) {
	registry := aliasRegistry{Aliases: make(map[string]aliasEntry)}
	raw, err := os.ReadFile(filepath.Join(e.Root, RegistryPath))
	if err != nil {
		if os.IsNotExist(err) {
			return registry, nil
		}
		return registry, fmt.Errorf("read alias registry: %w", err)
	}
	if err := toml.Unmarshal(raw, &registry); err != nil {
		return registry, fmt.Errorf("parse alias registry: %w", err)
	}
	if registry.Aliases == nil {
		registry.Aliases = make(map[string]aliasEntry)
	}
	return registry, nil
}

func (e ProjectExecutor) saveRegistry(registry aliasRegistry) error {
	path := filepath.Join(e.Root, RegistryPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	raw, err := toml.Marshal(registry)
	if err != nil {
		return fmt.Errorf("encode alias registry: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write alias registry: %w", err)
	}
	return nil
}

// applyVersionConstraint rewrites the package's pin in requirements.txt,
// falling back to the poetry table of pyproject.toml. A package declared in
// neither cannot be repinned here.
func (e ProjectExecutor) applyVersionConstraint(action fixplan.Action) fixplan.Outcome {
	target := action.Params[fixplan.ParamNewVersion]
	if target == "" {
		return failure(action, "version constraint action carries no target version")
	}

	changed, err := e.repinRequirements(action.PackageName, target)
	if err != nil {
		return failure(action, err.Error())
	}
	if changed {
		return success(action, fmt.Sprintf("pinned %s to %s in requirements.txt", action.PackageName, target))
	}

	changed, err = e.repinPyproject(action.PackageName, target)
	if err != nil {
		return failure(action, err.Error())
	}
	if changed {
		return success(action, fmt.Sprintf("pinned %s to %s in pyproject.toml", action.PackageName, target))
	}

	return failure(action, fmt.Sprintf("package %s is not declared in any project manifest", action.PackageName))
}

// repinRequirements replaces the version specifier on the package's line in
// requirements.txt. The "latest" sentinel unpins instead.
func (e ProjectExecutor) repinRequirements(packageName, target string) (bool, error) {
	path := filepath.Join(e.Root, "requirements.txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read requirements.txt: %w", err)
	}

	lineRe := regexp.MustCompile(`^` + regexp.QuoteMeta(packageName) + `\s*(?:[<>=!~]=?.*)?$`)
	replacement := packageName
	if target != collision.VersionUnconstrained {
		replacement = packageName + "==" + target
	}

	lines := strings.Split(string(raw), "\n")
	changed := false
	for i, line := range lines {
		if lineRe.MatchString(strings.TrimSpace(line)) {
			lines[i] = replacement
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return false, fmt.Errorf("write requirements.txt: %w", err)
	}
	return true, nil
}

// repinPyproject updates the package's entry in the poetry dependencies
// table. The document round-trips through go-toml, so unrelated tables
// survive (key order inside rewritten tables does not).
func (e ProjectExecutor) repinPyproject(packageName, target string) (bool, error) {
	path := filepath.Join(e.Root, "pyproject.toml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read pyproject.toml: %w", err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("parse pyproject.toml: %w", err)
	}

	tool, _ := doc["tool"].(map[string]any)
	poetry, _ := tool["poetry"].(map[string]any)
	deps, _ := poetry["dependencies"].(map[string]any)
	if _, ok := deps[packageName]; !ok {
		return false, nil
	}

	if target == collision.VersionUnconstrained {
		deps[packageName] = "*"
	} else {
		deps[packageName] = target
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encode pyproject.toml: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, fmt.Errorf("write pyproject.toml: %w", err)
	}
	return true, nil
}

func success(action fixplan.Action, message string) fixplan.Outcome {
	return fixplan.Outcome{Action: action, Succeeded: true, Message: message}
}

func failure(action fixplan.Action, message string) fixplan.Outcome {
	return fixplan.Outcome{Action: action, Succeeded: false, Message: message}
}
