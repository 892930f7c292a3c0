// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(raw)
}

func renameAction(module, pkg string) fixplan.Action {
	return fixplan.Action{
		Kind:        fixplan.KindRenameShim,
		ModuleName:  module,
		PackageName: pkg,
		Params:      map[string]string{fixplan.ParamRenamedTo: pkg + "." + module},
	}
}

func pinAction(pkg, version string) fixplan.Action {
	return fixplan.Action{
		Kind:        fixplan.KindVersionConstraint,
		ModuleName:  "utils",
		PackageName: pkg,
		Params: map[string]string{
			fixplan.ParamNewVersion:     version,
			fixplan.ParamCurrentVersion: "1.0.0",
		},
	}
}

func TestExecute_RenameShimWritesRegistry(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	exec := ProjectExecutor{Root: root}

	outcome := exec.Execute(context.Background(), renameAction("utils", "pkg2"))
	if !outcome.Succeeded {
		t.Fatalf("expected success, got: %s", outcome.Message)
	}

	registry := readFile(t, filepath.Join(root, RegistryPath))
	if !strings.Contains(registry, "pkg2.utils") {
		t.Errorf("registry missing alias entry:\n%s", registry)
	}
	if !strings.Contains(registry, "module = 'utils'") && !strings.Contains(registry, `module = "utils"`) {
		t.Errorf("registry missing module field:\n%s", registry)
	}
}

func TestExecute_RenameShimAppendsToExistingRegistry(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	exec := ProjectExecutor{Root: root}

	if o := exec.Execute(context.Background(), renameAction("utils", "pkg2")); !o.Succeeded {
		t.Fatalf("first shim: %s", o.Message)
	}
	if o := exec.Execute(context.Background(), renameAction("json5", "pkg3")); !o.Succeeded {
		t.Fatalf("second shim: %s", o.Message)
	}

	registry := readFile(t, filepath.Join(root, RegistryPath))
	if !strings.Contains(registry, "pkg2.utils") || !strings.Contains(registry, "pkg3.json5") {
		t.Errorf("expected both aliases retained:\n%s", registry)
	}
}

func TestExecute_VersionConstraintRepinsRequirements(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "requests==1.0.0\nflask>=2.0\n")
	exec := ProjectExecutor{Root: root}

	outcome := exec.Execute(context.Background(), pinAction("requests", "2.31.0"))
	if !outcome.Succeeded {
		t.Fatalf("expected success, got: %s", outcome.Message)
	}

	content := readFile(t, filepath.Join(root, "requirements.txt"))
	if !strings.Contains(content, "requests==2.31.0") {
		t.Errorf("requests not repinned:\n%s", content)
	}
	if !strings.Contains(content, "flask>=2.0") {
		t.Errorf("unrelated line must survive:\n%s", content)
	}
}

func TestExecute_VersionConstraintLatestUnpins(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "requests==1.0.0\n")
	exec := ProjectExecutor{Root: root}

	outcome := exec.Execute(context.Background(), pinAction("requests", collision.VersionUnconstrained))
	if !outcome.Succeeded {
		t.Fatalf("expected success, got: %s", outcome.Message)
	}
	content := readFile(t, filepath.Join(root, "requirements.txt"))
	if strings.Contains(content, "==") {
		t.Errorf("expected unpinned requirement:\n%s", content)
	}
	if !strings.Contains(content, "requests") {
		t.Errorf("requirement line lost:\n%s", content)
	}
}

func TestExecute_VersionConstraintFallsBackToPyproject(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), `[tool.poetry.dependencies]
requests = "^1.0"
rich = "^13.0"
`)
	exec := ProjectExecutor{Root: root}

	outcome := exec.Execute(context.Background(), pinAction("requests", "2.31.0"))
	if !outcome.Succeeded {
		t.Fatalf("expected success, got: %s", outcome.Message)
	}
	content := readFile(t, filepath.Join(root, "pyproject.toml"))
	if !strings.Contains(content, "2.31.0") {
		t.Errorf("requests not repinned:\n%s", content)
	}
	if !strings.Contains(content, "rich") {
		t.Errorf("unrelated dependency must survive:\n%s", content)
	}
}

func TestExecute_VersionConstraintUndeclaredPackageFails(t *testing.T) {
	t.Parallel()
	exec := ProjectExecutor{Root: t.TempDir()}
	outcome := exec.Execute(context.Background(), pinAction("ghost", "2.0.0"))
	if outcome.Succeeded {
		t.Fatal("expected failure for undeclared package")
	}
	if !strings.Contains(outcome.Message, "ghost") {
		t.Errorf("message should name the package: %s", outcome.Message)
	}
}

func TestExecute_IsolationAndManualFail(t *testing.T) {
	t.Parallel()
	exec := ProjectExecutor{Root: t.TempDir()}

	iso := exec.Execute(context.Background(), fixplan.Action{Kind: fixplan.KindIsolation, PackageName: "pkg1"})
	if iso.Succeeded {
		t.Error("isolation must report failure")
	}
	manual := exec.Execute(context.Background(), fixplan.Action{
		Kind:   fixplan.KindManual,
		Params: map[string]string{fixplan.ParamReason: "severity INFO"},
	})
	if manual.Succeeded {
		t.Error("manual must report failure")
	}
	if !strings.Contains(manual.Message, "severity INFO") {
		t.Errorf("manual message should carry the reason: %s", manual.Message)
	}
}

func TestExecute_UnknownKindFails(t *testing.T) {
	t.Parallel()
	exec := ProjectExecutor{Root: t.TempDir()}
	outcome := exec.Execute(context.Background(), fixplan.Action{Kind: "teleport"})
	if outcome.Succeeded {
		t.Fatal("unknown kind must fail")
	}
	if !strings.Contains(outcome.Message, "teleport") {
		t.Errorf("message should name the kind: %s", outcome.Message)
	}
}

func TestApply_NeverShortCircuits(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "good==1.0.0\n")

	plan := &fixplan.Plan{}
	plan.Add(pinAction("ghost", "2.0.0"))
	plan.Add(pinAction("good", "2.0.0"))

	result := Apply(context.Background(), ProjectExecutor{Root: root}, plan, Options{})
	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(result.Outcomes))
	}
	if result.Outcomes[0].Succeeded {
		t.Error("first action should fail")
	}
	if !result.Outcomes[1].Succeeded {
		t.Errorf("second action should still run and succeed: %s", result.Outcomes[1].Message)
	}
	if result.SuccessCount() != 1 || result.FailureCount() != 1 {
		t.Errorf("unexpected counts: %d/%d", result.SuccessCount(), result.FailureCount())
	}
}

func TestApply_DryRunMutatesNothing(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	original := "requests==1.0.0\n"
	writeFile(t, filepath.Join(root, "requirements.txt"), original)

	plan := &fixplan.Plan{}
	plan.Add(pinAction("requests", "2.31.0"))
	plan.Add(renameAction("utils", "pkg2"))
	plan.Add(fixplan.Action{Kind: fixplan.KindManual})

	result := Apply(context.Background(), ProjectExecutor{Root: root}, plan, Options{DryRun: true})
	if !result.AllSucceeded() {
		t.Errorf("dry run outcomes must all succeed: %s", result)
	}
	if got := readFile(t, filepath.Join(root, "requirements.txt")); got != original {
		t.Errorf("dry run must not touch requirements.txt:\n%s", got)
	}
	if _, err := os.Stat(filepath.Join(root, RegistryPath)); !os.IsNotExist(err) {
		t.Error("dry run must not create the alias registry")
	}
}
