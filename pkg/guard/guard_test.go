// SPDX-License-Identifier: MPL-2.0

package guard

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"modguard/pkg/collision"
	"modguard/pkg/fixplan"
)

func inventoryFor(module string, owners ...string) []collision.PackageModules {
	var inv []collision.PackageModules
	for _, owner := range owners {
		id := collision.PackageIdentity{Name: owner, Version: "1.0.0"}
		inv = append(inv, collision.PackageModules{
			Package: id,
			Modules: []collision.ModuleRecord{{Name: module, Owner: id}},
		})
	}
	return inv
}

func TestScanProject_ClassifiesAgainstSources(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "app.py"), []byte("import utils\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	report, err := ScanProject(context.Background(), root, inventoryFor("utils", "pkg1", "pkg2"),
		Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if !report.HasConflicts() {
		t.Fatal("expected a conflict")
	}
	if got := report.Severity("utils"); got != collision.SeverityHigh {
		t.Errorf("direct import should classify HIGH, got %s", got)
	}
	if sites := report.UsageSites("utils"); len(sites) != 1 {
		t.Errorf("expected 1 usage site, got %v", sites)
	}
}

func TestScanProject_NoSourcesDefaultsMedium(t *testing.T) {
	t.Parallel()
	report, err := ScanProject(context.Background(), t.TempDir(), inventoryFor("utils", "pkg1", "pkg2"),
		Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got := report.Severity("utils"); got != collision.SeverityMedium {
		t.Errorf("unused conflict should stay MEDIUM, got %s", got)
	}
}

func TestScanProject_ConfiguredDefaultLabelsUnobserved(t *testing.T) {
	t.Parallel()
	report, err := ScanProject(context.Background(), t.TempDir(), inventoryFor("utils", "pkg1", "pkg2"),
		Options{DefaultSeverity: collision.SeverityLow, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got := report.Severity("utils"); got != collision.SeverityLow {
		t.Errorf("unused conflict should carry the configured default, got %s", got)
	}
}

func TestPlanFixes_DelegatesToPlanner(t *testing.T) {
	t.Parallel()
	report, err := ScanProject(context.Background(), t.TempDir(), inventoryFor("utils", "bbb", "aaa"),
		Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	plan := PlanFixes(report)
	if len(plan.Actions) != 1 {
		t.Fatalf("expected 1 rename action, got %v", plan.Actions)
	}
	if plan.Actions[0].Kind != fixplan.KindRenameShim {
		t.Errorf("MEDIUM conflict should plan a rename shim, got %s", plan.Actions[0].Kind)
	}
}
