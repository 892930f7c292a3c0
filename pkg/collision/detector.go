// SPDX-License-Identifier: MPL-2.0

package collision

import "strings"

// Detect finds module names claimed by two or more distinct packages.
//
// The inventory is aggregated in slice order, and within each package in
// module order, so identical input order always yields an identical report.
// A module name whose records all share one owner is not a conflict, even
// when the same package lists it several times.
func Detect(inventory []PackageModules) *ConflictReport {
	var order []string
	byName := make(map[string][]ModuleRecord)
	for _, pkg := range inventory {
		for _, mod := range pkg.Modules {
			if _, ok := byName[mod.Name]; !ok {
				order = append(order, mod.Name)
			}
			byName[mod.Name] = append(byName[mod.Name], mod)
		}
	}

	report := NewConflictReport()
	for _, name := range order {
		records := byName[name]
		owners := make(map[string]bool, len(records))
		for _, rec := range records {
			owners[rec.Owner.Name] = true
		}
		if len(owners) < 2 {
			continue
		}
		for _, rec := range records {
			report.add(name, rec)
		}
	}
	return report
}

// Classify annotates a conflict report with severities and usage sites from
// the consumer project's import statements.
//
// An import of the bare conflicting name ("import utils", "from utils
// import …") classifies the site HIGH; any statement that merely mentions
// the name under a dotted sub-path classifies MEDIUM. A conflict's overall
// severity is the most severe site observed; conflicts with no observed
// sites keep the MEDIUM default and stay in the report.
func Classify(report *ConflictReport, imports []ImportStatement) *DetailedConflictReport {
	detailed := newDetailedReport(report)

	for _, stmt := range imports {
		if _, ok := detailed.conflicts[stmt.Module]; !ok {
			continue
		}
		detailed.addUsageSite(stmt.Module, UsageSite{File: stmt.File, ImportText: stmt.Raw})
		detailed.escalate(stmt.Module, classifyImport(stmt.Module, stmt.Raw))
	}
	return detailed
}

// classifyImport rates one import statement against the conflicting module
// it references. An "import" statement may name several comma-separated
// targets; a direct import of the bare module anywhere in the list is HIGH.
func classifyImport(module, raw string) Severity {
	if rest, ok := strings.CutPrefix(raw, "import "); ok {
		for _, target := range strings.Split(rest, ",") {
			if importedName(target) == module {
				return SeverityHigh
			}
		}
		return SeverityMedium
	}
	if rest, ok := strings.CutPrefix(raw, "from "); ok {
		if target := firstField(rest); target == module {
			return SeverityHigh
		}
	}
	return SeverityMedium
}

// importedName strips surrounding space and an "as alias" clause from one
// comma-separated import target.
func importedName(target string) string {
	target = strings.TrimSpace(target)
	if name, _, ok := strings.Cut(target, " as "); ok {
		target = strings.TrimSpace(name)
	}
	return target
}

// firstField returns the first whitespace-delimited token.
func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
