// SPDX-License-Identifier: MPL-2.0

package collision

import (
	"fmt"
	"strings"
)

type (
	// ConflictReport maps conflicting module names to the records claiming
	// them. Only genuine conflicts appear: every entry's records span at
	// least two distinct owner names. Iteration order is the order in which
	// conflicts were discovered, which the detector keeps deterministic.
	ConflictReport struct {
		names     []string
		conflicts map[string][]ModuleRecord
	}

	// DetailedConflictReport extends ConflictReport with per-conflict
	// severity and the usage sites that justified it. Severities and usage
	// sites exist only for module names already present as conflicts.
	DetailedConflictReport struct {
		ConflictReport

		defaultSeverity Severity
		severities      map[string]Severity
		sites           map[string][]UsageSite
		siteSeen        map[string]map[string]bool
	}
)

// NewConflictReport creates an empty report.
func NewConflictReport() *ConflictReport {
	return &ConflictReport{conflicts: make(map[string][]ModuleRecord)}
}

func (r *ConflictReport) add(moduleName string, rec ModuleRecord) {
	if _, ok := r.conflicts[moduleName]; !ok {
		r.names = append(r.names, moduleName)
	}
	r.conflicts[moduleName] = append(r.conflicts[moduleName], rec)
}

// ModuleNames returns the conflicting module names in discovery order.
// The caller must not mutate the returned slice.
func (r *ConflictReport) ModuleNames() []string {
	return r.names
}

// Records returns the records claiming moduleName, in aggregation order.
func (r *ConflictReport) Records(moduleName string) []ModuleRecord {
	return r.conflicts[moduleName]
}

// HasConflicts reports whether any module name is claimed by multiple packages.
func (r *ConflictReport) HasConflicts() bool {
	return r.ConflictCount() > 0
}

// ConflictCount returns the number of conflicting module names.
func (r *ConflictReport) ConflictCount() int {
	n := 0
	for _, name := range r.names {
		if len(r.conflicts[name]) > 1 {
			n++
		}
	}
	return n
}

// Owners returns the distinct owner package names for moduleName, in
// first-seen record order.
func (r *ConflictReport) Owners(moduleName string) []string {
	var owners []string
	seen := make(map[string]bool)
	for _, rec := range r.conflicts[moduleName] {
		if seen[rec.Owner.Name] {
			continue
		}
		seen[rec.Owner.Name] = true
		owners = append(owners, rec.Owner.Name)
	}
	return owners
}

func (r *ConflictReport) String() string {
	if !r.HasConflicts() {
		return "No module conflicts detected."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Detected %d module conflicts:\n", r.ConflictCount())
	for _, name := range r.names {
		records := r.conflicts[name]
		if len(records) <= 1 {
			continue
		}
		owners := make([]string, 0, len(records))
		for _, rec := range records {
			owners = append(owners, "'"+rec.Owner.Name+"'")
		}
		fmt.Fprintf(&b, "- Module '%s' conflicts between packages: %s\n", name, strings.Join(owners, ", "))
	}
	return b.String()
}

func newDetailedReport(base *ConflictReport) *DetailedConflictReport {
	return &DetailedConflictReport{
		ConflictReport:  *base,
		defaultSeverity: DefaultSeverity,
		severities:      make(map[string]Severity),
		sites:           make(map[string][]UsageSite),
		siteSeen:        make(map[string]map[string]bool),
	}
}

// Severity returns the classified severity for moduleName. A conflict that
// was never classified at any usage site reports the fallback level, which
// is DefaultSeverity unless SetDefaultSeverity changed it.
func (r *DetailedConflictReport) Severity(moduleName string) Severity {
	if s, ok := r.severities[moduleName]; ok {
		return s
	}
	return r.defaultSeverity
}

// SetDefaultSeverity changes the level reported for conflicts that were
// never classified. Invalid levels are ignored.
func (r *DetailedConflictReport) SetDefaultSeverity(s Severity) {
	if !s.IsValid() {
		return
	}
	r.defaultSeverity = s
}

// SetSeverity overrides the severity of moduleName unconditionally. It is a
// no-op for module names that are not conflicts. Classification uses
// escalate instead, which never downgrades.
func (r *DetailedConflictReport) SetSeverity(moduleName string, s Severity) {
	if _, ok := r.conflicts[moduleName]; !ok {
		return
	}
	r.severities[moduleName] = s
}

// escalate raises the severity of moduleName. Downgrades are ignored: the
// overall level is the most severe classification observed at any site.
func (r *DetailedConflictReport) escalate(moduleName string, s Severity) {
	if _, ok := r.conflicts[moduleName]; !ok {
		return
	}
	if current, ok := r.severities[moduleName]; ok && !s.MoreSevere(current) {
		return
	}
	r.severities[moduleName] = s
}

// UsageSites returns every recorded usage site for moduleName, deduplicated,
// in observation order.
func (r *DetailedConflictReport) UsageSites(moduleName string) []UsageSite {
	return r.sites[moduleName]
}

func (r *DetailedConflictReport) addUsageSite(moduleName string, site UsageSite) {
	if _, ok := r.conflicts[moduleName]; !ok {
		return
	}
	key := site.String()
	if r.siteSeen[moduleName] == nil {
		r.siteSeen[moduleName] = make(map[string]bool)
	}
	if r.siteSeen[moduleName][key] {
		return
	}
	r.siteSeen[moduleName][key] = true
	r.sites[moduleName] = append(r.sites[moduleName], site)
}

func (r *DetailedConflictReport) String() string {
	if !r.HasConflicts() {
		return "No module conflicts detected."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Detected %d module conflicts:\n", r.ConflictCount())
	for _, name := range r.names {
		records := r.conflicts[name]
		if len(records) <= 1 {
			continue
		}
		owners := make([]string, 0, len(records))
		for _, rec := range records {
			owners = append(owners, "'"+rec.Owner.Name+"'")
		}
		fmt.Fprintf(&b, "- [%s] Module '%s' conflicts between packages: %s", r.Severity(name), name, strings.Join(owners, ", "))
		if sites := r.sites[name]; len(sites) > 0 {
			b.WriteString("\n  Used in:")
			for _, site := range sites {
				b.WriteString("\n  - " + site.String())
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
