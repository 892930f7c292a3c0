// SPDX-License-Identifier: MPL-2.0

// Package collision defines the package/module data model and the namespace
// collision detector: given the top-level modules every installed package
// exports, it finds module names claimed by more than one package and ranks
// how dangerous each clash is based on how the consumer project imports it.
package collision

import (
	"fmt"
	"strings"
)

const (
	// VersionUnconstrained is the sentinel version for packages whose version
	// is unknown or deliberately unpinned.
	VersionUnconstrained = "latest"

	// SeverityCritical means the collision will certainly break at runtime.
	SeverityCritical Severity = "CRITICAL"
	// SeverityHigh means the conflicting name is imported directly by the project.
	SeverityHigh Severity = "HIGH"
	// SeverityMedium means the collision may break in some configurations.
	// It is also the default for conflicts with no observed usage.
	SeverityMedium Severity = "MEDIUM"
	// SeverityLow means the collision is unlikely to cause errors.
	SeverityLow Severity = "LOW"
	// SeverityInfo marks purely informational findings.
	SeverityInfo Severity = "INFO"
)

// DefaultSeverity is applied to conflicts that were never classified.
// A conflict can exist structurally without ever being observed in use;
// it still carries this level rather than being dropped.
const DefaultSeverity = SeverityMedium

type (
	// PackageIdentity identifies a package declared in a manifest. Name is the
	// ecosystem-unique key; Version may be VersionUnconstrained.
	//
	// Graph and report identity is by Name only: two declarations of the same
	// package at different versions refer to the same logical package.
	PackageIdentity struct {
		Name    string
		Version string
	}

	// ModuleRecord describes one top-level importable module exported by a
	// package. Records are immutable once produced by an inventory provider.
	ModuleRecord struct {
		// Name is the bare symbol a consumer would import.
		Name string
		// Locator is an opaque location hint (usually a file path).
		Locator string
		// Owner is the package that exports this module. Informational
		// back-link only; it does not participate in record identity.
		Owner PackageIdentity
	}

	// PackageModules pairs a package with the modules it exports. A slice of
	// these is the inventory the detector consumes; slice order is the
	// aggregation order, so callers must fix it before detection (the
	// inventory gatherer sorts by package name).
	PackageModules struct {
		Package PackageIdentity
		Modules []ModuleRecord
	}

	// Severity ranks how likely a collision is to cause a real runtime
	// ambiguity, most severe first: CRITICAL > HIGH > MEDIUM > LOW > INFO.
	Severity string

	// ImportStatement is one import found in the consumer project's own
	// source, as reported by the source scanner.
	ImportStatement struct {
		// File is the path of the scanned source file.
		File string
		// Module is the top-level module the statement resolves against.
		Module string
		// Raw is the normalized import text (e.g. "import utils" or
		// "from utils.db import open").
		Raw string
	}

	// UsageSite records where a conflicting module is used.
	UsageSite struct {
		File       string
		ImportText string
	}
)

// String renders the identity in pinned form, e.g. "requests==2.31.0".
func (p PackageIdentity) String() string {
	return p.Name + "==" + p.Version
}

func (m ModuleRecord) String() string {
	return fmt.Sprintf("%s (from %s)", m.Name, m.Owner)
}

func (u UsageSite) String() string {
	return u.File + ": " + u.ImportText
}

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// IsValid reports whether s is one of the defined severity levels.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// MoreSevere reports whether s outranks other. Unknown levels rank lowest.
func (s Severity) MoreSevere(other Severity) bool {
	return severityRank[s] > severityRank[other]
}

// ParseSeverity converts a string to a Severity, accepting any case.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid severity %q", raw)
	}
	return s, nil
}
