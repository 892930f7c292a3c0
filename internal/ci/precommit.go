// SPDX-License-Identifier: MPL-2.0

package ci

import (
	"fmt"
	"os"
	"strings"

	"modguard/pkg/collision"
)

// InPreCommit reports whether the process was launched by the pre-commit
// framework.
func InPreCommit() bool {
	return os.Getenv("PRE_COMMIT") == "1"
}

// HookConfig is the pre-commit hook definition this tool publishes.
type HookConfig struct {
	ID          string
	Name        string
	Entry       string
	Language    string
	PassFiles   bool
	Description string
}

// DefaultHook returns the hook definition for a standard installation.
func DefaultHook() HookConfig {
	return HookConfig{
		ID:          "modguard",
		Name:        "modguard namespace check",
		Entry:       "modguard scan",
		Language:    "system",
		PassFiles:   false,
		Description: "Detect package namespace collisions before commit",
	}
}

// SampleConfig renders the .pre-commit-config.yaml stanza for the hook.
func SampleConfig(hook HookConfig) string {
	var b strings.Builder
	b.WriteString("repos:\n")
	b.WriteString("  - repo: local\n")
	b.WriteString("    hooks:\n")
	fmt.Fprintf(&b, "      - id: %s\n", hook.ID)
	fmt.Fprintf(&b, "        name: %s\n", hook.Name)
	fmt.Fprintf(&b, "        entry: %s\n", hook.Entry)
	fmt.Fprintf(&b, "        language: %s\n", hook.Language)
	fmt.Fprintf(&b, "        pass_filenames: %v\n", hook.PassFiles)
	fmt.Fprintf(&b, "        description: %s\n", hook.Description)
	return b.String()
}

// FormatReport renders a conflict report for pre-commit's terse output and
// returns the exit code the hook should end with: 0 when clean, 1 when any
// conflict exists.
func FormatReport(report *collision.DetailedConflictReport) (string, int) {
	if !report.HasConflicts() {
		return "modguard: no namespace collisions.", 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "modguard: %d namespace collision(s) found.\n", report.ConflictCount())
	for _, name := range report.ModuleNames() {
		if len(report.Records(name)) <= 1 {
			continue
		}
		fmt.Fprintf(&b, "  [%s] %s <- %s\n",
			report.Severity(name), name, strings.Join(report.Owners(name), ", "))
	}
	b.WriteString("Run 'modguard scan --fix --dry-run' to preview fixes.")
	return b.String(), 1
}
