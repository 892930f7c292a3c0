// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load manifest"},
			expected: "failed to load manifest",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load manifest",
				Resource:  "./requirements.txt",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load manifest: ./requirements.txt: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "apply fix", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "apply fix"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "suggestions are listed",
			err: &ActionableError{
				Operation:   "load manifest",
				Resource:    "./requirements.txt",
				Suggestions: []string{"Run 'modguard scan' from the project root", "Check file permissions"},
			},
			contains: []string{
				"failed to load manifest",
				"./requirements.txt",
				"• Run 'modguard scan' from the project root",
				"• Check file permissions",
			},
		},
		{
			name: "error chain only in verbose mode",
			err: &ActionableError{
				Operation: "parse config",
				Cause:     errors.New("syntax error"),
			},
			contains: []string{"failed to parse config: syntax error"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested causes enumerated verbose",
			err: &ActionableError{
				Operation: "apply fix",
				Cause: &ActionableError{
					Operation: "write alias registry",
					Cause:     errors.New("file not found"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to write alias registry: file not found",
				"2. file not found",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_BuildsFullError(t *testing.T) {
	err := NewErrorContext().
		WithOperation("load configuration").
		WithResource("~/.config/modguard/config.toml").
		WithSuggestion("Check TOML syntax").
		WithSuggestion("Verify permissions").
		Wrap(errors.New("parse error")).
		Build()

	if err == nil {
		t.Fatal("Build() returned nil")
	}
	if err.Operation != "load configuration" {
		t.Errorf("Operation = %q", err.Operation)
	}
	if err.Resource != "~/.config/modguard/config.toml" {
		t.Errorf("Resource = %q", err.Resource)
	}
	if len(err.Suggestions) != 2 {
		t.Errorf("Suggestions count = %d, want 2", len(err.Suggestions))
	}
	if err.Cause == nil || err.Cause.Error() != "parse error" {
		t.Errorf("Cause = %v", err.Cause)
	}
}

func TestErrorContext_MissingOperationBuildsNil(t *testing.T) {
	if err := NewErrorContext().WithResource("some/path").Build(); err != nil {
		t.Errorf("Build() without operation = %v, want nil", err)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
}

func TestErrorContext_BuildErrorReturnsActionable(t *testing.T) {
	err := NewErrorContext().WithOperation("scan project sources").BuildError()
	if err == nil {
		t.Fatal("BuildError() returned nil")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Error("BuildError() should return *ActionableError")
	}
}
