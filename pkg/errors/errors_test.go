package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageIncludesSuggestion(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "file not found: gl.csv")
	if err.Error() != "file not found: gl.csv" {
		t.Errorf("Error() = %q", err.Error())
	}

	err = err.WithSuggestion("check the path")
	if !strings.Contains(err.Error(), "(suggestion: check the path)") {
		t.Errorf("Error() = %q, want suggestion appended", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryParse, CodeInvalidData, "bad row")

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the wrapped cause")
	}
	if len(err.StackTrace) == 0 {
		t.Error("wrapped error should carry a stack trace")
	}
	if Wrap(nil, CategoryParse, CodeInvalidData, "bad row") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   *ReconcilerError
		fatal bool
	}{
		{"parse error degrades", ParseError(CodeInvalidData, "gl.csv", 3, "Debit", "abc", nil), false},
		{"file error degrades", FileError(CodeFileNotFound, "gl.csv", nil), false},
		{"double consumption is fatal", ConsistencyError(CodeDoubleConsumption, "GL-1", "second consume"), true},
		{"orphaned candidate is fatal", ConsistencyError(CodeOrphanedCandidate, "B-9", "not in pool"), true},
		{"configuration is fatal", ConfigurationError(CodeInvalidConfig, "max_rounds", 0, nil), true},
		{"internal is fatal", InternalError(CodeUnexpectedError, "round attribution", nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsFatal(); got != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.fatal)
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		code     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryReconciliation, 5},
		{CategoryInternal, 5},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "test")
		if got := err.GetExitCode(); got != tt.code {
			t.Errorf("GetExitCode(%s) = %d, want %d", tt.category, got, tt.code)
		}
	}
}

func TestConstructorContext(t *testing.T) {
	err := ParseError(CodeInvalidFormat, "bank.csv", 7, "Credit", "n/a", nil)

	if err.Category != CategoryParse {
		t.Errorf("Category = %s, want %s", err.Category, CategoryParse)
	}
	if err.Context["line"] != 7 {
		t.Errorf("Context[line] = %v, want 7", err.Context["line"])
	}
	if err.Context["column"] != "Credit" {
		t.Errorf("Context[column] = %v, want Credit", err.Context["column"])
	}
	if err.Suggestion == "" {
		t.Error("constructor should set a suggestion")
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*ReconcilerError{
		ParseError(CodeInvalidData, "gl.csv", 2, "Debit", "x", nil),
		ParseError(CodeInvalidData, "gl.csv", 5, "Credit", "y", nil),
		FileError(CodeFilePermission, "bank.csv", nil),
	}
	summary := NewErrorSummary(errs)

	if summary.Total != 3 {
		t.Errorf("Total = %d, want 3", summary.Total)
	}
	if summary.ByCategory[CategoryParse] != 2 {
		t.Errorf("parse count = %d, want 2", summary.ByCategory[CategoryParse])
	}
	if !summary.HasCategory(CategoryFile) {
		t.Error("HasCategory(file) = false, want true")
	}
	if summary.HasCategory(CategoryInternal) {
		t.Error("HasCategory(internal) = true, want false")
	}
	if got := summary.GetExitCode(); got != 3 {
		t.Errorf("GetExitCode() = %d, want 3 (parse outranks file)", got)
	}
	if !strings.Contains(summary.Error(), "3 errors occurred") {
		t.Errorf("Error() = %q", summary.Error())
	}
}

func TestErrorSummaryEmpty(t *testing.T) {
	summary := NewErrorSummary(nil)
	if summary.Error() != "no errors" {
		t.Errorf("Error() = %q, want %q", summary.Error(), "no errors")
	}
	if summary.GetExitCode() != 0 {
		t.Errorf("GetExitCode() = %d, want 0", summary.GetExitCode())
	}
}

func TestIsConsistencyError(t *testing.T) {
	direct := ConsistencyError(CodeDoubleConsumption, "GL-1", "consumed twice")
	if !IsConsistencyError(direct) {
		t.Error("direct consistency error not detected")
	}

	wrapped := fmt.Errorf("running round 2: %w", direct)
	if !IsConsistencyError(wrapped) {
		t.Error("wrapped consistency error not detected")
	}

	if IsConsistencyError(FileError(CodeFileNotFound, "gl.csv", nil)) {
		t.Error("file error misclassified as consistency error")
	}
	if IsConsistencyError(fmt.Errorf("plain error")) {
		t.Error("plain error misclassified as consistency error")
	}
}
