// GO TESTING BASICS:
// 1. Test files MUST end in _test.go — Go's tooling auto-discovers them
// 2. Test functions MUST start with "Test" and take *testing.T as the only param
// 3. Same package as the code being tested (so we can access unexported stuff)
// 4. Run with: go test ./internal/apperror/ -v  (-v = verbose, shows each test name)
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// This is Go's idiomatic pattern for testing multiple cases.
// Instead of writing separate test functions, we define a slice of test cases
// and loop over them. Adding a new case = adding one struct to the slice.

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string // Descriptive name for test output
		err       error  // The error to test
		target    error  // What we expect it to match
		wantMatch bool   // Should errors.Is() return true?
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("question", "1001"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Decode wraps ErrDecode",
			err:       Decode("question_7.json", errors.New("unexpected end of JSON input")),
			target:    ErrDecode,
			wantMatch: true,
		},
		{
			name:      "StoreIO wraps ErrStoreIO",
			err:       StoreIO("write", "question_7.json", errors.New("disk full")),
			target:    ErrStoreIO,
			wantMatch: true,
		},
		{
			name:      "Index wraps ErrIndex",
			err:       Index("embed", errors.New("connection refused")),
			target:    ErrIndex,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("question", "1001"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Decode does NOT match ErrStoreIO",
			err:       Decode("question_7.json", errors.New("bad")),
			target:    ErrStoreIO,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

// Wrapping with fmt.Errorf + %w must preserve the chain — handlers rely on
// errors.Is walking through service-layer wrapping.
func TestWrappedChain(t *testing.T) {
	inner := NotFound("answer", "100001")
	wrapped := fmt.Errorf("patching question 1001: %w", inner)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error lost ErrNotFound from the chain")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As failed to extract *AppError")
	}
	if appErr.Message != "answer not found with id 100001" {
		t.Errorf("Message = %q", appErr.Message)
	}
}
