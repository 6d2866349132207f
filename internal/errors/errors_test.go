// Package errors tests for error codes and wrapping.
package errors

import (
	"errors"
	"fmt"
	"testing"
)

// TestAppError_Error verifies error message formatting.
func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "error without underlying error",
			appError: &AppError{Code: ErrInternal, Message: "something failed"},
			want:     "[INTERNAL_ERROR] something failed",
		},
		{
			name:     "error with underlying error",
			appError: &AppError{Code: ErrStoreUnavailable, Message: "write failed", Err: errors.New("disk full")},
			want:     "[STORE_UNAVAILABLE] write failed: disk full",
		},
		{
			name:     "no data",
			appError: New(ErrNoData, "No data to export."),
			want:     "[NO_DATA] No data to export.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appError.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWrap_Unwrap verifies the wrapped error stays reachable.
func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrStoreUnavailable, "failed to read slot", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

// TestIs verifies code matching through fmt wrapping.
func TestIs(t *testing.T) {
	base := New(ErrEncodeFailed, "read failed")
	wrapped := fmt.Errorf("submit: %w", base)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"direct match", base, ErrEncodeFailed, true},
		{"wrapped match", wrapped, ErrEncodeFailed, true},
		{"different code", base, ErrDecodeFailed, false},
		{"plain error", errors.New("x"), ErrEncodeFailed, false},
		{"nil error", nil, ErrEncodeFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCodeOf verifies code extraction with an internal fallback.
func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ErrNotFound, "missing")); got != ErrNotFound {
		t.Errorf("CodeOf() = %q, want %q", got, ErrNotFound)
	}
	if got := CodeOf(errors.New("plain")); got != ErrInternal {
		t.Errorf("CodeOf(plain) = %q, want %q", got, ErrInternal)
	}
}

// TestMessageOf verifies the message excludes the wrapped cause.
func TestMessageOf(t *testing.T) {
	err := fmt.Errorf("export: %w", Wrap(ErrNoData, "No data to export.", errors.New("empty")))
	if got := MessageOf(err); got != "No data to export." {
		t.Errorf("MessageOf() = %q", got)
	}
	if got := MessageOf(errors.New("plain")); got != "plain" {
		t.Errorf("MessageOf(plain) = %q", got)
	}
}
