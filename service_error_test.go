package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestServiceError_Error(t *testing.T) {
	original := fmt.Errorf("connection refused")
	se := &ServiceError{
		Service:   "config",
		Operation: "GetConfig",
		Err:       original,
	}

	got := se.Error()
	expected := "[config.GetConfig] connection refused"
	if got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
}

func TestServiceError_ErrorFormat(t *testing.T) {
	tests := []struct {
		name      string
		service   string
		operation string
		err       error
		want      string
	}{
		{
			name:      "basic error",
			service:   "config",
			operation: "SaveConfig",
			err:       fmt.Errorf("disk full"),
			want:      "[config.SaveConfig] disk full",
		},
		{
			name:      "empty service name",
			service:   "",
			operation: "Startup",
			err:       fmt.Errorf("no home dir"),
			want:      "[.Startup] no home dir",
		},
		{
			name:      "empty operation name",
			service:   "app",
			operation: "",
			err:       fmt.Errorf("timeout"),
			want:      "[app.] timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := &ServiceError{Service: tt.service, Operation: tt.operation, Err: tt.err}
			if got := se.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	original := fmt.Errorf("original error")
	se := &ServiceError{Service: "app", Operation: "Op", Err: original}

	if unwrapped := se.Unwrap(); unwrapped != original {
		t.Errorf("Unwrap() returned different error: got %v, want %v", unwrapped, original)
	}
}

func TestServiceError_ErrorsIs(t *testing.T) {
	sentinel := fmt.Errorf("sentinel error")
	wrapped := WrapError("app", "RunPipeline", fmt.Errorf("outer: %w", sentinel))

	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is should find the sentinel through the chain")
	}
}

func TestWrapError_NilPassthrough(t *testing.T) {
	if err := WrapError("app", "Op", nil); err != nil {
		t.Errorf("WrapError(nil) = %v, want nil", err)
	}
}

func TestWrapOperationError(t *testing.T) {
	inner := fmt.Errorf("permission denied")
	err := WrapOperationError("render speaker notes", inner)
	want := "failed to render speaker notes: permission denied"
	if err.Error() != want {
		t.Errorf("WrapOperationError = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped error lost the chain")
	}
	if WrapOperationError("anything", nil) != nil {
		t.Error("WrapOperationError(nil) should be nil")
	}
}
