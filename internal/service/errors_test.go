package service

import (
	"errors"
	"fmt"
	"testing"

	"docqa/internal/extract"
	"docqa/internal/indexer"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		want    string
	}{
		{
			name: "field and message",
			err: &ValidationError{
				Field:   "message",
				Message: "cannot be empty",
			},
			want: "validation error on field message: cannot be empty",
		},
		{
			name: "empty field",
			err: &ValidationError{
				Field:   "",
				Message: "invalid",
			},
			want: "validation error on field : invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		msg     string
		wantNil bool
		wantMsg string
	}{
		{
			name:    "nil error",
			err:     nil,
			msg:     "context",
			wantNil: true,
		},
		{
			name:    "wrapped error",
			err:     errors.New("original error"),
			msg:     "context",
			wantNil: false,
			wantMsg: "context: original error",
		},
		{
			name:    "empty message",
			err:     errors.New("original error"),
			msg:     "",
			wantNil: false,
			wantMsg: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, tt.msg)
			if tt.wantNil {
				if got != nil {
					t.Errorf("WrapError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Errorf("WrapError() = nil, want error")
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("WrapError() = %v, want %v", got.Error(), tt.wantMsg)
			}
			// Verify error wrapping
			if !errors.Is(got, tt.err) {
				t.Errorf("WrapError() should wrap original error")
			}
		})
	}
}

func TestErrorConstants(t *testing.T) {
	if ErrInvalidInput == nil {
		t.Error("ErrInvalidInput should not be nil")
	}
	if ErrNotFound == nil {
		t.Error("ErrNotFound should not be nil")
	}
	if ErrExternalService == nil {
		t.Error("ErrExternalService should not be nil")
	}
	if ErrUnsupportedFormat == nil || ErrTooLarge == nil {
		t.Error("upload sentinels should not be nil")
	}

	// Test error matching
	if !errors.Is(ErrInvalidInput, ErrInvalidInput) {
		t.Error("ErrInvalidInput should match itself")
	}
	if !errors.Is(ErrNotFound, ErrNotFound) {
		t.Error("ErrNotFound should match itself")
	}
	if !errors.Is(ErrExternalService, ErrExternalService) {
		t.Error("ErrExternalService should match itself")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"embedding failure", fmt.Errorf("%w: timeout", llm.ErrEmbeddingFailure), ErrExternalService},
		{"generation failure", fmt.Errorf("failed to generate answer: %w", llm.ErrGenerationFailure), ErrExternalService},
		{"missing record", storage.ErrNotFound, ErrNotFound},
		{"unsupported format", fmt.Errorf("%w: \".doc\"", extract.ErrUnsupportedFormat), ErrUnsupportedFormat},
		{"corrupt document", extract.ErrCorruptDocument, ErrInvalidInput},
		{"no chunks", indexer.ErrEmptyChunkResult, ErrInvalidInput},
		{"empty question", rag.ErrEmptyQuestion, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err, "operation failed")
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyError() = %v, want %v", got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classifyError() should wrap the original error")
			}
		})
	}

	plain := errors.New("disk full")
	got := classifyError(plain, "operation failed")
	if got.Error() != "operation failed: disk full" {
		t.Errorf("classifyError() = %v", got)
	}
	for _, sentinel := range []error{ErrExternalService, ErrNotFound, ErrInvalidInput, ErrUnsupportedFormat} {
		if errors.Is(got, sentinel) {
			t.Errorf("classifyError() should not match %v", sentinel)
		}
	}
	if classifyError(nil, "x") != nil {
		t.Error("classifyError(nil) should be nil")
	}
}
