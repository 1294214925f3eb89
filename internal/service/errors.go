package service

import (
	"errors"
	"fmt"

	"docqa/internal/extract"
	"docqa/internal/indexer"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
	// ErrUnsupportedFormat is returned for uploads whose file type cannot be indexed.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrTooLarge is returned for uploads over the size limit.
	ErrTooLarge = errors.New("file too large")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// classifyError wraps err with msg and the service sentinel matching its cause.
func classifyError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var sentinel error
	switch {
	case errors.Is(err, llm.ErrEmbeddingFailure), errors.Is(err, llm.ErrGenerationFailure):
		sentinel = ErrExternalService
	case errors.Is(err, storage.ErrNotFound):
		sentinel = ErrNotFound
	case errors.Is(err, extract.ErrUnsupportedFormat):
		sentinel = ErrUnsupportedFormat
	case errors.Is(err, extract.ErrCorruptDocument),
		errors.Is(err, indexer.ErrEmptyChunkResult),
		errors.Is(err, rag.ErrEmptyQuestion):
		sentinel = ErrInvalidInput
	default:
		return WrapError(err, msg)
	}
	return fmt.Errorf("%s: %w: %w", msg, sentinel, err)
}
