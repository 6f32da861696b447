package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrDecode     = errors.New("decode error")
	ErrStoreIO    = errors.New("store i/o error")
	ErrIndex      = errors.New("index service error")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Decode marks a malformed record file. Aggregation paths skip-and-log
// these; single-record paths surface them as internal errors.
func Decode(file string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrDecode, cause),
		Message: fmt.Sprintf("malformed record file %s", file),
		Field:   file,
	}
}

// StoreIO marks a failed filesystem operation. The in-memory mutation is
// discarded and the on-disk file is assumed unchanged.
func StoreIO(op, file string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrStoreIO, cause),
		Message: fmt.Sprintf("%s failed for %s", op, file),
		Field:   file,
	}
}

// Index marks a failure talking to the embedding or vector index service.
// HTTP handlers map this to 502 Bad Gateway.
func Index(stage string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrIndex, cause),
		Message: fmt.Sprintf("index %s failed: %v", stage, cause),
	}
}
