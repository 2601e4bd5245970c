package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidConfig is returned for a bad chunk size, overlap, k or other setting.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrDimensionMismatch is returned when chunk/embedding counts, vector sizes
	// or embedding models disagree.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrIndexNotFound is returned when no index has been saved at a location.
	ErrIndexNotFound = errors.New("index not found")
	// ErrEmbeddingService is returned when the embedding service call fails.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrSynthesis is returned when the completion service call fails.
	ErrSynthesis = errors.New("synthesis error")
)

// ValidationError represents a validation error with a field name.
// It matches ErrInvalidConfig with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// ServiceError wraps a failure of an external dependency with its kind.
// errors.Is matches both the kind sentinel and the underlying cause.
type ServiceError struct {
	Kind error
	Op   string
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Embedding wraps err as an embedding service failure for op.
func Embedding(op string, err error) error {
	return &ServiceError{Kind: ErrEmbeddingService, Op: op, Err: err}
}

// Synthesis wraps err as a completion service failure for op.
func Synthesis(op string, err error) error {
	return &ServiceError{Kind: ErrSynthesis, Op: op, Err: err}
}

// Mismatch returns a DimensionMismatch error with a formatted detail.
func Mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDimensionMismatch, fmt.Sprintf(format, args...))
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Message returns the user-facing message for an error's kind.
func Message(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s.", validationErr.Field, validationErr.Message)
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid settings: check chunk size, overlap and the number of retrieved chunks."
	case errors.Is(err, ErrIndexNotFound):
		return "Index not found. Please upload documents and process them first."
	case errors.Is(err, ErrDimensionMismatch):
		return "The index was built with a different embedding model. Process the documents again."
	case errors.Is(err, ErrEmbeddingService):
		return "The embedding service is unavailable. Check the API key and quota, then try again."
	case errors.Is(err, ErrSynthesis):
		return "The language model failed to answer. Try again."
	default:
		return "An unexpected error occurred."
	}
}

// Status maps an error's kind to an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDimensionMismatch):
		return http.StatusConflict
	case errors.Is(err, ErrEmbeddingService), errors.Is(err, ErrSynthesis):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
