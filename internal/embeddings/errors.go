package embeddings

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrValidation marks malformed or missing configuration, reported at construction time.
	ErrValidation = errors.New("validation error")

	// ErrEmbedding marks failures while producing vectors: transport, backend status,
	// malformed responses, and local runtime failures.
	ErrEmbedding = errors.New("embedding error")
)

// Error is the concrete error returned by this package.
type Error struct {
	kind    error
	message string
	cause   error
}

func validationErrorf(format string, args ...interface{}) error {
	return &Error{kind: ErrValidation, message: fmt.Sprintf(format, args...)}
}

func embeddingErrorf(format string, args ...interface{}) error {
	return &Error{kind: ErrEmbedding, message: fmt.Sprintf(format, args...)}
}

func wrapEmbeddingError(cause error, format string, args ...interface{}) error {
	return &Error{kind: ErrEmbedding, message: fmt.Sprintf(format, args...), cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}

	return e.message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Kind returns ErrValidation or ErrEmbedding.
func (e *Error) Kind() error {
	return e.kind
}

// IsValidation reports whether err is a configuration validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsEmbedding reports whether err happened while producing embeddings.
func IsEmbedding(err error) bool {
	return errors.Is(err, ErrEmbedding)
}
