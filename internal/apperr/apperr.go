package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping
type Kind int

const (
	// Validation covers bad request shape, out-of-range parameters and
	// unsupported content types
	Validation Kind = iota
	// NotImplemented covers explicitly unimplemented features (the
	// fine-tuned model variant)
	NotImplemented
	// NotFound covers retrieval of unknown artifacts
	NotFound
	// Upstream covers describer API failures, runner/inference failures
	// and file I/O errors
	Upstream
)

// Error carries a kind alongside the underlying error
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given kind and message
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// statusByKind is the single mapping from error kinds to HTTP status codes
var statusByKind = map[Kind]int{
	Validation:     http.StatusBadRequest,
	NotImplemented: http.StatusNotImplemented,
	NotFound:       http.StatusNotFound,
	Upstream:       http.StatusInternalServerError,
}

// Status returns the HTTP status code for an error. Errors without a kind
// are treated as upstream failures.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of an error, defaulting to Upstream
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Upstream
}
