package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMalformedIndex    = errors.New("malformed corpus index")
	ErrMalformedGraph    = errors.New("malformed link graph")
	ErrMalformedPages    = errors.New("malformed page list")
	ErrUnknownMode       = errors.New("unknown ranking mode")
	ErrSnapshotNotLoaded = errors.New("snapshot not loaded")
	ErrNotFound          = errors.New("not found")
	ErrInternal          = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Malformed wraps a structural validation failure found while loading an
// input artifact.
func Malformed(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, ErrSnapshotNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrMalformedIndex), errors.Is(err, ErrMalformedGraph), errors.Is(err, ErrMalformedPages):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
