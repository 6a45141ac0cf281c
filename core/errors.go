package core

import "github.com/pkg/errors"

var (
	ErrNotFound  = NewNotFoundError("object")
	ErrForbidden = errors.New("permission denied")
)

type notFound struct {
	what string
}

// NewNotFoundError returns an error recognized by IsNotFound.
func NewNotFoundError(what string) error {
	return &notFound{what: what}
}

func (e notFound) Error() string  { return e.what + " not found" }
func (e notFound) NotFound() bool { return true }

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// IsNotFound reports whether err (or its cause) is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	for err != nil {
		if nf, ok := err.(interface{ NotFound() bool }); ok && nf.NotFound() {
			return true
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = cause.Cause()
	}
	return false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
