package core

import "github.com/pkg/errors"

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
		return ""
	}
	return err.Err.Error()
}

// AggregationError signals that a parent aggregate could not be recomputed
// because its children could not be reloaded. The aggregate is left untouched.
type AggregationError struct {
	Op  string
	Err error
}

func NewAggregationError(op string, err error) error {
	return &AggregationError{Op: op, Err: err}
}

func (err AggregationError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err AggregationError) Unwrap() error { return err.Err }

func IsAggregationError(err error) bool {
	_, ok := errors.Cause(err).(*AggregationError)
	return ok
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
