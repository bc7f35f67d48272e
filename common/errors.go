// Package common holds identifiers and primitives shared across every layer
// of the storage and execution engine: page/record identifiers, transaction
// ids, and the closed set of error kinds the engine can surface.
package common

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of error categories the engine surfaces to
// its callers, per the propagation policy in the design document.
type ErrorKind int

const (
	// TransactionAborted indicates a lock wait exceeded its timeout; the
	// caller must roll the transaction back.
	TransactionAborted ErrorKind = iota
	// DbError indicates a capacity, schema, or page/tuple state violation.
	DbError
	// NoSuchElement indicates a catalog miss, exhausted iterator, or
	// descriptor name lookup failure.
	NoSuchElement
	// IoError indicates an underlying file read/write failure.
	IoError
	// Corrupt indicates a page buffer or bitmap inconsistent with its
	// descriptor.
	Corrupt
)

func (k ErrorKind) String() string {
	switch k {
	case TransactionAborted:
		return "TransactionAborted"
	case DbError:
		return "DbError"
	case NoSuchElement:
		return "NoSuchElement"
	case IoError:
		return "IoError"
	case Corrupt:
		return "Corrupt"
	default:
		return "Unknown"
	}
}

// DBError is the engine's single error type. It wraps an ErrorKind with a
// message and, where relevant, an underlying cause so callers can use
// errors.Is/errors.As against both the kind and the original failure.
type DBError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *DBError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *DBError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, common.Sentinel(common.TransactionAborted))
// style checks by comparing kinds, since ErrorKind values are not
// themselves errors.
func (e *DBError) Is(target error) bool {
	other, ok := target.(*DBError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// NewError constructs a DBError of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *DBError {
	return &DBError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError constructs a DBError of the given kind that wraps an
// underlying error (typically an I/O failure).
func WrapError(kind ErrorKind, err error, format string, args ...any) *DBError {
	return &DBError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Sentinel returns a zero-message DBError of the given kind, suitable for
// use as a comparison target with errors.Is.
func Sentinel(kind ErrorKind) *DBError {
	return &DBError{Kind: kind}
}

// IsKind reports whether err is a DBError of the given kind, unwrapping
// as errors.As does.
func IsKind(err error, kind ErrorKind) bool {
	var dbErr *DBError
	if !errors.As(err, &dbErr) {
		return false
	}
	return dbErr.Kind == kind
}
