package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthRequired is returned by mutations called with the anonymous identity.
	ErrAuthRequired = errors.New("authentication required")
	// ErrNotFound is returned when a lookup matches no row visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrSelfReference is returned when a user targets themself.
	ErrSelfReference = errors.New("cannot add yourself")
	// ErrAlreadyRelated is returned when a relationship between two users exists.
	ErrAlreadyRelated = errors.New("relationship already exists")
	// ErrUnknownItemType is returned for item ids missing from the catalog.
	ErrUnknownItemType = errors.New("unknown item type")
	// ErrInvalidInput wraps validation failures at the store boundary.
	ErrInvalidInput = errors.New("invalid input")
)

// QueryError is an opaque failure of the underlying store.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }

func queryErr(op string, err error) error {
	return &QueryError{Op: op, Err: err}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
