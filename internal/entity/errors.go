package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a required input is missing or malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
)

// ValidationError is returned by entity setters when a value would break a record invariant.
// The previous value of the field is left untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SerializationError is returned when a record cannot be encoded or decoded
// because a required field is unset.
type SerializationError struct {
	Field string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("required field %q is not set", e.Field)
}

// CodeExistsError is returned when a requested friendly short code is already taken.
type CodeExistsError struct {
	ShortCode string
}

func (e *CodeExistsError) Error() string {
	return fmt.Sprintf("short code %q already exists", e.ShortCode)
}

// PersistenceError is returned when the store rejects a write or reports a transport failure.
type PersistenceError struct {
	StatusCode int
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("persistence failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("persistence failed with status %d: %v", e.StatusCode, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
