package entity

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	// ErrUnknownKind is returned when a type discriminator does not match
	// any registered entity kind.
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrNilProperties is returned when a nil kind is asked to build an entity.
	ErrNilKind = errors.New("entity kind is nil")
)

// PropertyError reports a property value that failed validation. It always
// carries the offending property name, the rejected value, and a
// human-readable expectation.
type PropertyError struct {
	Property string
	Value    any
	Expected string
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("invalid value for property %q: expected %s, got %v (%T)",
		e.Property, e.Expected, e.Value, e.Value)
}

// newPropertyError builds a PropertyError with the property name left for the
// caller to stamp in. Validators do not know which property they are attached
// to; the entity fills that in before returning the error.
func newPropertyError(value any, expected string) *PropertyError {
	return &PropertyError{Property: "unknown", Value: value, Expected: expected}
}

// AsPropertyError unwraps err into a *PropertyError if possible.
func AsPropertyError(err error) (*PropertyError, bool) {
	var pe *PropertyError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
