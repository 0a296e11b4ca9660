package entity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// New constructs an entity of the named kind.
func (r *Registry) New(ctx context.Context, kindName string, props map[string]any) (*Entity, error) {
	k, ok := r.kinds[kindName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kindName)
	}
	return k.New(ctx, props)
}

// FromRecord reconstructs an entity from its dict form. The concrete kind is
// chosen by the record's type discriminator; the id is restored, properties
// are re-validated, and the label is re-derived.
func (r *Registry) FromRecord(ctx context.Context, rec Record) (*Entity, error) {
	k, ok := r.kinds[rec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Type)
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	return k.newWithID(ctx, id, rec.Properties)
}
