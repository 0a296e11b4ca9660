package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Standard properties appended to every kind. They are merged in after the
// kind-specific properties so editors display them last.
var standardProperties = []PropertySpec{
	{Name: "notes", Type: TypeString},
	{Name: "source", Type: TypeString},
	{Name: "image", Type: TypeString},
}

// PropertySpec declares one property of an entity kind. A nil Validator
// falls back to the unconstrained default for the property's primitive type.
type PropertySpec struct {
	Name      string
	Type      Type
	Validator Validator
}

// Kind describes a concrete entity type: its schema, display hints, and the
// hooks that derive labels and post-process freshly constructed entities.
type Kind struct {
	Name        string
	Description string
	Color       string
	TypeLabel   string

	// Properties in declaration order. The standard notes/source/image
	// properties are appended automatically unless the kind declares them.
	Properties []PropertySpec

	// LabelProps are joined in priority order to derive the display label.
	// Ignored when Label is set.
	LabelProps []string

	// Label overrides the default label rule. It may mutate properties
	// (Location backfills address fields from a geocoder here) and must be
	// idempotent given stable inputs.
	Label func(ctx context.Context, e *Entity) string

	// Init runs once after construction and validation, before the first
	// label derivation. Email derives its domain property here.
	Init func(e *Entity) error

	// Defaults are applied for properties absent at construction time.
	Defaults map[string]any

	specs map[string]PropertySpec
	order []string
}

// finalize appends standard properties and builds the lookup index. Called
// by the registry; safe to call more than once.
func (k *Kind) finalize() {
	if k.specs != nil {
		return
	}
	k.specs = make(map[string]PropertySpec, len(k.Properties)+len(standardProperties))
	k.order = k.order[:0]
	add := func(spec PropertySpec) {
		if _, ok := k.specs[spec.Name]; ok {
			return
		}
		if spec.Validator == nil {
			spec.Validator = DefaultValidator(spec.Type)
		}
		k.specs[spec.Name] = spec
		k.order = append(k.order, spec.Name)
	}
	for _, spec := range k.Properties {
		add(spec)
	}
	for _, spec := range standardProperties {
		add(spec)
	}
}

// PropertyNames returns the declared property names in display order.
func (k *Kind) PropertyNames() []string {
	k.finalize()
	out := make([]string, len(k.order))
	copy(out, k.order)
	return out
}

// Spec returns the declaration for a property name.
func (k *Kind) Spec(name string) (PropertySpec, bool) {
	k.finalize()
	spec, ok := k.specs[name]
	return spec, ok
}

// New constructs a validated entity of this kind. Properties are validated
// and coerced, the Init hook runs, and the label is derived. The context
// covers label derivation, which may perform network lookups for some kinds.
func (k *Kind) New(ctx context.Context, props map[string]any) (*Entity, error) {
	return k.newWithID(ctx, uuid.NewString(), props)
}

func (k *Kind) newWithID(ctx context.Context, id string, props map[string]any) (*Entity, error) {
	if k == nil {
		return nil, ErrNilKind
	}
	k.finalize()

	e := &Entity{
		id:    id,
		kind:  k,
		props: make(map[string]any, len(props)+len(k.Defaults)),
	}
	for name, value := range props {
		e.props[name] = value
	}
	for name, value := range k.Defaults {
		if _, ok := e.props[name]; !ok {
			e.props[name] = value
		}
	}

	if err := e.ValidateProperties(); err != nil {
		return nil, err
	}
	if k.Init != nil {
		if err := k.Init(e); err != nil {
			return nil, err
		}
		// Init may introduce new values (Email stamps its domain).
		if err := e.ValidateProperties(); err != nil {
			return nil, err
		}
	}
	e.UpdateLabel(ctx)
	return e, nil
}

// Entity is a typed, schema-validated record with a stable id and a label
// derived from its properties. Two entities are equal iff their ids are
// equal.
type Entity struct {
	id    string
	kind  *Kind
	label string
	props map[string]any
}

// ID returns the process-unique identifier, stable once assigned.
func (e *Entity) ID() string { return e.id }

// Kind returns the entity's kind descriptor.
func (e *Entity) Kind() *Kind { return e.kind }

// Type returns the kind name used as the serialization discriminator.
func (e *Entity) Type() string { return e.kind.Name }

// TypeLabel returns the uppercase type tag shown next to the entity.
func (e *Entity) TypeLabel() string { return e.kind.TypeLabel }

// Color returns the kind's display color. Evidence flips to a warning color
// when its tampered flag is set.
func (e *Entity) Color() string {
	if e.kind.Name == KindEvidence && e.GetBool("tampered") {
		return tamperedEvidenceColor
	}
	return e.kind.Color
}

// Label returns the derived display label.
func (e *Entity) Label() string { return e.label }

// Equal reports whether other refers to the same entity. Identity is the
// id alone.
func (e *Entity) Equal(other *Entity) bool {
	return other != nil && e.id == other.id
}

// Properties returns the live property map. Callers that mutate it must call
// UpdateLabel afterwards.
func (e *Entity) Properties() map[string]any { return e.props }

// Clone returns a copy sharing the id, kind, and label but with an
// independent property map.
func (e *Entity) Clone() *Entity {
	props := make(map[string]any, len(e.props))
	for k, v := range e.props {
		props[k] = v
	}
	return &Entity{id: e.id, kind: e.kind, label: e.label, props: props}
}

// Get returns the raw value of a property, or nil when unset.
func (e *Entity) Get(name string) any { return e.props[name] }

// GetString returns a property as a string, or "" when unset or not a string.
func (e *Entity) GetString(name string) string {
	s, _ := e.props[name].(string)
	return s
}

// GetInt returns a property as an int64.
func (e *Entity) GetInt(name string) int64 {
	switch n := e.props[name].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// GetFloat returns a property as a float64.
func (e *Entity) GetFloat(name string) float64 {
	switch n := e.props[name].(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// GetBool returns a property as a bool.
func (e *Entity) GetBool(name string) bool {
	b, _ := e.props[name].(bool)
	return b
}

// GetTime parses a datetime-valued property. It returns nil when the
// property is absent or unparseable, never an error.
func (e *Entity) GetTime(name string) *time.Time {
	s := e.GetString(name)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(DateTimeLayout, s); err == nil {
		return &t
	}
	if t, err := time.Parse(dateTimeLayoutSeconds, s); err == nil {
		t = t.Truncate(time.Minute)
		return &t
	}
	return nil
}

// Set validates and stores a single property value. The label is not
// re-derived; call UpdateLabel (or use Apply) after a batch of edits.
func (e *Entity) Set(name string, value any) error {
	spec, ok := e.kind.specs[name]
	if !ok {
		return &PropertyError{
			Property: name,
			Value:    value,
			Expected: fmt.Sprintf("a declared property of %s", e.kind.Name),
		}
	}
	coerced, err := spec.Validator.Validate(value)
	if err != nil {
		return stampProperty(err, name)
	}
	e.props[name] = coerced
	return nil
}

// Apply sets several properties and re-derives the label.
func (e *Entity) Apply(ctx context.Context, props map[string]any) error {
	for name, value := range props {
		if err := e.Set(name, value); err != nil {
			return err
		}
	}
	e.UpdateLabel(ctx)
	return nil
}

// Delete removes a property value. Unknown names are ignored.
func (e *Entity) Delete(name string) { delete(e.props, name) }

// ValidateProperties checks every set property against the kind's schema,
// coercing values in place. It fails fast on the first unknown key or
// validator failure. Validation is idempotent: a second call on an unchanged
// entity neither fails nor mutates anything further.
func (e *Entity) ValidateProperties() error {
	e.kind.finalize()
	// Iterate in declaration order so failures are deterministic.
	for _, name := range e.kind.order {
		value, ok := e.props[name]
		if !ok {
			continue
		}
		coerced, err := e.kind.specs[name].Validator.Validate(value)
		if err != nil {
			return stampProperty(err, name)
		}
		e.props[name] = coerced
	}
	for name, value := range e.props {
		if _, ok := e.kind.specs[name]; !ok {
			return &PropertyError{
				Property: name,
				Value:    value,
				Expected: fmt.Sprintf("a declared property of %s", e.kind.Name),
			}
		}
	}
	return nil
}

// UpdateLabel re-derives the display label from the current properties.
// Deterministic for every kind except Location, whose rule consults a
// geocoder and is only stable given stable lookup responses.
func (e *Entity) UpdateLabel(ctx context.Context) {
	if e.kind.Label != nil {
		e.label = e.kind.Label(ctx, e)
		return
	}
	e.label = e.FormatLabel(e.kind.LabelProps, ", ")
}

// FormatLabel joins the non-empty values of the named properties with sep,
// falling back to the kind's display name when all are empty.
func (e *Entity) FormatLabel(primaryProps []string, sep string) string {
	var parts []string
	for _, name := range primaryProps {
		if v, ok := e.props[name]; ok && !isEmptyValue(v) {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	if len(parts) == 0 {
		return e.kind.Name
	}
	return strings.Join(parts, sep)
}

// MainDisplay returns the primary text shown for the entity.
func (e *Entity) MainDisplay() string { return e.label }

// DisplayProperties returns every non-empty property except image and any
// key prefixed with an underscore, formatted for display in declaration
// order.
func (e *Entity) DisplayProperties() map[string]string {
	out := make(map[string]string)
	for name, value := range e.props {
		if name == "image" || strings.HasPrefix(name, "_") || isEmptyValue(value) {
			continue
		}
		out[name] = displayValue(name, value)
	}
	return out
}

// PropertyMeta describes a property for an external editor.
type PropertyMeta struct {
	Type    string   `json:"type"`
	Choices []string `json:"choices,omitempty"`
}

// PropertyMetadata exposes, per property, the editor input kind and the
// allowed choices for dropdown properties.
func (e *Entity) PropertyMetadata() map[string]PropertyMeta {
	e.kind.finalize()
	out := make(map[string]PropertyMeta, len(e.kind.order))
	for _, name := range e.kind.order {
		spec := e.kind.specs[name]
		meta := PropertyMeta{Type: spec.Validator.InputKind()}
		if lv, ok := spec.Validator.(*ListValidator); ok {
			meta.Choices = append(meta.Choices, lv.Choices...)
		}
		out[name] = meta
	}
	return out
}

// Record is the dict form an entity round-trips through. Properties hold the
// validated values keyed by name; Type is the kind discriminator.
type Record struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
	Color      string         `json:"color,omitempty"`
}

// ToRecord captures the full entity state as a plain record.
func (e *Entity) ToRecord() Record {
	props := make(map[string]any, len(e.props))
	for name, value := range e.props {
		props[name] = value
	}
	return Record{
		ID:         e.id,
		Type:       e.kind.Name,
		Label:      e.label,
		Properties: props,
		Color:      e.Color(),
	}
}

func displayValue(name string, value any) string {
	switch v := value.(type) {
	case float64:
		if name == "latitude" || name == "longitude" {
			s := strings.TrimRight(fmt.Sprintf("%.8f", v), "0")
			return strings.TrimRight(s, ".")
		}
		return groupThousands(fmt.Sprintf("%.2f", v))
	case int64:
		return groupThousands(fmt.Sprintf("%d", v))
	case int:
		return groupThousands(fmt.Sprintf("%d", v))
	default:
		return fmt.Sprint(v)
	}
}

// groupThousands inserts comma separators into the integer part of a
// formatted number.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func stampProperty(err error, name string) error {
	if pe, ok := AsPropertyError(err); ok && pe.Property == "unknown" {
		pe.Property = name
	}
	return err
}
