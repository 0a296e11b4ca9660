package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type is the primitive type of a property value.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeBool   Type = "bool"
)

// Input kinds consumed by property editors.
const (
	InputText     = "text"
	InputNumber   = "number"
	InputDropdown = "dropdown"
)

// DateTimeLayout is the canonical layout for datetime-valued properties.
// Seconds are always dropped during normalization.
const DateTimeLayout = "2006-01-02 15:04"

const dateTimeLayoutSeconds = "2006-01-02 15:04:05"

// Validator validates and coerces a raw property value. Validation is pure
// and idempotent: a value that already passed validation comes back
// unchanged.
type Validator interface {
	// Validate coerces value to the validator's type and checks its
	// constraints. Errors are *PropertyError with the property name left as
	// "unknown" for the owning entity to stamp in.
	Validate(value any) (any, error)
	// InputKind reports the editor widget this property maps to.
	InputKind() string
}

// DefaultValidator returns the unconstrained validator for a primitive type.
func DefaultValidator(t Type) Validator {
	switch t {
	case TypeInt:
		return &IntValidator{}
	case TypeFloat:
		return &FloatValidator{}
	case TypeBool:
		return &BoolValidator{}
	default:
		return &StringValidator{}
	}
}

// StringValidator validates string properties with optional length and
// pattern constraints.
type StringValidator struct {
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
}

func (v *StringValidator) Validate(value any) (any, error) {
	s, err := coerceString(value)
	if err != nil {
		return nil, err
	}
	if len(s) < v.MinLength {
		return nil, newPropertyError(s, fmt.Sprintf("string of at least %d characters", v.MinLength))
	}
	if v.MaxLength > 0 && len(s) > v.MaxLength {
		return nil, newPropertyError(s, fmt.Sprintf("string of at most %d characters", v.MaxLength))
	}
	if v.Pattern != nil && !v.Pattern.MatchString(s) {
		return nil, newPropertyError(s, fmt.Sprintf("string matching pattern %s", v.Pattern.String()))
	}
	return s, nil
}

func (v *StringValidator) InputKind() string { return InputText }

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NewEmailValidator returns a string validator preconfigured with an
// RFC-lite email pattern.
func NewEmailValidator() *StringValidator {
	return &StringValidator{Pattern: emailPattern}
}

// IntValidator validates integer properties with optional bounds.
type IntValidator struct {
	Min *int64
	Max *int64
}

func (v *IntValidator) Validate(value any) (any, error) {
	n, err := coerceInt(value)
	if err != nil {
		return nil, err
	}
	if v.Min != nil && n < *v.Min {
		return nil, newPropertyError(n, fmt.Sprintf("value of at least %d", *v.Min))
	}
	if v.Max != nil && n > *v.Max {
		return nil, newPropertyError(n, fmt.Sprintf("value of at most %d", *v.Max))
	}
	return n, nil
}

func (v *IntValidator) InputKind() string { return InputNumber }

// FloatValidator validates float properties with optional bounds. Numeric
// strings are parsed directly with locale-independent parsing; values are
// never rounded.
type FloatValidator struct {
	Min *float64
	Max *float64
}

func (v *FloatValidator) Validate(value any) (any, error) {
	f, err := coerceFloat(value)
	if err != nil {
		return nil, err
	}
	if v.Min != nil && f < *v.Min {
		return nil, newPropertyError(f, fmt.Sprintf("value of at least %v", *v.Min))
	}
	if v.Max != nil && f > *v.Max {
		return nil, newPropertyError(f, fmt.Sprintf("value of at most %v", *v.Max))
	}
	return f, nil
}

func (v *FloatValidator) InputKind() string { return InputNumber }

// BoolValidator validates boolean properties.
type BoolValidator struct{}

func (v *BoolValidator) Validate(value any) (any, error) {
	switch b := value.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return nil, newPropertyError(value, "boolean")
		}
		return parsed, nil
	default:
		return nil, newPropertyError(value, "boolean")
	}
}

func (v *BoolValidator) InputKind() string { return InputText }

// ListValidator validates dropdown properties against a fixed choice set.
type ListValidator struct {
	Choices    []string
	AllowEmpty bool
}

func (v *ListValidator) Validate(value any) (any, error) {
	if v.AllowEmpty && isEmptyValue(value) {
		return "", nil
	}
	s, err := coerceString(value)
	if err != nil {
		return nil, err
	}
	for _, c := range v.Choices {
		if s == c {
			return s, nil
		}
	}
	return nil, newPropertyError(s, "one of: "+strings.Join(v.Choices, ", "))
}

func (v *ListValidator) InputKind() string { return InputDropdown }

// DateTimeValidator validates datetime strings, normalizing them to
// "YYYY-MM-DD HH:mm" with seconds dropped. A time.Time value is formatted
// directly.
type DateTimeValidator struct{}

func (v *DateTimeValidator) Validate(value any) (any, error) {
	switch t := value.(type) {
	case time.Time:
		return t.Format(DateTimeLayout), nil
	case string:
		if dt, err := time.Parse(DateTimeLayout, t); err == nil {
			return dt.Format(DateTimeLayout), nil
		}
		if dt, err := time.Parse(dateTimeLayoutSeconds, t); err == nil {
			return dt.Format(DateTimeLayout), nil
		}
		return nil, newPropertyError(t, "datetime in YYYY-MM-DD HH:mm format")
	default:
		return nil, newPropertyError(value, "datetime in YYYY-MM-DD HH:mm format")
	}
}

func (v *DateTimeValidator) InputKind() string { return InputText }

func coerceString(value any) (string, error) {
	switch s := value.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	case int, int32, int64, float32, float64, bool:
		return fmt.Sprint(s), nil
	case nil:
		return "", nil
	default:
		return "", newPropertyError(value, "string")
	}
}

func coerceInt(value any) (int64, error) {
	switch n := value.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		// JSON numbers decode as float64; accept integral values only.
		if n != float64(int64(n)) {
			return 0, newPropertyError(value, "integer")
		}
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, newPropertyError(value, "integer")
		}
		return parsed, nil
	default:
		return 0, newPropertyError(value, "integer")
	}
}

func coerceFloat(value any) (float64, error) {
	switch n := value.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, newPropertyError(value, "float")
		}
		return parsed, nil
	default:
		return 0, newPropertyError(value, "float")
	}
}

// IsEmptyValue reports whether a property value carries no information:
// nil, the empty string, or false.
func IsEmptyValue(value any) bool { return isEmptyValue(value) }

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	default:
		return false
	}
}

func intPtr(n int64) *int64       { return &n }
func floatPtr(f float64) *float64 { return &f }
