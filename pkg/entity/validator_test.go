package entity

import (
	"testing"
	"time"
)

func TestStringValidator(t *testing.T) {
	tests := []struct {
		name      string
		validator StringValidator
		value     any
		want      string
		wantErr   bool
	}{
		{name: "plain string", validator: StringValidator{}, value: "hello", want: "hello"},
		{name: "coerces int", validator: StringValidator{}, value: 42, want: "42"},
		{name: "min length ok", validator: StringValidator{MinLength: 2}, value: "ab", want: "ab"},
		{name: "min length fails", validator: StringValidator{MinLength: 2}, value: "a", wantErr: true},
		{name: "max length fails", validator: StringValidator{MaxLength: 3}, value: "abcd", wantErr: true},
		{name: "pattern ok", validator: StringValidator{Pattern: countryCodePattern}, value: "+44", want: "+44"},
		{name: "pattern fails", validator: StringValidator{Pattern: countryCodePattern}, value: "0044", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.validator.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Validate(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestEmailValidator(t *testing.T) {
	v := NewEmailValidator()
	if _, err := v.Validate("user@example.com"); err != nil {
		t.Errorf("valid address rejected: %v", err)
	}
	if _, err := v.Validate("not-an-email"); err == nil {
		t.Error("expected error for address without domain")
	}
}

func TestIntValidatorBounds(t *testing.T) {
	v := IntValidator{Min: intPtr(0), Max: intPtr(150)}

	tests := []struct {
		name    string
		value   any
		want    int64
		wantErr bool
	}{
		{name: "in range", value: 42, want: 42},
		{name: "numeric string", value: "7", want: 7},
		{name: "integral float", value: float64(30), want: 30},
		{name: "fractional float", value: 30.5, wantErr: true},
		{name: "below min", value: -1, wantErr: true},
		{name: "above max", value: 200, wantErr: true},
		{name: "garbage", value: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Validate(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestFloatValidatorPreservesPrecision(t *testing.T) {
	v := FloatValidator{}
	got, err := v.Validate("3.14159265358979")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3.14159265358979 {
		t.Errorf("string parse lost precision: got %v", got)
	}

	// Validating an already-valid value returns it unchanged.
	again, err := v.Validate(got)
	if err != nil {
		t.Fatalf("revalidation failed: %v", err)
	}
	if again != got {
		t.Errorf("revalidation changed value: %v -> %v", got, again)
	}
}

func TestListValidator(t *testing.T) {
	v := ListValidator{Choices: PhoneTypes, AllowEmpty: true}

	if got, err := v.Validate(""); err != nil || got != "" {
		t.Errorf("empty value with AllowEmpty: got %v, %v", got, err)
	}
	if got, err := v.Validate(nil); err != nil || got != "" {
		t.Errorf("nil value with AllowEmpty: got %v, %v", got, err)
	}
	if _, err := v.Validate("Mobile"); err != nil {
		t.Errorf("valid choice rejected: %v", err)
	}
	if _, err := v.Validate("Pager"); err == nil {
		t.Error("expected error for value outside choices")
	}

	strict := ListValidator{Choices: PhoneTypes}
	if _, err := strict.Validate(""); err == nil {
		t.Error("expected error for empty value without AllowEmpty")
	}
}

func TestDateTimeValidator(t *testing.T) {
	v := DateTimeValidator{}

	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{name: "canonical form", value: "2024-03-01 14:30", want: "2024-03-01 14:30"},
		{name: "seconds dropped", value: "2024-03-01 14:30:45", want: "2024-03-01 14:30"},
		{name: "time value", value: time.Date(2024, 3, 1, 14, 30, 45, 0, time.UTC), want: "2024-03-01 14:30"},
		{name: "date only", value: "2024-03-01", wantErr: true},
		{name: "garbage", value: "not a date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Validate(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestPropertyErrorCarriesContext(t *testing.T) {
	v := StringValidator{MinLength: 5}
	_, err := v.Validate("ab")
	pe, ok := AsPropertyError(err)
	if !ok {
		t.Fatalf("expected *PropertyError, got %T", err)
	}
	if pe.Property != "unknown" {
		t.Errorf("validator should leave property name for the entity to stamp, got %q", pe.Property)
	}
	if pe.Value != "ab" {
		t.Errorf("error should carry the rejected value, got %v", pe.Value)
	}
}
