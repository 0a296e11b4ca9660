package entity

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry()
}

func TestUnknownPropertyRejected(t *testing.T) {
	reg := testRegistry(t)
	_, err := reg.New(context.Background(), KindPerson, map[string]any{
		"full_name":   "John Smith",
		"shoe_size":   44,
	})
	pe, ok := AsPropertyError(err)
	if !ok {
		t.Fatalf("expected *PropertyError, got %v", err)
	}
	if pe.Property != "shoe_size" {
		t.Errorf("error should name the unknown property, got %q", pe.Property)
	}
}

func TestPropertyErrorStampedWithName(t *testing.T) {
	reg := testRegistry(t)
	_, err := reg.New(context.Background(), KindPerson, map[string]any{"age": 200})
	pe, ok := AsPropertyError(err)
	if !ok {
		t.Fatalf("expected *PropertyError, got %v", err)
	}
	if pe.Property != "age" {
		t.Errorf("property name = %q, want age", pe.Property)
	}
}

func TestValidationIdempotent(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindPerson, map[string]any{
		"full_name": "John Smith",
		"age":       "42",
		"height":    "180.5",
	})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	before := make(map[string]any, len(e.Properties()))
	for k, v := range e.Properties() {
		before[k] = v
	}
	if err := e.ValidateProperties(); err != nil {
		t.Fatalf("revalidation failed: %v", err)
	}
	if err := e.ValidateProperties(); err != nil {
		t.Fatalf("second revalidation failed: %v", err)
	}
	if !reflect.DeepEqual(before, e.Properties()) {
		t.Errorf("revalidation mutated properties: %v -> %v", before, e.Properties())
	}
	if e.GetInt("age") != 42 {
		t.Errorf("age not coerced: %v", e.Get("age"))
	}
	if e.GetFloat("height") != 180.5 {
		t.Errorf("height not coerced: %v", e.Get("height"))
	}
}

func TestLabelDeterminism(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	for _, kind := range reg.Kinds() {
		props := labelPropsFor(kind.Name)
		e, err := reg.New(ctx, kind.Name, props)
		if err != nil {
			t.Fatalf("%s: construction failed: %v", kind.Name, err)
		}
		first := e.Label()
		e.UpdateLabel(ctx)
		if e.Label() != first {
			t.Errorf("%s: label changed without property change: %q -> %q", kind.Name, first, e.Label())
		}
	}
}

func TestLabelFallsBackToKindName(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindPerson, nil)
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if e.Label() != "Person" {
		t.Errorf("empty entity label = %q, want kind name", e.Label())
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	reg := testRegistry(t)
	ctx := context.Background()

	for _, kind := range reg.Kinds() {
		t.Run(kind.Name, func(t *testing.T) {
			e, err := reg.New(ctx, kind.Name, labelPropsFor(kind.Name))
			if err != nil {
				t.Fatalf("construction failed: %v", err)
			}

			restored, err := reg.FromRecord(ctx, e.ToRecord())
			if err != nil {
				t.Fatalf("FromRecord failed: %v", err)
			}
			if restored.ID() != e.ID() {
				t.Errorf("id changed: %q -> %q", e.ID(), restored.ID())
			}
			if restored.Type() != e.Type() {
				t.Errorf("type changed: %q -> %q", e.Type(), restored.Type())
			}
			if restored.Label() != e.Label() {
				t.Errorf("label changed: %q -> %q", e.Label(), restored.Label())
			}
			if restored.Color() != e.Color() {
				t.Errorf("color changed: %q -> %q", e.Color(), restored.Color())
			}
			if !reflect.DeepEqual(restored.Properties(), e.Properties()) {
				t.Errorf("properties changed: %v -> %v", e.Properties(), restored.Properties())
			}
			if !restored.Equal(e) {
				t.Error("restored entity not equal to original")
			}
		})
	}
}

func TestFromRecordUnknownKind(t *testing.T) {
	reg := testRegistry(t)
	_, err := reg.FromRecord(context.Background(), Record{Type: "Starship"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}

func TestEmailDomainDerivation(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindEmail, map[string]any{"address": "user@example.com"})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if got := e.GetString("domain"); got != "example.com" {
		t.Errorf("domain = %q, want example.com", got)
	}

	_, err = reg.New(context.Background(), KindEmail, map[string]any{"address": "not-an-email"})
	if _, ok := AsPropertyError(err); !ok {
		t.Errorf("expected *PropertyError for malformed address, got %v", err)
	}
}

func TestEmailDomainNotOverwritten(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindEmail, map[string]any{
		"address": "user@example.com",
		"domain":  "example.org",
	})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if got := e.GetString("domain"); got != "example.org" {
		t.Errorf("explicit domain overwritten: %q", got)
	}
}

func TestEventDates(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindEvent, map[string]any{
		"name":       "Arrest",
		"start_date": "2024-03-01 14:30:45",
	})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if got := e.GetString("start_date"); got != "2024-03-01 14:30" {
		t.Errorf("start_date not normalized: %q", got)
	}

	start := e.GetTime("start_date")
	if start == nil {
		t.Fatal("GetTime returned nil for a set date")
	}
	want := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if e.GetTime("end_date") != nil {
		t.Error("GetTime should return nil for an absent date")
	}
	if !e.GetBool("add_to_timeline") {
		t.Error("add_to_timeline should default to true")
	}
}

func TestEvidenceDisplayColor(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindEvidence, map[string]any{
		"name":     "Ledger",
		"tampered": true,
	})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if e.Color() != tamperedEvidenceColor {
		t.Errorf("tampered evidence color = %q", e.Color())
	}

	clean, err := reg.New(context.Background(), KindEvidence, map[string]any{"name": "Ledger"})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if clean.Color() != "#02bfd4" {
		t.Errorf("clean evidence color = %q", clean.Color())
	}
}

func TestDisplayProperties(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindPerson, map[string]any{
		"full_name": "John Smith",
		"age":       1500,
		"height":    180.5,
		"image":     "https://example.com/photo.jpg",
	})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	props := e.DisplayProperties()
	if _, ok := props["image"]; ok {
		t.Error("image should be excluded from display properties")
	}
	if got := props["age"]; got != "1,500" {
		t.Errorf("age display = %q, want 1,500", got)
	}
	if got := props["height"]; got != "180.50" {
		t.Errorf("height display = %q, want 180.50", got)
	}
}

func TestCoordinateDisplayFormatting(t *testing.T) {
	if got := displayValue("latitude", 51.50735000); got != "51.50735" {
		t.Errorf("latitude display = %q, want 51.50735", got)
	}
	if got := displayValue("longitude", -0.12775800); got != "-0.127758" {
		t.Errorf("longitude display = %q, want -0.127758", got)
	}
}

func TestPropertyMetadata(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindPhone, map[string]any{"number": "+15551234567"})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	meta := e.PropertyMetadata()
	if meta["phone_type"].Type != InputDropdown {
		t.Errorf("phone_type input kind = %q, want dropdown", meta["phone_type"].Type)
	}
	if !reflect.DeepEqual(meta["phone_type"].Choices, PhoneTypes) {
		t.Errorf("phone_type choices = %v", meta["phone_type"].Choices)
	}
	if meta["number"].Type != InputText {
		t.Errorf("number input kind = %q, want text", meta["number"].Type)
	}
}

func TestStandardPropertiesDeclaredLast(t *testing.T) {
	reg := testRegistry(t)
	k, _ := reg.Kind(KindText)
	names := k.PropertyNames()
	if len(names) < 4 {
		t.Fatalf("unexpected property count: %v", names)
	}
	tail := names[len(names)-3:]
	if tail[0] != "notes" || tail[1] != "source" || tail[2] != "image" {
		t.Errorf("standard properties not last: %v", names)
	}
}

// stubGeocoder returns a canned result for every lookup.
type stubGeocoder struct {
	result GeocodeResult
	calls  int
}

func (s *stubGeocoder) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	s.calls++
	r := s.result
	return &r, nil
}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lng float64) (*GeocodeResult, error) {
	s.calls++
	r := s.result
	return &r, nil
}

func TestLocationLabelWithStubGeocoder(t *testing.T) {
	stub := &stubGeocoder{result: GeocodeResult{
		Latitude:   51.5073,
		Longitude:  -0.1277,
		Address:    "10 Downing Street",
		City:       "London",
		Country:    "United Kingdom",
		PostalCode: "SW1A 2AA",
	}}
	reg := NewRegistry(
		WithGeocoder(stub),
		WithStaticMap(func(lat, lng string) string { return "https://maps.example/" + lat + "," + lng }),
	)

	ctx := context.Background()
	e, err := reg.New(ctx, KindLocation, map[string]any{"address": "10 Downing Street"})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if e.Label() != "10 Downing Street, London, United Kingdom" {
		t.Errorf("label = %q", e.Label())
	}
	if e.GetString("latitude") != "51.5073" {
		t.Errorf("latitude not backfilled: %q", e.GetString("latitude"))
	}
	if e.GetString("image") == "" {
		t.Error("image should be generated for valid coordinates")
	}

	// Stable given a stable geocode response.
	label := e.Label()
	e.UpdateLabel(ctx)
	if e.Label() != label {
		t.Errorf("label unstable under stable geocoder: %q -> %q", label, e.Label())
	}
}

func TestLocationWithoutGeocoderIsPure(t *testing.T) {
	reg := testRegistry(t)
	e, err := reg.New(context.Background(), KindLocation, map[string]any{
		"city":    "Berlin",
		"country": "Germany",
	})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	if e.Label() != "Berlin, Germany" {
		t.Errorf("label = %q", e.Label())
	}
	if _, ok := e.Properties()["image"]; ok {
		t.Error("image should not be set without coordinates")
	}
}

func labelPropsFor(kind string) map[string]any {
	switch kind {
	case KindPerson:
		return map[string]any{"full_name": "John Smith", "age": 42}
	case KindCompany:
		return map[string]any{"name": "Acme Corp"}
	case KindEmail:
		return map[string]any{"address": "user@example.com"}
	case KindEvent:
		return map[string]any{"name": "Robbery", "start_date": "2024-03-01 14:30"}
	case KindEvidence:
		return map[string]any{"name": "Ledger"}
	case KindImage:
		return map[string]any{"title": "CCTV Still", "url": "https://example.com/cctv.png"}
	case KindLocation:
		return map[string]any{"city": "Berlin", "country": "Germany"}
	case KindPhone:
		return map[string]any{"number": "+15551234567", "phone_type": "Mobile"}
	case KindText:
		return map[string]any{"text": "intercepted note"}
	case KindUsername:
		return map[string]any{"username": "jsmith42", "platform": "GitHub"}
	case KindVehicle:
		return map[string]any{"model": "Transit", "year": 2019}
	case KindWebsite:
		return map[string]any{"url": "https://example.com", "domain": "example.com", "title": "Example"}
	default:
		return nil
	}
}
