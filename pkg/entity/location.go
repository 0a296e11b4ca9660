package entity

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrNoMatch is returned by geocoders when no result exists for a query.
var ErrNoMatch = errors.New("no geocoding match")

// GeocodeResult carries the address fields a geocoder resolved.
type GeocodeResult struct {
	Latitude   float64
	Longitude  float64
	Address    string
	City       string
	State      string
	Country    string
	PostalCode string
}

// Geocoder resolves free-text addresses to coordinates and coordinates back
// to address fields. Consumed only by Location's label derivation; lookups
// are best-effort and may be slow.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodeResult, error)
	Reverse(ctx context.Context, lat, lng float64) (*GeocodeResult, error)
}

// StaticMapFunc builds a static-map image URL for a coordinate pair.
type StaticMapFunc func(lat, lng string) string

func locationKind(geocoder Geocoder, staticMap StaticMapFunc) *Kind {
	k := &Kind{
		Name:        KindLocation,
		Description: "A physical location, address, or place of interest",
		Color:       "#FF5722",
		TypeLabel:   "LOCATION",
		Properties: []PropertySpec{
			{Name: "address", Type: TypeString},
			{Name: "city", Type: TypeString},
			{Name: "state", Type: TypeString},
			{Name: "country", Type: TypeString},
			{Name: "postal_code", Type: TypeString},
			{Name: "latitude", Type: TypeString},
			{Name: "longitude", Type: TypeString},
			{Name: "location_type", Type: TypeString},
		},
	}
	k.Label = func(ctx context.Context, e *Entity) string {
		return locationLabel(ctx, e, geocoder, staticMap)
	}
	return k
}

// locationLabel backfills address fields via the geocoder before deriving
// the label. Lookup failures are swallowed: the label falls back to whatever
// properties are already set. Idempotent given stable geocoder responses,
// but not pure.
func locationLabel(ctx context.Context, e *Entity, geocoder Geocoder, staticMap StaticMapFunc) string {
	lat := e.GetString("latitude")
	lng := e.GetString("longitude")

	if geocoder != nil {
		if lat == "" || lng == "" {
			var parts []string
			for _, name := range []string{"address", "city", "state", "country"} {
				if v := e.GetString(name); v != "" {
					parts = append(parts, v)
				}
			}
			if len(parts) > 0 {
				if result, err := geocoder.Geocode(ctx, strings.Join(parts, ", ")); err == nil {
					lat = strconv.FormatFloat(result.Latitude, 'f', -1, 64)
					lng = strconv.FormatFloat(result.Longitude, 'f', -1, 64)
				}
			}
		}

		if latF, lngF, ok := parseCoordinates(lat, lng); ok {
			if result, err := geocoder.Reverse(ctx, latF, lngF); err == nil {
				e.props["latitude"] = strconv.FormatFloat(result.Latitude, 'f', -1, 64)
				e.props["longitude"] = strconv.FormatFloat(result.Longitude, 'f', -1, 64)
				if result.Address != "" {
					e.props["address"] = result.Address
				}
				e.props["city"] = result.City
				e.props["state"] = result.State
				e.props["country"] = result.Country
				e.props["postal_code"] = result.PostalCode
			}
		}
	}

	label := e.FormatLabel([]string{"address", "city", "country"}, ", ")

	// Keep the image property in step with the coordinates: a static map
	// when both parse, nothing otherwise.
	lat = e.GetString("latitude")
	lng = e.GetString("longitude")
	if _, _, ok := parseCoordinates(lat, lng); ok && staticMap != nil {
		if url := staticMap(lat, lng); url != "" {
			e.props["image"] = url
		}
	} else {
		delete(e.props, "image")
	}
	return label
}

func parseCoordinates(lat, lng string) (float64, float64, bool) {
	if lat == "" || lng == "" {
		return 0, 0, false
	}
	latF, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, false
	}
	lngF, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return 0, 0, false
	}
	return latF, lngF, true
}
