// Package geo resolves addresses and coordinates through the OpenStreetMap
// Nominatim API and builds static map URLs for resolved coordinates.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blackvectorops/pano/pkg/entity"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "pano/1.0"
	defaultTimeout   = 10 * time.Second
)

// ErrStatus is returned when Nominatim answers with a non-200 status.
var ErrStatus = errors.New("geocoding request failed")

// NominatimClient is an entity.Geocoder backed by the public Nominatim API.
// Nominatim's usage policy requires a descriptive User-Agent and at most one
// request per second; callers should wrap this client with NewCached and
// NewBreaker rather than hitting it directly.
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NominatimOption customizes a NominatimClient.
type NominatimOption func(*NominatimClient)

// WithBaseURL points the client at a different Nominatim instance.
func WithBaseURL(u string) NominatimOption {
	return func(c *NominatimClient) { c.baseURL = u }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) NominatimOption {
	return func(c *NominatimClient) { c.userAgent = ua }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) NominatimOption {
	return func(c *NominatimClient) { c.httpClient = hc }
}

// NewNominatim creates a Nominatim-backed geocoder.
func NewNominatim(opts ...NominatimOption) *NominatimClient {
	c := &NominatimClient{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type nominatimResult struct {
	Lat     string `json:"lat"`
	Lon     string `json:"lon"`
	Display string `json:"display_name"`
	Address struct {
		Road        string `json:"road"`
		HouseNumber string `json:"house_number"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Country     string `json:"country"`
		Postcode    string `json:"postcode"`
	} `json:"address"`
}

// Geocode resolves a free-text address to its best match.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (*entity.GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")

	var results []nominatimResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %q", entity.ErrNoMatch, address)
	}
	return toResult(results[0])
}

// Reverse resolves coordinates back to address fields.
func (c *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (*entity.GeocodeResult, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("addressdetails", "1")

	var result nominatimResult
	if err := c.get(ctx, "/reverse", q, &result); err != nil {
		return nil, err
	}
	if result.Lat == "" {
		return nil, fmt.Errorf("%w for %f,%f", entity.ErrNoMatch, lat, lng)
	}
	return toResult(result)
}

func (c *NominatimClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocoding %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s returned %d", ErrStatus, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toResult(r nominatimResult) (*entity.GeocodeResult, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", r.Lon, err)
	}

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}
	address := r.Address.Road
	if r.Address.HouseNumber != "" && address != "" {
		address = r.Address.HouseNumber + " " + address
	}
	if address == "" {
		address = r.Display
	}

	return &entity.GeocodeResult{
		Latitude:   lat,
		Longitude:  lng,
		Address:    address,
		City:       city,
		State:      r.Address.State,
		Country:    r.Address.Country,
		PostalCode: r.Address.Postcode,
	}, nil
}
