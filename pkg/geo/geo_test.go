package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackvectorops/pano/pkg/entity"
)

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "10 Downing Street", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, `[{
			"lat": "51.5033635",
			"lon": "-0.1276248",
			"display_name": "10 Downing Street, London, UK",
			"address": {
				"road": "Downing Street",
				"house_number": "10",
				"city": "London",
				"state": "England",
				"country": "United Kingdom",
				"postcode": "SW1A 2AA"
			}
		}]`)
	}))
	defer srv.Close()

	c := NewNominatim(WithBaseURL(srv.URL))
	result, err := c.Geocode(context.Background(), "10 Downing Street")
	require.NoError(t, err)

	assert.InDelta(t, 51.5033635, result.Latitude, 1e-9)
	assert.Equal(t, "10 Downing Street", result.Address)
	assert.Equal(t, "London", result.City)
	assert.Equal(t, "United Kingdom", result.Country)
	assert.Equal(t, "SW1A 2AA", result.PostalCode)
}

func TestNominatimGeocodeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	_, err := NewNominatim(WithBaseURL(srv.URL)).Geocode(context.Background(), "nowhere at all")
	assert.ErrorIs(t, err, entity.ErrNoMatch)
}

func TestNominatimReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		fmt.Fprint(w, `{
			"lat": "48.8566",
			"lon": "2.3522",
			"display_name": "Paris, France",
			"address": {"city": "Paris", "country": "France"}
		}`)
	}))
	defer srv.Close()

	result, err := NewNominatim(WithBaseURL(srv.URL)).Reverse(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)
	assert.Equal(t, "Paris", result.City)
	assert.Equal(t, "France", result.Country)
}

func TestNominatimStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewNominatim(WithBaseURL(srv.URL)).Geocode(context.Background(), "anywhere")
	assert.ErrorIs(t, err, ErrStatus)
}

// countingGeocoder tracks how many calls reach the underlying geocoder.
type countingGeocoder struct {
	calls  int
	result *entity.GeocodeResult
	err    error
}

func (c *countingGeocoder) Geocode(context.Context, string) (*entity.GeocodeResult, error) {
	c.calls++
	return c.result, c.err
}

func (c *countingGeocoder) Reverse(context.Context, float64, float64) (*entity.GeocodeResult, error) {
	c.calls++
	return c.result, c.err
}

func TestCachedGeocoder(t *testing.T) {
	inner := &countingGeocoder{result: &entity.GeocodeResult{City: "London"}}
	cached, err := NewCached(inner, 8)
	require.NoError(t, err)
	ctx := context.Background()

	for range 3 {
		result, err := cached.Geocode(ctx, "London")
		require.NoError(t, err)
		assert.Equal(t, "London", result.City)
	}
	assert.Equal(t, 1, inner.calls)

	// key is normalized
	_, err = cached.Geocode(ctx, "  LONDON ")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoderCachesMisses(t *testing.T) {
	inner := &countingGeocoder{err: fmt.Errorf("%w for test", entity.ErrNoMatch)}
	cached, err := NewCached(inner, 8)
	require.NoError(t, err)
	ctx := context.Background()

	for range 2 {
		_, err := cached.Geocode(ctx, "nowhere")
		assert.ErrorIs(t, err, entity.ErrNoMatch)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoderDoesNotCacheTransientErrors(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("connection timeout")}
	cached, err := NewCached(inner, 8)
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = cached.Geocode(ctx, "somewhere")
	_, _ = cached.Geocode(ctx, "somewhere")
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("upstream down")}
	breaker := NewBreaker(inner, DefaultBreakerConfig(), nil)
	ctx := context.Background()

	for range 5 {
		_, err := breaker.Geocode(ctx, "anywhere")
		require.Error(t, err)
	}
	// once open, calls fail fast without reaching the upstream
	assert.Less(t, inner.calls, 5)
}

func TestBreakerStaysClosedOnNoMatch(t *testing.T) {
	inner := &countingGeocoder{err: fmt.Errorf("%w for test", entity.ErrNoMatch)}
	breaker := NewBreaker(inner, DefaultBreakerConfig(), nil)
	ctx := context.Background()

	for range 10 {
		_, err := breaker.Geocode(ctx, "nowhere")
		assert.ErrorIs(t, err, entity.ErrNoMatch)
	}
	// every lookup reached the upstream
	assert.Equal(t, 10, inner.calls)
}

func TestStaticMapURL(t *testing.T) {
	m := NewStaticMap("key123")
	url := m.URL("51.50", "-0.12")
	assert.Contains(t, url, "center=lonlat:-0.12,51.50")
	assert.Contains(t, url, "apiKey=key123")

	assert.Empty(t, NewStaticMap("").URL("1", "2"))
}
