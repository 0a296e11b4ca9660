package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/blackvectorops/pano/pkg/entity"
)

// BreakerConfig tunes the geocoder circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
}

// DefaultBreakerConfig returns conservative defaults suited to Nominatim's
// rate limits.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		ReadyToTripRatio: 0.6,
	}
}

// BreakerGeocoder wraps a geocoder with circuit breaking so repeated
// upstream failures stop generating traffic instead of stalling every
// location label derivation.
type BreakerGeocoder struct {
	inner entity.Geocoder
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker wraps a geocoder with a circuit breaker.
func NewBreaker(inner entity.Geocoder, cfg BreakerConfig, logger *slog.Logger) *BreakerGeocoder {
	if logger == nil {
		logger = slog.Default()
	}
	st := gobreaker.Settings{
		Name:        "geocoder",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		// a definitive no-match is an answer, not an upstream failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, entity.ErrNoMatch)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geocoder circuit breaker state change",
				"name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerGeocoder{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

// Geocode implements entity.Geocoder.
func (b *BreakerGeocoder) Geocode(ctx context.Context, address string) (*entity.GeocodeResult, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Geocode(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	return result.(*entity.GeocodeResult), nil
}

// Reverse implements entity.Geocoder.
func (b *BreakerGeocoder) Reverse(ctx context.Context, lat, lng float64) (*entity.GeocodeResult, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Reverse(ctx, lat, lng)
	})
	if err != nil {
		return nil, fmt.Errorf("reverse geocode %f,%f: %w", lat, lng, err)
	}
	return result.(*entity.GeocodeResult), nil
}
