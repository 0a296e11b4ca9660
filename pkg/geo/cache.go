package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blackvectorops/pano/pkg/entity"
)

// DefaultCacheSize bounds the geocoding LRU cache.
const DefaultCacheSize = 512

// CachedGeocoder memoizes geocoder responses. Location labels re-derive on
// every property change, so repeated lookups for the same address are the
// common case. Negative results (ErrNoMatch) are cached too.
type CachedGeocoder struct {
	inner   entity.Geocoder
	forward *lru.Cache[string, cachedResult]
	reverse *lru.Cache[string, cachedResult]
}

type cachedResult struct {
	result *entity.GeocodeResult
	miss   bool
}

// NewCached wraps a geocoder with an LRU cache of the given size. Zero or
// negative means DefaultCacheSize.
func NewCached(inner entity.Geocoder, size int) (*CachedGeocoder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	forward, err := lru.New[string, cachedResult](size)
	if err != nil {
		return nil, err
	}
	reverse, err := lru.New[string, cachedResult](size)
	if err != nil {
		return nil, err
	}
	return &CachedGeocoder{inner: inner, forward: forward, reverse: reverse}, nil
}

// Geocode implements entity.Geocoder.
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*entity.GeocodeResult, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if hit, ok := c.forward.Get(key); ok {
		if hit.miss {
			return nil, fmt.Errorf("%w for %q", entity.ErrNoMatch, address)
		}
		return hit.result, nil
	}

	result, err := c.inner.Geocode(ctx, address)
	if err != nil {
		if isNoMatch(err) {
			c.forward.Add(key, cachedResult{miss: true})
		}
		return nil, err
	}
	c.forward.Add(key, cachedResult{result: result})
	return result, nil
}

// Reverse implements entity.Geocoder.
func (c *CachedGeocoder) Reverse(ctx context.Context, lat, lng float64) (*entity.GeocodeResult, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lng)
	if hit, ok := c.reverse.Get(key); ok {
		if hit.miss {
			return nil, fmt.Errorf("%w for %s", entity.ErrNoMatch, key)
		}
		return hit.result, nil
	}

	result, err := c.inner.Reverse(ctx, lat, lng)
	if err != nil {
		if isNoMatch(err) {
			c.reverse.Add(key, cachedResult{miss: true})
		}
		return nil, err
	}
	c.reverse.Add(key, cachedResult{result: result})
	return result, nil
}

func isNoMatch(err error) bool {
	return errors.Is(err, entity.ErrNoMatch)
}
