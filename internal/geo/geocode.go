// Package geo annotates coordinates with human-readable place names.
package geo

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"
)

// Resolver reverse-geocodes coordinates. A nil *Resolver is a valid no-op,
// so callers can wire it unconditionally and skip it when no API key is set.
type Resolver struct {
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver configures the geocoding backend. Returns nil when apiKey is
// empty, which disables place annotation.
func NewResolver(apiKey string, logger *zap.Logger) *Resolver {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey
	return &Resolver{
		logger: logger,
		cache:  make(map[string]string),
	}
}

// PlaceName resolves a coordinate to a label like "Los Angeles, CA, USA".
// Failures return an empty string; annotation is best effort.
func (r *Resolver) PlaceName(lat, lon float64) string {
	if r == nil {
		return ""
	}

	key := cacheKey(lat, lon)
	r.mu.Lock()
	if name, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return name
	}
	r.mu.Unlock()

	addr, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil || len(addr) == 0 {
		if err != nil {
			r.logger.Debug("reverse geocode failed",
				zap.Float64("latitude", lat),
				zap.Float64("longitude", lon),
				zap.Error(err))
		}
		return ""
	}

	name := formatPlace(addr[0])

	r.mu.Lock()
	r.cache[key] = name
	r.mu.Unlock()

	return name
}

func formatPlace(a geocoder.Address) string {
	parts := make([]string, 0, 3)
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if a.State != "" {
		parts = append(parts, a.State)
	}
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}

func cacheKey(lat, lon float64) string {
	// Round to ~100 m so nearby requests share an entry.
	return fmt.Sprintf("%.3f:%.3f", lat, lon)
}
