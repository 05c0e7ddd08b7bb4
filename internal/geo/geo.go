// Package geo places regions on a map and colours them by particulate level.
package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"
)

// ErrUnknownRegion is returned when no coordinates exist for a region.
var ErrUnknownRegion = errors.New("unknown region")

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Resolver maps a region name to a point.
type Resolver interface {
	Resolve(ctx context.Context, region string) (Coordinates, error)
}

// staticCoordinates covers the default metropolitan areas.
var staticCoordinates = map[string]Coordinates{
	"광주": {Lat: 35.1595, Lng: 126.9780},
	"대구": {Lat: 35.8722, Lng: 128.6014},
	"대전": {Lat: 36.3504, Lng: 127.3845},
	"부산": {Lat: 35.1796, Lng: 129.0756},
	"서울": {Lat: 37.5665, Lng: 126.7052},
	"울산": {Lat: 35.5384, Lng: 129.3114},
	"인천": {Lat: 37.4563, Lng: 126.8526},
}

// StaticResolver serves the built-in coordinate table.
type StaticResolver struct{}

func (StaticResolver) Resolve(_ context.Context, region string) (Coordinates, error) {
	c, ok := staticCoordinates[region]
	if !ok {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}
	return c, nil
}

// geocodeFunc matches geocoder.Geocoding.
type geocodeFunc func(geocoder.Address) (geocoder.Location, error)

// GeocodingResolver asks the Google geocoding API, caching each answer.
// The geocoder package keeps its key in a global, so calls are serialized.
type GeocodingResolver struct {
	mu      sync.Mutex
	apiKey  string
	country string
	geocode geocodeFunc
	cache   map[string]Coordinates
}

// NewGeocodingResolver creates a resolver for regions of South Korea.
func NewGeocodingResolver(apiKey string) *GeocodingResolver {
	return &GeocodingResolver{
		apiKey:  apiKey,
		country: "South Korea",
		geocode: geocoder.Geocoding,
		cache:   make(map[string]Coordinates),
	}
}

func (r *GeocodingResolver) Resolve(ctx context.Context, region string) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache[region]; ok {
		return c, nil
	}

	geocoder.ApiKey = r.apiKey
	loc, err := r.geocode(geocoder.Address{City: region, Country: r.country})
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %s: %w", region, err)
	}
	c := Coordinates{Lat: loc.Latitude, Lng: loc.Longitude}
	r.cache[region] = c
	return c, nil
}

// ChainResolver tries each resolver in order and returns the first hit.
type ChainResolver struct {
	resolvers []Resolver
	logger    *zap.Logger
}

// NewResolver returns the static table, backed by the geocoding API when
// apiKey is set.
func NewResolver(apiKey string, logger *zap.Logger) *ChainResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	chain := &ChainResolver{resolvers: []Resolver{StaticResolver{}}, logger: logger}
	if apiKey != "" {
		chain.resolvers = append(chain.resolvers, NewGeocodingResolver(apiKey))
	}
	return chain
}

func (c *ChainResolver) Resolve(ctx context.Context, region string) (Coordinates, error) {
	var lastErr error
	for _, r := range c.resolvers {
		coords, err := r.Resolve(ctx, region)
		if err == nil {
			return coords, nil
		}
		if !errors.Is(err, ErrUnknownRegion) {
			c.logger.Warn("coordinate lookup failed", zap.String("region", region), zap.Error(err))
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}
	return Coordinates{}, lastErr
}

// PM10Color returns the marker colour for a PM10 concentration in µg/m³.
func PM10Color(pm10 float64) string {
	switch {
	case pm10 <= 30:
		return "#00ff88"
	case pm10 <= 80:
		return "#ffff00"
	case pm10 <= 150:
		return "#ff9900"
	default:
		return "#ff0000"
	}
}
