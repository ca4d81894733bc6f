package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/lox/vibecast/internal/metrics"
	"github.com/lox/vibecast/internal/models"
	"github.com/lox/vibecast/internal/openmeteo"
	"github.com/lox/vibecast/internal/store"
)

var (
	ErrGeolocationUnsupported = errors.New("geolocation not supported")
	ErrGeolocationDenied      = errors.New("geolocation denied")
	ErrLocationNotFound       = errors.New("location not found")
	ErrSearchFailed           = errors.New("search failed")
)

// Fallback is used when device geolocation is unavailable.
var Fallback = Resolution{
	Coordinate: models.Coordinate{Latitude: 19.076, Longitude: 72.8777},
	Place:      models.Place{Label: "Mumbai, IN", CountryCode: "IN"},
	Source:     SourceFallback,
}

type Source string

const (
	SourceDevice   Source = "device"
	SourceSearch   Source = "search"
	SourceFallback Source = "fallback"
)

// Resolution is a coordinate with its display label and how it was obtained.
type Resolution struct {
	Coordinate models.Coordinate `json:"coordinate"`
	Place      models.Place      `json:"place"`
	Source     Source            `json:"source"`
	// Warning is a non-fatal problem on the way, such as the geolocation
	// error that caused a fallback or a failed reverse lookup.
	Warning error `json:"-"`
}

// Locator obtains the device position.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinate, error)
}

type LocatorFunc func(ctx context.Context) (models.Coordinate, error)

func (f LocatorFunc) Locate(ctx context.Context) (models.Coordinate, error) {
	return f(ctx)
}

// Fixed is a Locator that always reports coord, e.g. a position posted by a browser.
func Fixed(coord models.Coordinate) Locator {
	return LocatorFunc(func(context.Context) (models.Coordinate, error) { return coord, nil })
}

// Unavailable is a Locator that always fails with err.
func Unavailable(err error) Locator {
	return LocatorFunc(func(context.Context) (models.Coordinate, error) { return models.Coordinate{}, err })
}

type Forwarder interface {
	Search(ctx context.Context, name string, count int) ([]openmeteo.GeocodeResult, error)
}

type Reverser interface {
	Reverse(ctx context.Context, coord models.Coordinate) (models.Place, error)
}

// Cache is the subset of the store used to remember geocode lookups.
type Cache interface {
	GetGeocode(dir store.Direction, key string, maxAge time.Duration) ([]byte, bool, error)
	PutGeocode(dir store.Direction, key string, payload []byte) error
}

type Resolver struct {
	forward  Forwarder
	reverse  Reverser
	cache    Cache
	cacheTTL time.Duration
}

func NewResolver(forward Forwarder, reverse Reverser) *Resolver {
	return &Resolver{forward: forward, reverse: reverse}
}

// WithCache enables caching of lookups for ttl.
func (r *Resolver) WithCache(c Cache, ttl time.Duration) *Resolver {
	r.cache = c
	r.cacheTTL = ttl
	return r
}

// Locate resolves the device position. It always produces a usable
// Resolution: geolocation failures yield Fallback with the error as
// Warning, and reverse geocoding failures keep the coordinate under a
// generic label.
func (r *Resolver) Locate(ctx context.Context, loc Locator) Resolution {
	if loc == nil {
		res := Fallback
		res.Warning = ErrGeolocationUnsupported
		return res
	}

	coord, err := loc.Locate(ctx)
	if err != nil {
		res := Fallback
		switch {
		case errors.Is(err, ErrGeolocationUnsupported), errors.Is(err, ErrGeolocationDenied):
			res.Warning = err
		default:
			res.Warning = fmt.Errorf("%w: %w", ErrGeolocationDenied, err)
		}
		return res
	}

	res := Resolution{Coordinate: coord, Source: SourceDevice}
	place, err := r.reversePlace(ctx, coord)
	if err != nil {
		log.Printf("location: reverse geocode %s: %v", coord, err)
		res.Place = models.Place{Label: "Current Location"}
		res.Warning = err
		return res
	}
	res.Place = place
	return res
}

// Search resolves free text to the best matching place.
func (r *Resolver) Search(ctx context.Context, query string) (Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Resolution{}, ErrLocationNotFound
	}
	key := strings.ToLower(query)

	if res, ok := r.cached(store.Forward, key); ok {
		return res, nil
	}

	results, err := r.forward.Search(ctx, query, 1)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	if len(results) == 0 {
		return Resolution{}, fmt.Errorf("%w: %q", ErrLocationNotFound, query)
	}

	match := results[0]
	res := Resolution{Coordinate: match.Coordinate(), Place: match.Place(), Source: SourceSearch}
	r.remember(store.Forward, key, res)
	return res, nil
}

func (r *Resolver) reversePlace(ctx context.Context, coord models.Coordinate) (models.Place, error) {
	key := reverseKey(coord)
	if res, ok := r.cached(store.Reverse, key); ok {
		return res.Place, nil
	}
	place, err := r.reverse.Reverse(ctx, coord)
	if err != nil {
		return models.Place{}, err
	}
	r.remember(store.Reverse, key, Resolution{Coordinate: coord, Place: place, Source: SourceDevice})
	return place, nil
}

// reverseKey rounds to three decimals (about 100 m) so nearby positions share an entry.
func reverseKey(c models.Coordinate) string {
	round := func(f float64) float64 { return math.Round(f*1000) / 1000 }
	return fmt.Sprintf("%.3f,%.3f", round(c.Latitude), round(c.Longitude))
}

func (r *Resolver) cached(dir store.Direction, key string) (Resolution, bool) {
	if r.cache == nil {
		return Resolution{}, false
	}
	payload, ok, err := r.cache.GetGeocode(dir, key, r.cacheTTL)
	if err != nil {
		log.Printf("location: cache get: %v", err)
	}
	if !ok {
		metrics.GeocodeCacheLookups.WithLabelValues(string(dir), "miss").Inc()
		return Resolution{}, false
	}
	var res Resolution
	if err := json.Unmarshal(payload, &res); err != nil {
		log.Printf("location: cache decode %s %q: %v", dir, key, err)
		return Resolution{}, false
	}
	metrics.GeocodeCacheLookups.WithLabelValues(string(dir), "hit").Inc()
	return res, true
}

func (r *Resolver) remember(dir store.Direction, key string, res Resolution) {
	if r.cache == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := r.cache.PutGeocode(dir, key, payload); err != nil {
		log.Printf("location: cache put: %v", err)
	}
}
