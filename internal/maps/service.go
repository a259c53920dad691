package maps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/rsierra/ex-maps/pkg/config"
	"github.com/rsierra/ex-maps/pkg/logger"
	"github.com/rsierra/ex-maps/pkg/redis"
	"github.com/rsierra/ex-maps/pkg/resilience"
)

var upstreamRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "maps_upstream_requests_total",
		Help: "Upstream Maps API calls by endpoint and outcome.",
	},
	[]string{"endpoint", "outcome"},
)

var cacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "maps_cache_hits_total",
		Help: "Cache lookups that served a response without an upstream call.",
	},
	[]string{"endpoint"},
)

// ServiceConfig holds the caller-side policy layered on the client:
// response caching and TTLs. The client itself stays policy-free.
type ServiceConfig struct {
	CacheEnabled    bool
	CachePrefix     string
	GeocodeTTL      time.Duration
	DirectionsTTL   time.Duration
	AutocompleteTTL time.Duration
}

// ServiceConfigFromCache derives the service policy from configuration.
func ServiceConfigFromCache(cfg config.CacheConfig) ServiceConfig {
	return ServiceConfig{
		CacheEnabled:    cfg.Enabled,
		CachePrefix:     cfg.Prefix,
		GeocodeTTL:      time.Duration(cfg.GeocodeTTL) * time.Second,
		DirectionsTTL:   time.Duration(cfg.DirectionsTTL) * time.Second,
		AutocompleteTTL: time.Duration(cfg.AutocompleteTTL) * time.Second,
	}
}

// Service wraps a Provider with caching, circuit breaking and metrics.
type Service struct {
	provider Provider
	cache    redis.ClientInterface
	breaker  *resilience.CircuitBreaker
	config   ServiceConfig
}

// NewService creates a maps service. cache and breaker may be nil, which
// disables the respective behavior.
func NewService(provider Provider, cache redis.ClientInterface, breaker *resilience.CircuitBreaker, cfg ServiceConfig) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		breaker:  breaker,
		config:   cfg,
	}
}

// Directions returns a route, serving a cached response when one exists.
func (s *Service) Directions(ctx context.Context, req *DirectionsRequest) (json.RawMessage, error) {
	key, cacheable := s.directionsCacheKey(req)
	if cacheable {
		if cached, ok := s.fromCache(ctx, endpointDirections, key); ok {
			return cached, nil
		}
	}

	payload, err := s.call(ctx, endpointDirections, func(ctx context.Context) (json.RawMessage, error) {
		return s.provider.Directions(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.toCache(ctx, key, payload, s.config.DirectionsTTL)
	}
	return payload, nil
}

// DistanceMatrix returns distances and durations for every origin and
// destination pairing. Matrix results are not cached: the key space grows
// with the product of the two lists and hit rates stay near zero.
func (s *Service) DistanceMatrix(ctx context.Context, req *DistanceMatrixRequest) (json.RawMessage, error) {
	return s.call(ctx, endpointDistanceMatrix, func(ctx context.Context) (json.RawMessage, error) {
		return s.provider.DistanceMatrix(ctx, req)
	})
}

// Geocode resolves a location, serving a cached response when one exists.
func (s *Service) Geocode(ctx context.Context, req *GeocodeRequest) (json.RawMessage, error) {
	key, cacheable := s.geocodeCacheKey(req)
	if cacheable {
		if cached, ok := s.fromCache(ctx, endpointGeocode, key); ok {
			return cached, nil
		}
	}

	payload, err := s.call(ctx, endpointGeocode, func(ctx context.Context) (json.RawMessage, error) {
		return s.provider.Geocode(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.toCache(ctx, key, payload, s.config.GeocodeTTL)
	}
	return payload, nil
}

// ReverseGeocode resolves a coordinate to addresses.
func (s *Service) ReverseGeocode(ctx context.Context, coord LatLng, extra ...Param) (json.RawMessage, error) {
	return s.Geocode(ctx, &GeocodeRequest{Location: coord, Extra: extra})
}

// PlaceAutocomplete returns place predictions for a partial input.
func (s *Service) PlaceAutocomplete(ctx context.Context, req *AutocompleteRequest) (json.RawMessage, error) {
	return s.autocomplete(ctx, endpointPlaceAutocomplete, req, func(ctx context.Context) (json.RawMessage, error) {
		return s.provider.PlaceAutocomplete(ctx, req)
	})
}

// PlaceQueryAutocomplete returns query predictions for a partial input.
func (s *Service) PlaceQueryAutocomplete(ctx context.Context, req *AutocompleteRequest) (json.RawMessage, error) {
	return s.autocomplete(ctx, endpointQueryAutocomplete, req, func(ctx context.Context) (json.RawMessage, error) {
		return s.provider.PlaceQueryAutocomplete(ctx, req)
	})
}

func (s *Service) autocomplete(ctx context.Context, endpoint string, req *AutocompleteRequest, fn func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	key, cacheable := s.autocompleteCacheKey(endpoint, req)
	if cacheable {
		if cached, ok := s.fromCache(ctx, endpoint, key); ok {
			return cached, nil
		}
	}

	payload, err := s.call(ctx, endpoint, fn)
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.toCache(ctx, key, payload, s.config.AutocompleteTTL)
	}
	return payload, nil
}

// Call dispatches a raw endpoint path with flat parameters. Raw calls are
// never cached since the endpoint semantics are unknown here.
func (s *Service) Call(ctx context.Context, endpoint string, extra ...Param) (json.RawMessage, error) {
	return s.call(ctx, endpoint, func(ctx context.Context) (json.RawMessage, error) {
		return s.provider.Call(ctx, endpoint, extra...)
	})
}

// HealthCheck verifies the upstream is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.provider.HealthCheck(ctx)
}

// upstreamResult lets a status answer travel through the breaker as a
// success: an upstream that says ZERO_RESULTS is healthy, and counting it
// as a failure would trip the breaker on ordinary traffic.
type upstreamResult struct {
	payload json.RawMessage
	err     error
}

func (s *Service) call(ctx context.Context, endpoint string, fn func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	run := func(ctx context.Context) (interface{}, error) {
		payload, err := fn(ctx)
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return upstreamResult{err: err}, nil
		}
		if err != nil {
			return nil, err
		}
		return upstreamResult{payload: payload}, nil
	}

	var raw interface{}
	var err error
	if s.breaker != nil {
		raw, err = s.breaker.Execute(ctx, run)
	} else {
		raw, err = run(ctx)
	}

	if err != nil {
		upstreamRequests.WithLabelValues(endpoint, outcomeLabel(err)).Inc()
		logger.WarnContext(ctx, "maps upstream call failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, err
	}

	result := raw.(upstreamResult)
	upstreamRequests.WithLabelValues(endpoint, outcomeLabel(result.err)).Inc()
	if result.err != nil {
		return nil, result.err
	}
	return result.payload, nil
}

// outcomeLabel keeps metric label cardinality bounded: the upstream
// status vocabulary is finite, everything else is a transport failure.
func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "circuit_open"
	}
	return "transport_error"
}

func (s *Service) directionsCacheKey(req *DirectionsRequest) (string, bool) {
	if !s.cachingActive() {
		return "", false
	}

	origin, err := encodeLocation(req.Origin)
	if err != nil {
		return "", false
	}
	destination, err := encodeLocation(req.Destination)
	if err != nil {
		return "", false
	}
	waypoints, err := encodeLocationList(req.Waypoints)
	if err != nil {
		return "", false
	}

	parts := []string{"directions", origin, destination, waypoints}
	parts = append(parts, flattenParams(req.Extra)...)
	return s.hashKey(parts), true
}

func (s *Service) geocodeCacheKey(req *GeocodeRequest) (string, bool) {
	if !s.cachingActive() {
		return "", false
	}

	location := ""
	if req.Location != nil {
		value, err := encodeLocation(req.Location)
		if err != nil {
			return "", false
		}
		location = value
	}

	parts := []string{"geocode", location, req.Components.encode()}
	parts = append(parts, flattenParams(req.Extra)...)
	return s.hashKey(parts), true
}

func (s *Service) autocompleteCacheKey(endpoint string, req *AutocompleteRequest) (string, bool) {
	if !s.cachingActive() {
		return "", false
	}

	parts := []string{endpoint, req.Input}
	parts = append(parts, flattenParams(req.Extra)...)
	return s.hashKey(parts), true
}

func (s *Service) cachingActive() bool {
	return s.config.CacheEnabled && s.cache != nil
}

func (s *Service) hashKey(parts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return s.config.CachePrefix + ":" + hex.EncodeToString(sum[:8])
}

func flattenParams(params []Param) []string {
	flat := make([]string, len(params))
	for i, kv := range params {
		flat[i] = kv.Name + "=" + kv.Value
	}
	return flat
}

func (s *Service) fromCache(ctx context.Context, endpoint, key string) (json.RawMessage, bool) {
	value, err := s.cache.GetString(ctx, key)
	if err != nil || value == "" {
		return nil, false
	}
	cacheHits.WithLabelValues(endpoint).Inc()
	logger.DebugContext(ctx, "maps cache hit", zap.String("endpoint", endpoint))
	return json.RawMessage(value), true
}

func (s *Service) toCache(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := s.cache.SetWithExpiration(ctx, key, string(payload), ttl); err != nil {
		// The response is already in hand; only log the miss.
		logger.WarnContext(ctx, "maps cache write failed", zap.Error(err))
	}
}
