package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rsierra/ex-maps/pkg/config"
	"github.com/rsierra/ex-maps/pkg/httpclient"
	"github.com/rsierra/ex-maps/pkg/logger"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api"

	endpointDirections        = "directions"
	endpointDistanceMatrix    = "distancematrix"
	endpointGeocode           = "geocode"
	endpointPlaceAutocomplete = "place/autocomplete"
	endpointQueryAutocomplete = "place/queryautocomplete"

	// Address used by HealthCheck; any stable, geocodable address works.
	healthCheckAddress = "1600 Amphitheatre Parkway, Mountain View, CA"
)

// Client speaks the Google Maps web service wire format: each endpoint is
// a GET to <base>/<endpoint>/json with an ordered query string. The
// client encodes and classifies; caching and retry policy belong to the
// caller.
type Client struct {
	apiKey   string
	language string
	region   string
	http     *httpclient.Client
}

// NewClient creates a client from the upstream configuration.
func NewClient(cfg config.GoogleConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10
	}

	return &Client{
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		region:   cfg.Region,
		http: httpclient.NewClient(baseURL, time.Duration(timeout)*time.Second,
			httpclient.WithUserAgent("ex-maps")),
	}
}

// defaults are the configured parameters merged in at the lowest
// precedence: any caller-supplied value for these names wins.
func (c *Client) defaults() []Param {
	d := make([]Param, 0, 3)
	if c.apiKey != "" {
		d = append(d, Param{Name: "key", Value: c.apiKey})
	}
	if c.language != "" {
		d = append(d, Param{Name: "language", Value: c.language})
	}
	if c.region != "" {
		d = append(d, Param{Name: "region", Value: c.region})
	}
	return d
}

func (c *Client) do(ctx context.Context, endpoint string, params *Params) (json.RawMessage, error) {
	path := "/" + endpoint + "/json?" + params.Encode()

	logger.DebugContext(ctx, "maps api request",
		zap.String("endpoint", endpoint),
		zap.Int("params", params.Len()),
	)

	resp, err := c.http.Get(ctx, path)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	return classify(endpoint, resp.StatusCode, resp.Body)
}

// Directions requests a route from origin to destination, visiting any
// waypoints in the order given.
func (c *Client) Directions(ctx context.Context, req *DirectionsRequest) (json.RawMessage, error) {
	origin, err := encodeLocation(req.Origin)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := encodeLocation(req.Destination)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	required := []Param{
		{Name: "origin", Value: origin},
		{Name: "destination", Value: destination},
	}

	if len(req.Waypoints) > 0 {
		waypoints, err := encodeLocationList(req.Waypoints)
		if err != nil {
			return nil, fmt.Errorf("waypoints: %w", err)
		}
		required = append(required, Param{Name: "waypoints", Value: waypoints})
	}

	return c.do(ctx, endpointDirections, newParams(required, req.Extra, c.defaults()))
}

// DistanceMatrix requests distances and durations for every combination
// of origins and destinations.
func (c *Client) DistanceMatrix(ctx context.Context, req *DistanceMatrixRequest) (json.RawMessage, error) {
	if len(req.Origins) == 0 {
		return nil, fmt.Errorf("origins: %w: empty list", ErrInvalidLocation)
	}
	if len(req.Destinations) == 0 {
		return nil, fmt.Errorf("destinations: %w: empty list", ErrInvalidLocation)
	}

	origins, err := encodeLocationList(req.Origins)
	if err != nil {
		return nil, fmt.Errorf("origins: %w", err)
	}
	destinations, err := encodeLocationList(req.Destinations)
	if err != nil {
		return nil, fmt.Errorf("destinations: %w", err)
	}

	required := []Param{
		{Name: "origins", Value: origins},
		{Name: "destinations", Value: destinations},
	}

	return c.do(ctx, endpointDistanceMatrix, newParams(required, req.Extra, c.defaults()))
}

// Geocode resolves a location to address results. The parameter carrying
// the location depends on its variant; a polyline has no meaning here and
// is rejected before dispatch.
func (c *Client) Geocode(ctx context.Context, req *GeocodeRequest) (json.RawMessage, error) {
	required := make([]Param, 0, 2)

	switch loc := req.Location.(type) {
	case nil:
		if len(req.Components) == 0 {
			return nil, fmt.Errorf("location: %w: nothing to geocode", ErrInvalidLocation)
		}
	case Address:
		value, err := loc.wireValue()
		if err != nil {
			return nil, fmt.Errorf("location: %w", err)
		}
		required = append(required, Param{Name: "address", Value: value})
	case LatLng:
		required = append(required, Param{Name: "latlng", Value: loc.String()})
	case PlaceID:
		if loc == "" {
			return nil, fmt.Errorf("location: %w: empty place id", ErrInvalidLocation)
		}
		// This endpoint takes the bare identifier, not the inline form.
		required = append(required, Param{Name: "place_id", Value: string(loc)})
	default:
		return nil, fmt.Errorf("location: %w: %T not accepted by geocode", ErrInvalidLocation, loc)
	}

	if len(req.Components) > 0 {
		required = append(required, Param{Name: "components", Value: req.Components.encode()})
	}

	return c.do(ctx, endpointGeocode, newParams(required, req.Extra, c.defaults()))
}

// ReverseGeocode resolves a coordinate to address results.
func (c *Client) ReverseGeocode(ctx context.Context, coord LatLng, extra ...Param) (json.RawMessage, error) {
	return c.Geocode(ctx, &GeocodeRequest{Location: coord, Extra: extra})
}

// PlaceAutocomplete requests place predictions for a partial input.
func (c *Client) PlaceAutocomplete(ctx context.Context, req *AutocompleteRequest) (json.RawMessage, error) {
	return c.autocomplete(ctx, endpointPlaceAutocomplete, req)
}

// PlaceQueryAutocomplete requests query predictions, which may include
// free-text searches alongside places.
func (c *Client) PlaceQueryAutocomplete(ctx context.Context, req *AutocompleteRequest) (json.RawMessage, error) {
	return c.autocomplete(ctx, endpointQueryAutocomplete, req)
}

func (c *Client) autocomplete(ctx context.Context, endpoint string, req *AutocompleteRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, fmt.Errorf("maps: autocomplete input is required")
	}

	required := []Param{{Name: "input", Value: req.Input}}

	return c.do(ctx, endpoint, newParams(required, req.Extra, c.defaults()))
}

// Call dispatches directly to an endpoint path with a flat parameter
// list, bypassing location encoding. The path names the endpoint the way
// the API documents it, e.g. "timezone" or "place/details".
func (c *Client) Call(ctx context.Context, endpoint string, extra ...Param) (json.RawMessage, error) {
	endpoint = strings.Trim(endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("maps: endpoint path is required")
	}

	return c.do(ctx, endpoint, newParams(nil, extra, c.defaults()))
}

// HealthCheck verifies the upstream is reachable and the API key works by
// geocoding a fixed address. ZERO_RESULTS still proves both.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Geocode(ctx, &GeocodeRequest{Location: Address(healthCheckAddress)})
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == StatusZeroResults {
		return nil
	}

	return err
}
