package maps

import (
	"context"
	"encoding/json"
)

// Provider is the slice of the upstream client consumed by the service
// layer. Results are the upstream response bodies passed through opaquely.
type Provider interface {
	Directions(ctx context.Context, req *DirectionsRequest) (json.RawMessage, error)
	DistanceMatrix(ctx context.Context, req *DistanceMatrixRequest) (json.RawMessage, error)
	Geocode(ctx context.Context, req *GeocodeRequest) (json.RawMessage, error)
	ReverseGeocode(ctx context.Context, coord LatLng, extra ...Param) (json.RawMessage, error)
	PlaceAutocomplete(ctx context.Context, req *AutocompleteRequest) (json.RawMessage, error)
	PlaceQueryAutocomplete(ctx context.Context, req *AutocompleteRequest) (json.RawMessage, error)
	Call(ctx context.Context, endpoint string, extra ...Param) (json.RawMessage, error)
	HealthCheck(ctx context.Context) error
}

var _ Provider = (*Client)(nil)
