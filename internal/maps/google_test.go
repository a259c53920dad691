package maps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsierra/ex-maps/pkg/config"
)

const okBody = `{"status":"OK","results":[]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.GoogleConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
}

func TestDirectionsQueryOrder(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.Directions(context.Background(), &DirectionsRequest{
		Origin:      Address("Toronto"),
		Destination: Address("Montreal"),
		Extra: []Param{
			{Name: "mode", Value: "bicycling"},
			{Name: "avoid", Value: "highways"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/directions/json", gotPath)
	assert.Equal(t,
		"origin=Toronto&destination=Montreal&mode=bicycling&avoid=highways&key=test-key",
		gotQuery)
}

func TestDirectionsWaypoints(t *testing.T) {
	var gotWaypoints string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotWaypoints = r.URL.Query().Get("waypoints")
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.Directions(context.Background(), &DirectionsRequest{
		Origin:      Address("Boston, MA"),
		Destination: Address("Concord, MA"),
		Waypoints: []Location{
			Address("Charlestown, MA"),
			PlaceID("ChIJ456"),
			EncodedPolyline("gfo}EtohhU"),
			LatLng{Lat: 42.46, Lng: -71.35},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Charlestown, MA|place_id:ChIJ456|enc:gfo}EtohhU|42.46,-71.35", gotWaypoints)
}

func TestDirectionsExtraCannotOverrideRoute(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.Directions(context.Background(), &DirectionsRequest{
		Origin:      Address("Toronto"),
		Destination: Address("Montreal"),
		Extra: []Param{
			{Name: "origin", Value: "Ottawa"},
			{Name: "mode", Value: "transit"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "origin=Toronto&destination=Montreal&mode=transit&key=test-key", gotQuery)
}

func TestDirectionsInvalidOriginNoDispatch(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.Directions(context.Background(), &DirectionsRequest{
		Origin:      nil,
		Destination: Address("Montreal"),
	})

	assert.ErrorIs(t, err, ErrInvalidLocation)
	assert.Zero(t, calls)
}

func TestDistanceMatrix(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/distancematrix/json", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.DistanceMatrix(context.Background(), &DistanceMatrixRequest{
		Origins:      []Location{Address("Vancouver"), LatLng{Lat: 49.2827, Lng: -123.1207}},
		Destinations: []Location{Address("Seattle")},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"origins=Vancouver%7C49.2827%2C-123.1207&destinations=Seattle&key=test-key",
		gotQuery)
}

func TestDistanceMatrixEmptyOrigins(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.DistanceMatrix(context.Background(), &DistanceMatrixRequest{
		Destinations: []Location{Address("Seattle")},
	})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestGeocodeVariants(t *testing.T) {
	tests := []struct {
		name      string
		req       *GeocodeRequest
		wantQuery string
	}{
		{
			name:      "address",
			req:       &GeocodeRequest{Location: Address("1600 Amphitheatre Parkway")},
			wantQuery: "address=1600+Amphitheatre+Parkway&key=test-key",
		},
		{
			name:      "coordinate becomes latlng",
			req:       &GeocodeRequest{Location: LatLng{Lat: 40.714224, Lng: -73.961452}},
			wantQuery: "latlng=40.714224%2C-73.961452&key=test-key",
		},
		{
			name:      "place id uses the dedicated bare parameter",
			req:       &GeocodeRequest{Location: PlaceID("ChIJd8BlQ2BZwokRAFUEcm_qrcA")},
			wantQuery: "place_id=ChIJd8BlQ2BZwokRAFUEcm_qrcA&key=test-key",
		},
		{
			name: "components only",
			req: &GeocodeRequest{Components: Components{
				{Key: "country", Value: "ES"},
				{Key: "postal_code", Value: "08027"},
			}},
			wantQuery: "components=country%3AES%7Cpostal_code%3A08027&key=test-key",
		},
		{
			name: "address with components",
			req: &GeocodeRequest{
				Location:   Address("Barcelona"),
				Components: Components{{Key: "country", Value: "ES"}},
			},
			wantQuery: "address=Barcelona&components=country%3AES&key=test-key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/geocode/json", r.URL.Path)
				gotQuery = r.URL.RawQuery
				_, _ = w.Write([]byte(okBody))
			})

			_, err := client.Geocode(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, gotQuery)
		})
	}
}

func TestGeocodeRejectsPolyline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.Geocode(context.Background(), &GeocodeRequest{
		Location: EncodedPolyline("gfo}EtohhU"),
	})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestGeocodeRejectsEmptyRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.Geocode(context.Background(), &GeocodeRequest{})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestReverseGeocode(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.ReverseGeocode(context.Background(),
		LatLng{Lat: 40.714224, Lng: -73.961452},
		Param{Name: "result_type", Value: "street_address"},
	)
	require.NoError(t, err)

	assert.Equal(t,
		"latlng=40.714224%2C-73.961452&result_type=street_address&key=test-key",
		gotQuery)
}

func TestAutocompleteEndpoints(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "Par", r.URL.Query().Get("input"))
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.PlaceAutocomplete(context.Background(), &AutocompleteRequest{Input: "Par"})
	require.NoError(t, err)
	assert.Equal(t, "/place/autocomplete/json", gotPath)

	_, err = client.PlaceQueryAutocomplete(context.Background(), &AutocompleteRequest{Input: "Par"})
	require.NoError(t, err)
	assert.Equal(t, "/place/queryautocomplete/json", gotPath)
}

func TestAutocompleteRequiresInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.PlaceAutocomplete(context.Background(), &AutocompleteRequest{Input: "  "})
	assert.Error(t, err)
}

func TestCallPassthrough(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(okBody))
	})

	_, err := client.Call(context.Background(), "place/details",
		Param{Name: "place_id", Value: "ChIJ789"},
		Param{Name: "fields", Value: "name,rating"},
	)
	require.NoError(t, err)

	assert.Equal(t, "/place/details/json", gotPath)
	assert.Equal(t, "place_id=ChIJ789&fields=name%2Crating&key=test-key", gotQuery)
}

func TestDefaultLanguageOverridable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fr", r.URL.Query().Get("language"))
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	client := NewClient(config.GoogleConfig{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Language: "en",
	})

	_, err := client.Geocode(context.Background(), &GeocodeRequest{
		Location: Address("Montreal"),
		Extra:    []Param{{Name: "language", Value: "fr"}},
	})
	require.NoError(t, err)
}

func TestStatusErrorSurfacesVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"quota exceeded"}`))
	})

	_, err := client.Geocode(context.Background(), &GeocodeRequest{Location: Address("Toronto")})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, StatusOverQueryLimit, statusErr.Code)
	assert.Equal(t, "quota exceeded", statusErr.Message)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(config.GoogleConfig{APIKey: "test-key", BaseURL: srv.URL})
	srv.Close()

	_, err := client.Geocode(context.Background(), &GeocodeRequest{Location: Address("Toronto")})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, endpointGeocode, transportErr.Endpoint)
}

func TestContextCancellationIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Geocode(ctx, &GeocodeRequest{Location: Address("Toronto")})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHealthCheck(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(okBody))
		})
		assert.NoError(t, client.HealthCheck(context.Background()))
	})

	t.Run("zero results still proves reachability", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		})
		assert.NoError(t, client.HealthCheck(context.Background()))
	})

	t.Run("denied key fails", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED"}`))
		})
		assert.Error(t, client.HealthCheck(context.Background()))
	})
}
