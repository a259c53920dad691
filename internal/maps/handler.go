package maps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rsierra/ex-maps/pkg/common"
	sentryerrors "github.com/rsierra/ex-maps/pkg/errors"
	"github.com/rsierra/ex-maps/pkg/logger"
	"github.com/rsierra/ex-maps/pkg/resilience"
	"github.com/rsierra/ex-maps/pkg/validation"
)

// Handler exposes the maps service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a maps HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the maps routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/maps")
	{
		group.POST("/directions", h.Directions)
		group.POST("/distance-matrix", h.DistanceMatrix)
		group.POST("/geocode", h.Geocode)
		group.POST("/reverse-geocode", h.ReverseGeocode)
		group.POST("/place-autocomplete", h.PlaceAutocomplete)
		group.POST("/place-query-autocomplete", h.PlaceQueryAutocomplete)
		group.GET("/raw/*endpoint", h.Raw)
		group.GET("/upstream-health", h.UpstreamHealth)
	}
}

type directionsPayload struct {
	Origin      string            `json:"origin" binding:"required"`
	Destination string            `json:"destination" binding:"required"`
	Waypoints   []string          `json:"waypoints"`
	Options     map[string]string `json:"options"`
}

// Directions handles POST /maps/directions
func (h *Handler) Directions(c *gin.Context) {
	var payload directionsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	origin, err := ParseLocation(payload.Origin)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "origin: "+err.Error())
		return
	}
	destination, err := ParseLocation(payload.Destination)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "destination: "+err.Error())
		return
	}
	waypoints, err := parseLocations(payload.Waypoints)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "waypoints: "+err.Error())
		return
	}

	result, err := h.service.Directions(c.Request.Context(), &DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Waypoints:   waypoints,
		Extra:       sortedParams(payload.Options),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, result)
}

type distanceMatrixPayload struct {
	Origins      []string          `json:"origins" binding:"required,min=1"`
	Destinations []string          `json:"destinations" binding:"required,min=1"`
	Options      map[string]string `json:"options"`
}

// DistanceMatrix handles POST /maps/distance-matrix
func (h *Handler) DistanceMatrix(c *gin.Context) {
	var payload distanceMatrixPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	origins, err := parseLocations(payload.Origins)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "origins: "+err.Error())
		return
	}
	destinations, err := parseLocations(payload.Destinations)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "destinations: "+err.Error())
		return
	}

	result, err := h.service.DistanceMatrix(c.Request.Context(), &DistanceMatrixRequest{
		Origins:      origins,
		Destinations: destinations,
		Extra:        sortedParams(payload.Options),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, result)
}

type geocodePayload struct {
	Address    string            `json:"address"`
	PlaceID    string            `json:"place_id"`
	Components map[string]string `json:"components"`
	Options    map[string]string `json:"options"`
}

// Geocode handles POST /maps/geocode
func (h *Handler) Geocode(c *gin.Context) {
	var payload geocodePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if payload.Address != "" && payload.PlaceID != "" {
		common.ErrorResponse(c, http.StatusBadRequest, "address and place_id are mutually exclusive")
		return
	}

	req := &GeocodeRequest{
		Components: sortedComponents(payload.Components),
		Extra:      sortedParams(payload.Options),
	}
	switch {
	case payload.PlaceID != "":
		req.Location = PlaceID(payload.PlaceID)
	case payload.Address != "":
		location, err := ParseLocation(payload.Address)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "address: "+err.Error())
			return
		}
		req.Location = location
	case len(req.Components) == 0:
		common.ErrorResponse(c, http.StatusBadRequest, "one of address, place_id or components is required")
		return
	}

	result, err := h.service.Geocode(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, result)
}

type reverseGeocodePayload struct {
	Latitude  float64           `json:"latitude" validate:"latitude"`
	Longitude float64           `json:"longitude" validate:"longitude"`
	Options   map[string]string `json:"options"`
}

// ReverseGeocode handles POST /maps/reverse-geocode
func (h *Handler) ReverseGeocode(c *gin.Context) {
	var payload reverseGeocodePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := validation.ValidateStruct(payload); err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ReverseGeocode(c.Request.Context(),
		LatLng{Lat: payload.Latitude, Lng: payload.Longitude},
		sortedParams(payload.Options)...,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, result)
}

type autocompletePayload struct {
	Input   string            `json:"input" binding:"required"`
	Options map[string]string `json:"options"`
}

// PlaceAutocomplete handles POST /maps/place-autocomplete
func (h *Handler) PlaceAutocomplete(c *gin.Context) {
	h.autocomplete(c, h.service.PlaceAutocomplete)
}

// PlaceQueryAutocomplete handles POST /maps/place-query-autocomplete
func (h *Handler) PlaceQueryAutocomplete(c *gin.Context) {
	h.autocomplete(c, h.service.PlaceQueryAutocomplete)
}

func (h *Handler) autocomplete(c *gin.Context, fn func(context.Context, *AutocompleteRequest) (json.RawMessage, error)) {
	var payload autocompletePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := fn(c.Request.Context(), &AutocompleteRequest{
		Input: payload.Input,
		Extra: sortedParams(payload.Options),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, result)
}

// Raw handles GET /maps/raw/*endpoint, forwarding the query string to the
// named upstream endpoint as-is.
func (h *Handler) Raw(c *gin.Context) {
	endpoint := strings.Trim(c.Param("endpoint"), "/")
	if endpoint == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "endpoint path is required")
		return
	}

	query := c.Request.URL.Query()
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]Param, 0, len(query))
	for _, name := range names {
		for _, value := range query[name] {
			params = append(params, Param{Name: name, Value: value})
		}
	}

	result, err := h.service.Call(c.Request.Context(), endpoint, params...)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, result)
}

// UpstreamHealth handles GET /maps/upstream-health
func (h *Handler) UpstreamHealth(c *gin.Context) {
	if err := h.service.HealthCheck(c.Request.Context()); err != nil {
		common.ErrorResponse(c, http.StatusServiceUnavailable, "upstream unavailable: "+err.Error())
		return
	}
	common.SuccessResponse(c, http.StatusOK, gin.H{"upstream": "healthy"})
}

// respondError maps service errors to HTTP responses. Upstream status
// codes travel to the client verbatim in the error envelope.
func (h *Handler) respondError(c *gin.Context, err error) {
	var statusErr *StatusError
	var transportErr *TransportError

	switch {
	case errors.Is(err, ErrInvalidLocation):
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())

	case errors.As(err, &statusErr):
		status := http.StatusBadGateway
		if statusErr.Code == StatusZeroResults || statusErr.Code == StatusNotFound {
			status = http.StatusNotFound
		}
		common.ErrorResponseWithCode(c, status, statusErr.Code, statusErr.Error())

	case errors.Is(err, resilience.ErrCircuitOpen):
		common.ErrorResponse(c, http.StatusServiceUnavailable, "upstream temporarily unavailable")

	case errors.As(err, &transportErr):
		logger.ErrorContext(c.Request.Context(), "maps upstream transport failure", zap.Error(err))
		sentryerrors.CaptureErrorWithContext(c.Request.Context(), err, map[string]interface{}{
			"endpoint": transportErr.Endpoint,
		})
		if errors.Is(err, context.DeadlineExceeded) {
			common.ErrorResponse(c, http.StatusGatewayTimeout, "upstream timed out")
			return
		}
		common.ErrorResponse(c, http.StatusBadGateway, "upstream unavailable")

	default:
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
	}
}

func parseLocations(values []string) ([]Location, error) {
	if len(values) == 0 {
		return nil, nil
	}
	locations := make([]Location, len(values))
	for i, value := range values {
		location, err := ParseLocation(value)
		if err != nil {
			return nil, err
		}
		locations[i] = location
	}
	return locations, nil
}

// sortedParams flattens an options map into params sorted by name. The
// JSON map has no order to preserve, so the facade picks a stable one;
// typed callers of the client control ordering directly.
func sortedParams(options map[string]string) []Param {
	if len(options) == 0 {
		return nil
	}
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]Param, len(names))
	for i, name := range names {
		params[i] = Param{Name: name, Value: options[name]}
	}
	return params
}

func sortedComponents(components map[string]string) Components {
	if len(components) == 0 {
		return nil
	}
	keys := make([]string, 0, len(components))
	for key := range components {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cs := make(Components, len(keys))
	for i, key := range keys {
		cs[i] = Component{Key: key, Value: components[key]}
	}
	return cs
}
