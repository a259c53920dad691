package maps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLocation reports a location value that cannot be put on the
// wire. It is returned before any request is dispatched.
var ErrInvalidLocation = errors.New("invalid location")

const (
	placeIDPrefix  = "place_id:"
	polylinePrefix = "enc:"
)

// Location is a value that can stand for a place in a request: free-text
// address, latitude/longitude pair, place identifier, or an encoded
// polyline. The set of variants is closed; each knows its wire form.
type Location interface {
	wireValue() (string, error)
}

// Address is free-form text passed to the API unchanged.
type Address string

func (a Address) wireValue() (string, error) {
	if strings.TrimSpace(string(a)) == "" {
		return "", fmt.Errorf("%w: empty address", ErrInvalidLocation)
	}
	return string(a), nil
}

// LatLng is a latitude/longitude pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the pair in the API's "lat,lng" form using the shortest
// decimal representation that round-trips, independent of locale.
func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

func (l LatLng) wireValue() (string, error) {
	return l.String(), nil
}

// PlaceID is an opaque place identifier. Inside composite fields it
// travels with the place_id: prefix; endpoints with a dedicated parameter
// receive the bare identifier instead.
type PlaceID string

func (p PlaceID) wireValue() (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty place id", ErrInvalidLocation)
	}
	return placeIDPrefix + string(p), nil
}

// EncodedPolyline is a polyline-encoded point sequence, meaningful only
// inside waypoint lists.
type EncodedPolyline string

func (e EncodedPolyline) wireValue() (string, error) {
	if e == "" {
		return "", fmt.Errorf("%w: empty polyline", ErrInvalidLocation)
	}
	return polylinePrefix + string(e), nil
}

// ParseLocation reinterprets the textual forms accepted on the wire as
// typed variants: the place_id: and enc: prefixes, a bare "lat,lng"
// numeric pair, and everything else as a plain address.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidLocation)
	}

	if id, ok := strings.CutPrefix(s, placeIDPrefix); ok {
		if id == "" {
			return nil, fmt.Errorf("%w: empty place id", ErrInvalidLocation)
		}
		return PlaceID(id), nil
	}

	if points, ok := strings.CutPrefix(s, polylinePrefix); ok {
		if points == "" {
			return nil, fmt.Errorf("%w: empty polyline", ErrInvalidLocation)
		}
		return EncodedPolyline(points), nil
	}

	if ll, ok := parseLatLng(s); ok {
		return ll, nil
	}

	return Address(s), nil
}

func parseLatLng(s string) (LatLng, bool) {
	before, after, found := strings.Cut(s, ",")
	if !found {
		return LatLng{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(before), 64)
	if err != nil {
		return LatLng{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(after), 64)
	if err != nil {
		return LatLng{}, false
	}

	return LatLng{Lat: lat, Lng: lng}, true
}

// encodeLocation returns the inline wire form of loc.
func encodeLocation(loc Location) (string, error) {
	if loc == nil {
		return "", fmt.Errorf("%w: nil location", ErrInvalidLocation)
	}
	return loc.wireValue()
}

// encodeLocationList joins the inline wire forms with "|". Order is
// preserved and duplicates are kept; the upstream API is the one that
// decides what a repeated stop means.
func encodeLocationList(locations []Location) (string, error) {
	parts := make([]string, len(locations))
	for i, loc := range locations {
		value, err := encodeLocation(loc)
		if err != nil {
			return "", err
		}
		parts[i] = value
	}
	return strings.Join(parts, "|"), nil
}

// Component is a single key:value filter entry.
type Component struct {
	Key   string
	Value string
}

// Components is an ordered component filter. Entries are joined in the
// exact order given; this layer never sorts them.
type Components []Component

func (cs Components) encode() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.Key + ":" + c.Value
	}
	return strings.Join(parts, "|")
}
