package maps

// DirectionsRequest asks for a route between two locations, optionally
// through intermediate waypoints. Extra parameters are appended after the
// route fields and can never override them.
type DirectionsRequest struct {
	Origin      Location
	Destination Location
	Waypoints   []Location
	Extra       []Param
}

// DistanceMatrixRequest asks for travel distance and time between every
// origin/destination pair.
type DistanceMatrixRequest struct {
	Origins      []Location
	Destinations []Location
	Extra        []Param
}

// GeocodeRequest resolves a location to address results. Exactly which
// query parameter carries the location depends on its variant: addresses
// go in address, coordinates in latlng (a reverse lookup), place IDs in
// the dedicated place_id parameter. Components may be given alone for a
// component-filter-only lookup.
type GeocodeRequest struct {
	Location   Location
	Components Components
	Extra      []Param
}

// AutocompleteRequest asks for place predictions for a partial input.
type AutocompleteRequest struct {
	Input string
	Extra []Param
}
