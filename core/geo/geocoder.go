// Package geo defines the geocoding collaborator consumed before an
// incident can be dispatched. Resolution itself is external; the core
// only requires its output.
package geo

import "context"

// Result is a resolved position for free-text or device coordinates.
type Result struct {
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Precision       string  `json:"precision"`
	MatchedLocation string  `json:"matched_location"`
	PlaceID         string  `json:"place_id"`
}

// Geocoder resolves a free-text query into coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (Result, error)
}

// StaticGeocoder returns canned results keyed by query; used in tests
// and local mode.
type StaticGeocoder struct {
	Results map[string]Result
}

func (g StaticGeocoder) Resolve(ctx context.Context, query string) (Result, error) {
	if r, ok := g.Results[query]; ok {
		return r, nil
	}
	return Result{}, ErrNoMatch
}
