package geo

import "errors"

// ErrNoMatch is returned when the query cannot be resolved to
// coordinates.
var ErrNoMatch = errors.New("no geocoding match")
