package domain

import "context"

// Place is the best match for a free-text place search.
type Place struct {
	Coordinate Coordinate
	Name       string  // short name, e.g. "Plano"
	FullName   string  // e.g. "Plano, Texas, United States"
	Relevance  float64 // 0.0-1.0 provider relevance score
}

// Geocoder resolves a place name to a coordinate so the map can jump there.
type Geocoder interface {
	// ForwardGeocode returns the best match for query, or ErrPlaceNotFound.
	ForwardGeocode(ctx context.Context, query string) (Place, error)
}
