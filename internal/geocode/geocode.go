// Package geocode resolves place names to coordinates.
package geocode

import "context"

// Result is a resolved coordinate pair for a place name.
type Result struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name"`
}

// Geocoder resolves a place name. A nil Result with nil error means the
// provider found nothing; that is an expected outcome, not a failure.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (*Result, error)
}
