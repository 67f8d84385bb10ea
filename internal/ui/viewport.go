package ui

import (
	"math"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
)

const (
	defaultZoom = 13
	minZoom     = 1
	maxZoom     = 20

	// Web Mercator cannot show latitudes beyond this.
	maxLatitude = 85.0511
)

// panStep is how far one key press moves the center, in degrees. It halves
// with every zoom level so a press covers a similar share of the screen.
func panStep(zoom int) float64 {
	return 90 / math.Pow(2, float64(zoom))
}

// pan moves c by the given deltas, clamping latitude to the Mercator range
// and wrapping longitude into [-180, 180).
func pan(c domain.Coordinate, dLat, dLon float64) domain.Coordinate {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, c.Latitude+dLat))
	lon := math.Mod(c.Longitude+dLon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return domain.Coordinate{Latitude: lat, Longitude: lon - 180}
}
