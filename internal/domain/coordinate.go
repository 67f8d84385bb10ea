package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Coordinate is a WGS-84 viewport center in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within [-90, 90] x [-180, 180].
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Round returns the coordinate rounded to the given number of decimal places.
func (c Coordinate) Round(places int) Coordinate {
	scale := math.Pow(10, float64(places))
	return Coordinate{
		Latitude:  math.Round(c.Latitude*scale) / scale,
		Longitude: math.Round(c.Longitude*scale) / scale,
	}
}

// Key formats the coordinate as "lat,lon" with a fixed number of decimals.
func (c Coordinate) Key(places int) string {
	return fmt.Sprintf("%.*f,%.*f", places, c.Latitude, places, c.Longitude)
}

func (c Coordinate) String() string {
	return c.Key(4)
}

// FormatDegrees renders a single degree value with the given precision and
// no exponent, suitable for query strings.
func FormatDegrees(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}
