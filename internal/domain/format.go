package domain

import (
	"strconv"

	"github.com/dustin/go-humanize"
)

// Presentation formatting. A nil value is shown as zero at the field's
// precision; the model itself keeps nil.

// FormatScore renders a risk score with one decimal place.
func FormatScore(v *float64) string {
	return strconv.FormatFloat(deref(v), 'f', 1, 64)
}

// FormatFrequency renders an annualized frequency with two decimal places.
func FormatFrequency(v *float64) string {
	return strconv.FormatFloat(deref(v), 'f', 2, 64)
}

// FormatLoss renders an annual loss in dollars with two decimal places and
// comma grouping, e.g. 18345210.88 -> "18,345,210.88".
func FormatLoss(v *float64) string {
	return humanize.FormatFloat("#,###.##", deref(v))
}

// FormatEvents renders an event count.
func FormatEvents(v *int) string {
	if v == nil {
		return "0"
	}
	return strconv.Itoa(*v)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
