package domain

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// TopHazards is the number of hazards Rank returns at most.
const TopHazards = 3

// upperRe matches each ASCII capital in a camelCase hazard key.
var upperRe = regexp.MustCompile(`([A-Z])`)

// labels maps each known hazard to its display label. Names outside the
// table fall back to FormatLabel.
var labels = map[HazardName]string{
	Avalanche:        "Avalanche",
	CoastalFlooding:  "Coastal Flooding",
	ColdWave:         "Cold Wave",
	Drought:          "Drought",
	Earthquake:       "Earthquake",
	Hail:             "Hail",
	HeatWave:         "Heat Wave",
	Hurricane:        "Hurricane",
	IceStorm:         "Ice Storm",
	Landslide:        "Landslide",
	Lightning:        "Lightning",
	RiverineFlooding: "Riverine Flooding",
	StrongWind:       "Strong Wind",
	Tornado:          "Tornado",
	Tsunami:          "Tsunami",
	VolcanicActivity: "Volcanic Activity",
	Wildfire:         "Wildfire",
	WinterWeather:    "Winter Weather",
}

// Rank returns up to TopHazards scored hazards ordered by score descending.
// Ties keep canonical order. The profile is not modified.
func Rank(p RiskProfile) []RankedHazard {
	ranked := scored(p)
	slices.SortStableFunc(ranked, func(a, b RankedHazard) int {
		return cmp.Compare(*b.Record.HazardTypeRiskScore, *a.Record.HazardTypeRiskScore)
	})
	if len(ranked) > TopHazards {
		ranked = ranked[:TopHazards]
	}
	return ranked
}

// DetailList returns every scored hazard in canonical order, unsorted.
func DetailList(p RiskProfile) []RankedHazard {
	return scored(p)
}

// scored keeps hazards whose record is present and carries a score.
// A score of 0 is a measured value and is kept.
func scored(p RiskProfile) []RankedHazard {
	out := make([]RankedHazard, 0, len(p.Hazards))
	for _, name := range hazardNames {
		rec := p.Hazards[name]
		if rec == nil || rec.HazardTypeRiskScore == nil {
			continue
		}
		out = append(out, RankedHazard{
			Name:        name,
			DisplayName: Label(name),
			Record:      *rec,
		})
	}
	return out
}

// FormatLabel inserts a space before every capital letter of a camelCase
// key and trims the result: "coastalFlooding" -> "coastal Flooding".
func FormatLabel(name string) string {
	return strings.TrimSpace(upperRe.ReplaceAllString(name, " $1"))
}

// Label returns the display label for a hazard.
func Label(name HazardName) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return FormatLabel(string(name))
}
