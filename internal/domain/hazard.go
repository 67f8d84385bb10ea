package domain

import (
	"fmt"
	"time"
)

// HazardName identifies one NRI hazard type by its camelCase key.
type HazardName string

const (
	Avalanche        HazardName = "avalanche"
	CoastalFlooding  HazardName = "coastalFlooding"
	ColdWave         HazardName = "coldWave"
	Drought          HazardName = "drought"
	Earthquake       HazardName = "earthquake"
	Hail             HazardName = "hail"
	HeatWave         HazardName = "heatWave"
	Hurricane        HazardName = "hurricane"
	IceStorm         HazardName = "iceStorm"
	Landslide        HazardName = "landslide"
	Lightning        HazardName = "lightning"
	RiverineFlooding HazardName = "riverineFlooding"
	StrongWind       HazardName = "strongWind"
	Tornado          HazardName = "tornado"
	Tsunami          HazardName = "tsunami"
	VolcanicActivity HazardName = "volcanicActivity"
	Wildfire         HazardName = "wildfire"
	WinterWeather    HazardName = "winterWeather"
)

// hazardNames is the canonical enumeration order, matching the order the
// risk API emits hazard keys.
var hazardNames = []HazardName{
	Avalanche, CoastalFlooding, ColdWave, Drought, Earthquake, Hail,
	HeatWave, Hurricane, IceStorm, Landslide, Lightning, RiverineFlooding,
	StrongWind, Tornado, Tsunami, VolcanicActivity, Wildfire, WinterWeather,
}

// HazardNames returns the closed hazard set in canonical order.
func HazardNames() []HazardName {
	out := make([]HazardName, len(hazardNames))
	copy(out, hazardNames)
	return out
}

// ParseHazardName validates s against the closed hazard set.
func ParseHazardName(s string) (HazardName, error) {
	for _, name := range hazardNames {
		if string(name) == s {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown hazard %q", s)
}

// HazardRecord holds the NRI statistics for one hazard in one county.
// A nil field means "not applicable or unmeasured", which is distinct from 0.
type HazardRecord struct {
	Events              *int     `json:"events"`
	AnnualizedFrequency *float64 `json:"annualizedFrequency"`
	AnnualLoss          *float64 `json:"annualLoss"`
	HazardTypeRiskScore *float64 `json:"hazardTypeRiskScore"`
}

// RiskProfile is the flattened NRI record for the county containing a
// coordinate. Hazards missing from the map, or mapped to nil, are absent.
type RiskProfile struct {
	State               string
	County              string
	Population          int
	SocialVulnerability float64
	CommunityResilience float64
	Hazards             map[HazardName]*HazardRecord
}

// Clone returns a deep copy of p. The copy shares no map, record or field
// pointer with p.
func (p RiskProfile) Clone() RiskProfile {
	out := p
	if p.Hazards == nil {
		return out
	}
	out.Hazards = make(map[HazardName]*HazardRecord, len(p.Hazards))
	for name, rec := range p.Hazards {
		if rec == nil {
			out.Hazards[name] = nil
			continue
		}
		out.Hazards[name] = &HazardRecord{
			Events:              clonePtr(rec.Events),
			AnnualizedFrequency: clonePtr(rec.AnnualizedFrequency),
			AnnualLoss:          clonePtr(rec.AnnualLoss),
			HazardTypeRiskScore: clonePtr(rec.HazardTypeRiskScore),
		}
	}
	return out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// RankedHazard is a presentation view of one hazard that has a score.
type RankedHazard struct {
	Name        HazardName
	DisplayName string
	Record      HazardRecord
}

// RiskLookup is one successful risk lookup for a coordinate.
type RiskLookup struct {
	Coordinate Coordinate  `json:"coordinate"`
	Profile    RiskProfile `json:"profile"`
	LookedUpAt time.Time   `json:"looked_up_at"`
}

// NewRiskLookup stamps a profile with the lookup time from the package clock.
func NewRiskLookup(c Coordinate, p RiskProfile) RiskLookup {
	return RiskLookup{
		Coordinate: c,
		Profile:    p,
		LookedUpAt: clock.Now().UTC(),
	}
}
