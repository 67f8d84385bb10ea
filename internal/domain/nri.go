package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// NRIResponse is the LightBox risk-index body for a geometry query.
type NRIResponse struct {
	NRIs []NRIRecord `json:"nris"`
}

// NRIRecord is one NRI county record. Hazard objects sit at the top level
// beside the county metadata, keyed by hazard name.
type NRIRecord struct {
	State               string
	County              string
	Population          *float64
	SocialVulnerability *float64
	CommunityResilience *float64
	Hazards             map[HazardName]NRIHazard
}

// NRIHazard holds the upstream per-hazard fields, including the nested
// objects that CleanNRI flattens.
type NRIHazard struct {
	Events              *float64   `json:"events"`
	AnnualizedFrequency *float64   `json:"annualizedFrequency"`
	AnnualLoss          *nriTotal  `json:"annualLoss"`
	HazardTypeRiskIndex *nriScored `json:"hazardTypeRiskIndex"`
}

type nriTotal struct {
	Total *float64 `json:"total"`
}

type nriScored struct {
	Score  *float64 `json:"score"`
	Rating string   `json:"rating,omitempty"`
}

// UnmarshalJSON picks out the county metadata and the known hazard objects,
// ignoring the many other NRI columns.
func (r *NRIRecord) UnmarshalJSON(data []byte) error {
	var meta struct {
		State               string     `json:"state"`
		County              string     `json:"county"`
		Population          *float64   `json:"population"`
		SocialVulnerability *nriScored `json:"socialVulnerability"`
		CommunityResilience *nriScored `json:"communityResilience"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	out := NRIRecord{
		State:      meta.State,
		County:     meta.County,
		Population: meta.Population,
		Hazards:    make(map[HazardName]NRIHazard, len(hazardNames)),
	}
	if meta.SocialVulnerability != nil {
		out.SocialVulnerability = meta.SocialVulnerability.Score
	}
	if meta.CommunityResilience != nil {
		out.CommunityResilience = meta.CommunityResilience.Score
	}

	for _, name := range hazardNames {
		raw, ok := fields[string(name)]
		if !ok || isNull(raw) {
			continue
		}
		var h NRIHazard
		if err := json.Unmarshal(raw, &h); err != nil {
			return fmt.Errorf("hazard %s: %w", name, err)
		}
		out.Hazards[name] = h
	}

	*r = out
	return nil
}

// CleanNRI flattens the first NRI record into a RiskProfile. Every known
// hazard gets a record; hazards NRI does not report end up with all fields
// nil, so they never rank.
func CleanNRI(resp NRIResponse) (RiskProfile, error) {
	if len(resp.NRIs) == 0 {
		return RiskProfile{}, ErrNoCoverage
	}
	rec := resp.NRIs[0]

	profile := RiskProfile{
		State:               rec.State,
		County:              rec.County,
		Population:          roundOrZero(rec.Population),
		SocialVulnerability: valueOrZero(rec.SocialVulnerability),
		CommunityResilience: valueOrZero(rec.CommunityResilience),
		Hazards:             make(map[HazardName]*HazardRecord, len(hazardNames)),
	}

	for _, name := range hazardNames {
		h := rec.Hazards[name]
		out := &HazardRecord{AnnualizedFrequency: h.AnnualizedFrequency}
		if h.Events != nil {
			n := int(math.Round(*h.Events))
			out.Events = &n
		}
		if h.AnnualLoss != nil {
			out.AnnualLoss = h.AnnualLoss.Total
		}
		if h.HazardTypeRiskIndex != nil {
			out.HazardTypeRiskScore = h.HazardTypeRiskIndex.Score
		}
		profile.Hazards[name] = out
	}

	return profile, nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func roundOrZero(v *float64) int {
	if v == nil {
		return 0
	}
	return int(math.Round(*v))
}
