package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// UnmarshalJSON decodes the flat risk API body: metadata keys and hazard keys
// share the top level. Unknown keys are ignored, missing or null hazard keys
// are absent, and any type mismatch fails the whole payload.
func (p *RiskProfile) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}

	var (
		out        RiskProfile
		population float64
	)
	targets := []struct {
		key string
		dst any
	}{
		{"state", &out.State},
		{"county", &out.County},
		{"population", &population},
		{"socialVulnerability", &out.SocialVulnerability},
		{"communityResilience", &out.CommunityResilience},
	}
	for _, t := range targets {
		raw, ok := fields[t.key]
		if !ok || isNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return fmt.Errorf("%w: field %s: %w", ErrMalformedPayload, t.key, err)
		}
	}
	out.Population = int(math.Round(population))

	out.Hazards = make(map[HazardName]*HazardRecord, len(hazardNames))
	for _, name := range hazardNames {
		raw, ok := fields[string(name)]
		if !ok || isNull(raw) {
			continue
		}
		var rec HazardRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("%w: hazard %s: %w", ErrMalformedPayload, name, err)
		}
		out.Hazards[name] = &rec
	}

	*p = out
	return nil
}

// MarshalJSON emits the flat wire form with every known hazard key present,
// null when the hazard is absent.
func (p RiskProfile) MarshalJSON() ([]byte, error) {
	type field struct {
		key string
		val any
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	pairs := []field{
		{"state", p.State},
		{"county", p.County},
		{"population", p.Population},
		{"socialVulnerability", p.SocialVulnerability},
		{"communityResilience", p.CommunityResilience},
	}
	for _, name := range hazardNames {
		pairs = append(pairs, field{string(name), p.Hazards[name]})
	}

	for i, f := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.key)
		val, err := json.Marshal(f.val)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", f.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts fractional event counts, which some NRI vintages
// publish, and rounds them to the nearest whole event.
func (r *HazardRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		Events              *float64 `json:"events"`
		AnnualizedFrequency *float64 `json:"annualizedFrequency"`
		AnnualLoss          *float64 `json:"annualLoss"`
		HazardTypeRiskScore *float64 `json:"hazardTypeRiskScore"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*r = HazardRecord{
		AnnualizedFrequency: aux.AnnualizedFrequency,
		AnnualLoss:          aux.AnnualLoss,
		HazardTypeRiskScore: aux.HazardTypeRiskScore,
	}
	if aux.Events != nil {
		n := int(math.Round(*aux.Events))
		r.Events = &n
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
