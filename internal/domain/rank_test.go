package domain

import (
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSampleProfile(t *testing.T) RiskProfile {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "collin_tx_profile.json"))
	require.NoError(t, err)

	var p RiskProfile
	require.NoError(t, json.Unmarshal(data, &p))
	return p
}

func score(v float64) *float64 { return &v }

func names(hs []RankedHazard) []HazardName {
	out := make([]HazardName, len(hs))
	for i, h := range hs {
		out[i] = h.Name
	}
	return out
}

func TestRank_SampleProfile(t *testing.T) {
	p := loadSampleProfile(t)

	top := Rank(p)

	require.Len(t, top, 3)
	assert.Equal(t, []HazardName{Tornado, Hail, StrongWind}, names(top))
	assert.InDelta(t, 55.1, *top[0].Record.HazardTypeRiskScore, 1e-9)
	assert.InDelta(t, 34.52, *top[1].Record.HazardTypeRiskScore, 1e-9)
	assert.InDelta(t, 17.54, *top[2].Record.HazardTypeRiskScore, 1e-9)
	assert.Equal(t, "Strong Wind", top[2].DisplayName)
}

func TestRank_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 500; i++ {
		p := RiskProfile{Hazards: make(map[HazardName]*HazardRecord)}
		for _, name := range hazardNames {
			switch rng.IntN(4) {
			case 0: // absent
			case 1:
				p.Hazards[name] = &HazardRecord{}
			default:
				p.Hazards[name] = &HazardRecord{HazardTypeRiskScore: score(float64(rng.IntN(20)))}
			}
		}

		top := Rank(p)
		require.LessOrEqual(t, len(top), TopHazards)
		for j := range top {
			require.NotNil(t, top[j].Record.HazardTypeRiskScore)
			if j > 0 {
				require.GreaterOrEqual(t, *top[j-1].Record.HazardTypeRiskScore, *top[j].Record.HazardTypeRiskScore)
			}
		}
		for _, h := range DetailList(p) {
			require.NotNil(t, h.Record.HazardTypeRiskScore)
		}
	}
}

func TestRank_TiesKeepCanonicalOrder(t *testing.T) {
	p := RiskProfile{Hazards: map[HazardName]*HazardRecord{
		Wildfire: {HazardTypeRiskScore: score(10)},
		Hail:     {HazardTypeRiskScore: score(10)},
		Drought:  {HazardTypeRiskScore: score(10)},
		Tornado:  {HazardTypeRiskScore: score(10)},
	}}

	assert.Equal(t, []HazardName{Drought, Hail, Tornado}, names(Rank(p)))
}

func TestRank_FewerThanThree(t *testing.T) {
	p := RiskProfile{Hazards: map[HazardName]*HazardRecord{
		Hail:    {HazardTypeRiskScore: score(0)},
		Tornado: {HazardTypeRiskScore: nil},
		Drought: nil,
	}}

	top := Rank(p)
	require.Len(t, top, 1)
	assert.Equal(t, Hail, top[0].Name)

	assert.Empty(t, Rank(RiskProfile{}))
}

func TestRank_DoesNotMutateProfile(t *testing.T) {
	p := loadSampleProfile(t)
	before, err := json.Marshal(p)
	require.NoError(t, err)

	_ = Rank(p)
	_ = DetailList(p)

	after, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestDetailList_SampleProfile(t *testing.T) {
	p := loadSampleProfile(t)

	details := DetailList(p)

	want := []HazardName{
		ColdWave, Drought, Earthquake, Hail, HeatWave, Hurricane, IceStorm,
		Landslide, Lightning, RiverineFlooding, StrongWind, Tornado, Wildfire, WinterWeather,
	}
	if diff := cmp.Diff(want, names(details)); diff != "" {
		t.Fatalf("detail list mismatch (-want +got):\n%s", diff)
	}

	// coldWave scores a measured 0 and stays; avalanche has a null score and tsunami is null.
	assert.Contains(t, names(details), ColdWave)
	assert.NotContains(t, names(details), Avalanche)
	assert.NotContains(t, names(details), Tsunami)
	assert.InDelta(t, 0.0, *details[0].Record.HazardTypeRiskScore, 1e-9)
}

func TestFormatLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"coastalFlooding", "coastal Flooding"},
		{"hail", "hail"},
		{"strongWind", "strong Wind"},
		{"volcanicActivity", "volcanic Activity"},
		{"Tornado", "Tornado"},
		{"iceStormX", "ice Storm X"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLabel(tt.in))
		})
	}
}

func TestFormatLabel_IdempotentWithoutCapitals(t *testing.T) {
	for _, s := range []string{"hail", "drought", "coastal flooding"} {
		once := FormatLabel(s)
		assert.Equal(t, once, FormatLabel(once))
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Coastal Flooding", Label(CoastalFlooding))
	assert.Equal(t, "Hail", Label(Hail))
	assert.Equal(t, "sea Spray", Label(HazardName("seaSpray")))

	for _, name := range HazardNames() {
		assert.NotEmpty(t, Label(name), name)
	}
}

func TestParseHazardName(t *testing.T) {
	name, err := ParseHazardName("riverineFlooding")
	require.NoError(t, err)
	assert.Equal(t, RiverineFlooding, name)

	_, err = ParseHazardName("meteor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meteor")
}
