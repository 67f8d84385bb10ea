// Command genmock converts a raw LightBox NRI response into the flat fixtures
// used by the risk API, dashboard, and integration test suites. It runs the
// real domain normalizer so the fixtures match what the API serves.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -nri-in internal/domain/testdata/collin_tx_nri.json \
//	  -profile-out internal/domain/testdata/collin_tx_profile.json \
//	  -lookup-out data/mock/collin_tx_lookup.json -lat 33.0198 -lon -96.6989
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	nriIn := flag.String("nri-in", "", "path to a raw LightBox NRI JSON response")
	profileOut := flag.String("profile-out", "", "output path for the flat risk profile fixture")
	lookupOut := flag.String("lookup-out", "", "optional output path for a lookup event fixture")
	lat := flag.Float64("lat", 0, "latitude recorded in the lookup fixture")
	lon := flag.Float64("lon", 0, "longitude recorded in the lookup fixture")
	flag.Parse()

	if *nriIn == "" || *profileOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -nri-in, -profile-out")
	}

	data, err := os.ReadFile(*nriIn)
	if err != nil {
		return fmt.Errorf("read NRI response: %w", err)
	}
	var resp domain.NRIResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode NRI response: %w", err)
	}

	profile, err := domain.CleanNRI(resp)
	if err != nil {
		return fmt.Errorf("normalize NRI response: %w", err)
	}

	if err := writeJSON(*profileOut, profile); err != nil {
		return fmt.Errorf("writing profile fixture: %w", err)
	}
	log.Printf("wrote profile fixture: %s", *profileOut)

	if *lookupOut != "" {
		coord := domain.Coordinate{Latitude: *lat, Longitude: *lon}
		if !coord.Valid() {
			return fmt.Errorf("invalid lookup coordinate %s", coord)
		}

		// Fixed clock for reproducible looked_up_at timestamps.
		domain.SetClock(clockwork.NewFakeClockAt(
			time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
		))
		defer domain.SetClock(nil)

		if err := writeJSON(*lookupOut, domain.NewRiskLookup(coord.Round(6), profile)); err != nil {
			return fmt.Errorf("writing lookup fixture: %w", err)
		}
		log.Printf("wrote lookup fixture: %s", *lookupOut)
	}

	printStats(profile)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats prints the values test assertions are usually written against.
func printStats(p domain.RiskProfile) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("County: %s County, %s\n", p.County, p.State)
	fmt.Printf("Population: %d\n", p.Population)
	fmt.Printf("Social vulnerability: %.2f, community resilience: %.2f\n",
		p.SocialVulnerability, p.CommunityResilience)

	detail := domain.DetailList(p)
	fmt.Printf("Scored hazards: %d of %d\n", len(detail), len(domain.HazardNames()))

	fmt.Println("Top hazards:")
	for i, h := range domain.Rank(p) {
		fmt.Printf("  %d. %s (%s) score=%s\n", i+1, h.DisplayName, h.Name, domain.FormatScore(h.Record.HazardTypeRiskScore))
	}

	var unscored []domain.HazardName
	for _, name := range domain.HazardNames() {
		if rec := p.Hazards[name]; rec == nil || rec.HazardTypeRiskScore == nil {
			unscored = append(unscored, name)
		}
	}
	fmt.Printf("Unscored: %v\n", unscored)
}
