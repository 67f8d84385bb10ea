package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-risk/internal/adapter/mapbox"
	"github.com/couchcryptid/storm-data-risk/internal/adapter/riskclient"
	"github.com/couchcryptid/storm-data-risk/internal/config"
	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "riskctl",
		Short: "Query the hazard risk API from the command line",
		Long: `riskctl looks up the FEMA National Risk Index for a coordinate through
the risk API and prints the ranked hazard summary.`,
		SilenceUsage: true,
	}

	addLookupCmd(rootCmd)
	addHazardsCmd(rootCmd)

	return rootCmd
}

// addLookupCmd adds 'lookup', which fetches and prints one risk profile.
func addLookupCmd(rootCmd *cobra.Command) {
	var (
		lat, lon float64
		place    string
		all      bool
		asJSON   bool
		apiURL   string
	)

	lookupCmd := &cobra.Command{
		Use:   "lookup",
		Short: "Show the top hazards for a coordinate or place",
		Example: `  riskctl lookup --lat 33.0198 --lon -96.6989
  riskctl lookup --place "Plano, TX" --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if apiURL != "" {
				cfg.RiskAPIURL = apiURL
			}

			logger := observability.NewLoggerTo(cmd.ErrOrStderr(), "warn", "text")
			metrics := observability.NewUnregisteredMetrics()
			client := riskclient.NewClient(cfg, logger, metrics)
			ctx := cmd.Context()

			coord := domain.Coordinate{Latitude: lat, Longitude: lon}
			if place != "" {
				if !cfg.MapboxEnabled {
					return errors.New("place search needs MAPBOX_TOKEN")
				}
				found, err := mapbox.NewClient(cfg, logger, metrics).ForwardGeocode(ctx, place)
				if err != nil {
					return fmt.Errorf("search %q: %w", place, err)
				}
				coord = found.Coordinate
				if !asJSON {
					fmt.Fprintf(cmd.OutOrStdout(), "Place: %s (%s)\n", found.FullName, coord)
				}
			}

			profile, err := client.LookupRisk(ctx, coord)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", coord, err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(profile)
			}
			return printProfile(cmd.OutOrStdout(), profile, all)
		},
	}

	lookupCmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	lookupCmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	lookupCmd.Flags().StringVarP(&place, "place", "p", "", "Place name to geocode instead of --lat/--lon (needs MAPBOX_TOKEN)")
	lookupCmd.Flags().BoolVarP(&all, "all", "a", false, "List every scored hazard instead of the top three")
	lookupCmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw profile as JSON")
	lookupCmd.Flags().StringVar(&apiURL, "api", "", "Risk API base URL (overrides RISK_API_URL)")
	lookupCmd.MarkFlagsRequiredTogether("lat", "lon")
	lookupCmd.MarkFlagsMutuallyExclusive("place", "lat")
	lookupCmd.MarkFlagsMutuallyExclusive("place", "lon")
	lookupCmd.MarkFlagsOneRequired("place", "lat")

	rootCmd.AddCommand(lookupCmd)
}

// addHazardsCmd adds 'hazards', which lists the known hazard names.
func addHazardsCmd(rootCmd *cobra.Command) {
	hazardsCmd := &cobra.Command{
		Use:   "hazards",
		Short: "List the hazard types in the risk index",
		Run: func(cmd *cobra.Command, _ []string) {
			t := newTable("Name", "Label")
			for _, name := range domain.HazardNames() {
				t.Row(string(name), domain.Label(name))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
		},
	}

	rootCmd.AddCommand(hazardsCmd)
}

func printProfile(out io.Writer, p domain.RiskProfile, all bool) error {
	fmt.Fprintf(out, "%s County, %s\n", p.County, p.State)
	fmt.Fprintf(out, "Population: %s  Social vulnerability: %.2f  Community resilience: %.2f\n\n",
		humanize.Comma(int64(p.Population)), p.SocialVulnerability, p.CommunityResilience)

	hazards := domain.Rank(p)
	if all {
		hazards = domain.DetailList(p)
	}
	if len(hazards) == 0 {
		fmt.Fprintln(out, "No scored hazards for this location.")
		return nil
	}

	t := newTable("Hazard", "Score", "Events", "Freq/yr", "Annual loss ($)")
	for _, h := range hazards {
		r := h.Record
		t.Row(
			h.DisplayName,
			domain.FormatScore(r.HazardTypeRiskScore),
			domain.FormatEvents(r.Events),
			domain.FormatFrequency(r.AnnualizedFrequency),
			domain.FormatLoss(r.AnnualLoss),
		)
	}
	_, err := fmt.Fprintln(out, t)
	return err
}

// newTable returns a borderless table with a rule under the headers. Every
// column after the first is right-aligned.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().PaddingRight(2)
			if col > 0 {
				cell = cell.Align(lipgloss.Right)
			}
			if row == table.HeaderRow {
				cell = cell.Bold(true)
			}
			return cell
		})
}
