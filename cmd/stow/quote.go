package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/stow/internal/app"
	"github.com/kirinyoku/stow/internal/config"
	"github.com/kirinyoku/stow/internal/domain"
)

func quoteCmd() *cobra.Command {
	var (
		kind     string
		length   float64
		width    float64
		vehicle  string
		covered  bool
		start    string
		duration time.Duration
		pc       config.PricingConfig
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a booking offline",
		Example: `  stow quote --type storage --length 10 --width 10 --duration 4h
  stow quote --type parking --vehicle 4-wheeler --covered --duration 90m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := &domain.Listing{
				Kind:         domain.ListingKind(kind),
				LengthFt:     length,
				WidthFt:      width,
				VehicleClass: domain.VehicleClass(vehicle),
			}
			if !l.Kind.Valid() {
				return fmt.Errorf("--type must be storage or parking")
			}
			if covered {
				l.Subtypes = []string{domain.SubtypeCovered}
			}

			from := time.Now().UTC()
			if start != "" {
				t, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("invalid --start (RFC3339): %w", err)
				}
				from = t
			}

			quote, err := app.PricingEngine(pc).Quote(l, from, from.Add(duration))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(quote)
			}

			fmt.Fprintf(out, "total:     %.2f\n", quote.Total)
			fmt.Fprintf(out, "duration:  %d min (%d blocks)\n", quote.Minutes, quote.Blocks)
			fmt.Fprintf(out, "per block: %.2f\n", quote.PerBlock)
			if quote.SavingsPercent > 0 {
				fmt.Fprintf(out, "savings:   %d%%\n", quote.SavingsPercent)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&kind, "type", string(domain.KindStorage), "Listing type (storage|parking)")
	f.Float64Var(&length, "length", 0, "Storage length in ft")
	f.Float64Var(&width, "width", 0, "Storage width in ft")
	f.StringVar(&vehicle, "vehicle", string(domain.TwoWheeler), "Parking vehicle type (2-wheeler|4-wheeler)")
	f.BoolVar(&covered, "covered", false, "Covered parking")
	f.StringVar(&start, "start", "", "Start time (RFC3339), defaults to now")
	f.DurationVar(&duration, "duration", time.Hour, "Booking duration")
	f.Float64Var(&pc.StorageBaseRate, "base-rate", 0, "Override storage base rate per sq ft per block")
	f.Float64Var(&pc.DecayConstant, "decay", 0, "Override storage decay constant")
	f.BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}
