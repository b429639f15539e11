// README: fare subcommand; quotes a trip with the configured default rates.
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"zonetaxi/internal/modules/compat"
	"zonetaxi/internal/modules/location"
	"zonetaxi/internal/modules/pricing"
	"zonetaxi/internal/modules/vehicle"
	"zonetaxi/internal/types"
)

var fareVehicle string

var fareCmd = &cobra.Command{
	Use:   "fare <from> <to>",
	Short: "Quote a fare between two zones with the configured default rates",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cat, reg, err := loadZones()
		if err != nil {
			return err
		}
		vehicles, err := vehicle.NewCatalog(cat.Vehicles)
		if err != nil {
			return err
		}
		vt, err := vehicles.Get(fareVehicle)
		if err != nil {
			return err
		}
		from, err := reg.Find(args[0])
		if err != nil {
			return err
		}
		to, err := reg.Find(args[1])
		if err != nil {
			return err
		}
		km := location.Distance(from, to)
		quote, err := pricing.NewService(nil, cfg.Pricing.Rates()).Estimate(cmd.Context(), "", pricing.PricingRequest{
			DistanceKm:     km,
			CostMultiplier: vt.CostMultiplier,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s) -> %s (%s) by %s: %.1f km\n", from.Name, from.Label(), to.Name, to.Label(), vt.Name, km)
		keys := make([]string, 0, len(quote.Breakdown))
		for k := range quote.Breakdown {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %-10s %s\n", k, types.Money{Amount: quote.Breakdown[k], Currency: quote.Total.Currency})
		}
		fmt.Fprintf(out, "  %-10s %s\n", "total", quote.Total)
		if err := compat.NewValidator(reg).CheckRoute(from, &to, vt); err != nil {
			fmt.Fprintf(out, "not bookable: %v\n", err)
		}
		return nil
	},
}

func init() {
	fareCmd.Flags().StringVarP(&fareVehicle, "vehicle", "v", "auto", "vehicle type id")
}
