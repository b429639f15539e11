// README: zones subcommands; list, find and resolve catalog entries offline.
package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"zonetaxi/internal/modules/location"
	"zonetaxi/internal/modules/zone"
)

var zonesKind string

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Inspect the zone catalog",
}

var zonesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List zones and stops",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, reg, err := loadZones()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tLABEL\tCATEGORY\tRESTRICTION\tNAME")
		for _, z := range reg.All() {
			if zonesKind != "" && string(z.Kind) != zonesKind {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", z.ID, z.Kind, z.Label(), z.Category, z.Restriction, z.Name)
		}
		return w.Flush()
	},
}

var zonesFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Resolve a name, alias or id to a zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, reg, err := loadZones()
		if err != nil {
			return err
		}
		z, err := reg.Find(args[0])
		if err != nil {
			return err
		}
		printZone(cmd, reg, z)
		return nil
	},
}

var zonesAtCmd = &cobra.Command{
	Use:   "at <x> <y>",
	Short: "Resolve world coordinates to a stop, zone or grid cell",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("x: %w", err)
		}
		y, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("y: %w", err)
		}
		_, _, reg, err := loadZones()
		if err != nil {
			return err
		}
		res := location.NewService(location.NewMemoryStore(), reg).Resolve(x, y)
		fmt.Fprintf(cmd.OutOrStdout(), "cell: %s\n", res.Cell)
		printZone(cmd, reg, res.Zone)
		return nil
	},
}

func printZone(cmd *cobra.Command, reg *zone.Registry, z zone.Zone) {
	p := reg.Policy(z.Restriction)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id: %s\nname: %s\nlabel: %s\nkind: %s\ncategory: %s\n", z.ID, z.Name, z.Label(), z.Kind, z.Category)
	fmt.Fprintf(out, "restriction: %s (pickup=%t dropoff=%t)\n", z.Restriction, p.PickupAllowed, p.DropoffAllowed)
	if len(z.AllowedVehicles) > 0 {
		fmt.Fprintf(out, "vehicles: %v\n", z.AllowedVehicles)
	}
}

func init() {
	zonesListCmd.Flags().StringVar(&zonesKind, "kind", "", "only list this kind (zone or stop)")
	zonesCmd.AddCommand(zonesListCmd, zonesFindCmd, zonesAtCmd)
}
