// README: Root command, shared flags and the config/catalog loaders used by every subcommand.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"zonetaxi/internal/config"
	"zonetaxi/internal/modules/zone"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "zonetaxi",
	Short:         "Zone based ride dispatch engine",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "configuration file (empty for env only)")
	rootCmd.AddCommand(serveCmd, migrateCmd, zonesCmd, fareCmd, tokenCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func loadCatalog(cfg *config.Config) (*config.Catalog, error) {
	if cfg.Catalog == "" {
		return nil, errors.New("config: catalog is required")
	}
	cat, err := config.LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func loadZones() (*config.Config, *config.Catalog, *zone.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	reg, err := zone.NewRegistry(cat.Zones, zone.Options{
		StopToleranceM: cfg.Lookup.StopToleranceM,
		ZoneToleranceM: cfg.Lookup.ZoneToleranceM,
		Policies:       cat.Policies,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, cat, reg, nil
}
