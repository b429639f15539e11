// README: serve subcommand; runs the API and background loops until SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zonetaxi/internal/app"
	"zonetaxi/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the re-broadcast scheduler and the pending sweep",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	svc, err := app.New(ctx, cfg, cat)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.New("main").Infof("loaded %d zones, %d vehicle types", svc.Zones.Len(), len(cat.Vehicles))
	return svc.Run(ctx)
}
