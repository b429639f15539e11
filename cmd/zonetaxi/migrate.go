// README: migrate subcommand; applies migrations/*.sql in order.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"zonetaxi/internal/infra"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations to the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DB.DSN == "" {
			return errors.New("db.dsn is required")
		}
		db, err := infra.NewDB(cmd.Context(), cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := infra.Migrate(cmd.Context(), db, migrationsDir)
		if err != nil {
			return err
		}
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory of .sql files")
}
