// README: token subcommand; issues HS256 tokens for jwt auth mode.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"zonetaxi/internal/config"
	"zonetaxi/internal/infra"
)

var (
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <uid>",
	Short: "Issue a signed token for jwt auth mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Auth.Mode != config.AuthJWT {
			return errors.New("auth.mode must be jwt")
		}
		tok, err := infra.IssueJWT(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, args[0], tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "role claim (driver or admin)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
