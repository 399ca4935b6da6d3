package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/simplextech/udi-poly-inventory/internal/auth"
	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/config"
)

// errNoJWTSecret is returned when a token is requested but the status API
// has no signing secret configured.
var errNoJWTSecret = errors.New("api.auth.jwt_secret is not set")

// newTokenCmd prints a bearer token for the status API, signed with the
// configured secret.
func newTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a status API bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.API.Auth.JWTSecret == "" {
				return errNoJWTSecret
			}

			token, err := auth.GenerateToken(subject, cfg.API.Auth.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")

	return cmd
}
