package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nestmap/nestmap/internal/auth"
	"github.com/nestmap/nestmap/internal/config"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// newTokenCmd mints a bearer token for calling a local API. The signing
// settings default to the API's JWT_* environment.
func newTokenCmd() *cobra.Command {
	var (
		key, issuer, audience string
		ttl                   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Print a bearer token for a development API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := auth.NewJWTService(auth.JWTConfig{
				SigningKey: key,
				Issuer:     issuer,
				Audience:   audience,
				TokenTTL:   ttl,
			})
			token, exp, err := svc.IssueAccessToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("expires "+exp.Format(time.RFC3339)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&key, "key", envOr("JWT_SIGNING_KEY", config.DevSigningKey), "HMAC signing key")
	flags.StringVar(&issuer, "issuer", envOr("JWT_ISSUER", "nestmap"), "token issuer")
	flags.StringVar(&audience, "audience", envOr("JWT_AUDIENCE", auth.DefaultAudience), "token audience")
	flags.DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
