package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/smartmark/internal/auth"
)

func newTokenCommand() *cobra.Command {
	var (
		opts auth.Options
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign an access token for local use (needs the server's JWT secret)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Secret == "" {
				return errors.New("no secret: pass --secret or set SMARTMARK_JWT_SECRET")
			}
			tok, err := auth.NewSigner(opts).Sign(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Secret, "secret", os.Getenv("SMARTMARK_JWT_SECRET"), "HS256 secret")
	flags.StringVar(&opts.Issuer, "issuer", os.Getenv("SMARTMARK_JWT_ISSUER"), "iss claim")
	flags.StringVar(&opts.Audience, "audience", os.Getenv("SMARTMARK_JWT_AUDIENCE"), "aud claim")
	flags.DurationVar(&ttl, "ttl", 24*time.Hour, "Validity")
	return cmd
}
