// Package cli is the smartmark command line: the server itself and a thin
// client for the bookmark API.
package cli

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/smartmark/internal/client"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultTimeout = 60 * time.Second
)

type commandContext struct {
	server  string
	token   string
	timeout time.Duration
	json    bool
	verbose bool
}

// NewRootCommand builds the smartmark command tree.
func NewRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "smartmark",
		Short:         "AI-enriched bookmark service and client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.server, "server", envOr("SMARTMARK_URL", defaultServer), "SmartMark API base URL")
	flags.StringVar(&ctx.token, "token", os.Getenv("SMARTMARK_TOKEN"), "Access token (see `smartmark token`)")
	flags.DurationVar(&ctx.timeout, "timeout", defaultTimeout, "Request timeout")
	flags.BoolVar(&ctx.json, "json", false, "Print JSON instead of tables")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newTokenCommand())
	rootCmd.AddCommand(newVersionCommand(ctx))

	return rootCmd
}

func (c *commandContext) client() (*client.Client, error) {
	if strings.TrimSpace(c.token) == "" {
		return nil, errors.New("no access token: pass --token or set SMARTMARK_TOKEN")
	}
	return client.New(c.server, c.token, c.timeout)
}

func (c *commandContext) logger() logger.Logger {
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	return logger.New(level, isatty.IsTerminal(os.Stderr.Fd()))
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
