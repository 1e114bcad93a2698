package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/smartmark/internal/app"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bookmark API server (configured from SMARTMARK_* environment variables)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.New().Run()
		},
	}
}
