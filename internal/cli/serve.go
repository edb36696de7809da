package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/pixeljournal/internal/entrypoint"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return entrypoint.Run(cfg, version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
