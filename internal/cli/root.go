package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/pixeljournal/internal/config"
	"github.com/mrlokans/pixeljournal/internal/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	cfg     *config.Config
)

// rootCmd starts the HTTP server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "pixeljournal",
	Short: "Personal video game library with RAWG and IGDB lookups",
	Long: `PixelJournal keeps a library of the games you played, want to play or dropped.
Games are looked up through RAWG or IGDB and can be imported in bulk from a CSV export.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.NewConfig()
		logger.InitLogger(cfg.Global.LogLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pixeljournal %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the command line. It exits the process on failure.
func Execute(v, c string) {
	version = v
	commit = c
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
