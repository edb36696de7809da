package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mrlokans/pixeljournal/internal/entrypoint"
	"github.com/mrlokans/pixeljournal/internal/importers"
)

// importCmd imports a CSV export through a running gateway
var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Imports a CSV export into a library",
	Long: `Imports a CSV export (Url, Game, Rating, Status, Created, Review columns)
into the library of a user. Games are resolved through the gateway at GATEWAY_URL,
so the server must be running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		quiet, _ := cmd.Flags().GetBool("quiet")
		if userID == "" {
			userID = cfg.Global.DefaultUserID
		}
		return runImport(args[0], userID, quiet)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("user", "u", "", "User whose library receives the games (default: DEFAULT_USER_ID)")
	importCmd.Flags().BoolP("quiet", "q", false, "Do not show a progress bar")
}

func runImport(path, userID string, quiet bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	app, err := entrypoint.Build(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipeline, in, err := app.Imports.Prepare(ctx, userID, file)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	for event := range pipeline.Stream(ctx, in) {
		switch event.Kind {
		case importers.EventProgress:
			if quiet || event.Total == 0 {
				continue
			}
			if bar == nil {
				bar = progressbar.Default(int64(event.Total), "Importing")
			}
			_ = bar.Set(event.Current)

		case importers.EventMessage:
			if bar != nil {
				bar.Describe(truncateString(event.Message, 40))
			}
		}

		if !event.Terminal() {
			continue
		}
		if bar != nil {
			if event.Kind == importers.EventComplete {
				_ = bar.Finish()
			}
			fmt.Println()
		}
		if event.Summary != nil {
			printSummary(*event.Summary)
		}
		if event.Kind == importers.EventComplete {
			if total, err := app.Database.Games.CountGames(userID); err == nil {
				fmt.Printf("Library now holds %d games\n", total)
			}
		}
		return event.Err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("import interrupted: %w", err)
	}
	return nil
}

func printSummary(s importers.Summary) {
	fmt.Printf("Done: %d rows, %d added, %d skipped", s.Total, s.Added, s.Skipped)
	if s.Skipped > 0 {
		fmt.Printf(" (%d invalid URL, %d unresolved, %d already in library)", s.InvalidURL, s.Unresolved, s.Duplicates)
	}
	fmt.Println()
}

func truncateString(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return string(r)
}
