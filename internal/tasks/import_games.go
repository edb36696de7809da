package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/importers"
)

// ImportGamesTask imports an uploaded CSV export into a user's library.
type ImportGamesTask struct {
	UserID   string `json:"user_id"`
	FileName string `json:"file_name,omitempty"`
	CSV      string `json:"csv"`
}

// Config returns the queue configuration for CSV imports. A failed import
// is not retried: the user re-uploads after fixing the cause.
func (t ImportGamesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_games",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Importer runs one CSV import for a user.
type Importer interface {
	Import(ctx context.Context, userID string, csv io.Reader) (importers.Summary, error)
}

// ImportGamesProcessor creates a processor function for ImportGamesTask.
func ImportGamesProcessor(importer Importer, log *zap.SugaredLogger) backlite.QueueProcessor[ImportGamesTask] {
	return func(ctx context.Context, task ImportGamesTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}

		summary, err := importer.Import(ctx, task.UserID, strings.NewReader(task.CSV))
		if err != nil {
			return fmt.Errorf("import %q for %s: %w", task.FileName, task.UserID, err)
		}

		log.Infow("CSV import task finished",
			"user_id", task.UserID,
			"file", task.FileName,
			"added", summary.Added,
			"skipped", summary.Skipped,
		)
		return nil
	}
}

// NewImportGamesQueue creates a backlite queue for CSV imports.
func NewImportGamesQueue(importer Importer, log *zap.SugaredLogger) backlite.Queue {
	return backlite.NewQueue(ImportGamesProcessor(importer, log))
}
