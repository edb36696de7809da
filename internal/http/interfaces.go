package http

import (
	"context"
	"io"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/importers"
	"github.com/mrlokans/pixeljournal/internal/metadata"
	"github.com/mrlokans/pixeljournal/internal/oauth2"
	"github.com/mrlokans/pixeljournal/internal/settingsstore"
	"github.com/mrlokans/pixeljournal/internal/tasks"
)

// GameStore defines the library operations the games routes need.
type GameStore interface {
	ListGames(userID string) ([]entities.Game, error)
	ListGamesByStatus(userID, status string) ([]entities.Game, error)
	GetGame(userID, id string) (*entities.Game, error)
	CachedGames(userID string) ([]entities.CachedGameInfo, error)
	RenameStatus(userID, from, to string) (int64, error)
	DeleteGame(userID, id string) error
}

// SettingsStore defines the persisted settings operations.
type SettingsStore interface {
	LoadUserSettings(userID string) (*entities.UserSettings, error)
	SaveUserSettings(s *entities.UserSettings) error
	RenameCategory(userID, from, to string) error
}

// SettingsCache is the in-memory settings view that must be dropped after
// a write.
type SettingsCache interface {
	Get(ctx context.Context, userID string) (entities.UserSettings, error)
	Invalidate(userID string)
}

var _ SettingsCache = (*settingsstore.Store)(nil)

// GameEnricher refreshes provider credits of a stored game.
type GameEnricher interface {
	EnrichGame(ctx context.Context, userID, gameID string) (*metadata.EnrichmentResult, error)
}

// TokenRenewer mints and stores a new IGDB access token for a user.
type TokenRenewer interface {
	Renew(ctx context.Context, settings entities.UserSettings) (*oauth2.Exchange, error)
}

// ImportRunner runs one CSV import synchronously.
type ImportRunner interface {
	Import(ctx context.Context, userID string, csv io.Reader) (importers.Summary, error)
}

// ImportProgressStore tracks the latest import of each user.
type ImportProgressStore interface {
	GetImportProgress(userID string) (*entities.ImportProgress, error)
	TryStartImport(userID string, totalItems int) (bool, error)
	CompleteImport(userID string, succeeded bool, added, skipped int, errorMsg string) error
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

var _ TaskQueue = (*tasks.Client)(nil)

const taskStatusTimeout = 5 * time.Second
