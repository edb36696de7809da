package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/metadata"
)

// EnrichGameTask refreshes the credits of a single game from its provider.
type EnrichGameTask struct {
	UserID string `json:"user_id"`
	GameID string `json:"game_id"`
}

// Config returns the queue configuration for game enrichment tasks.
func (t EnrichGameTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_game",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// GameEnricher refreshes stored games from their provider.
type GameEnricher interface {
	EnrichGame(ctx context.Context, userID, gameID string) (*metadata.EnrichmentResult, error)
}

// EnrichGameProcessor creates a processor function for EnrichGameTask.
func EnrichGameProcessor(enricher GameEnricher, log *zap.SugaredLogger) backlite.QueueProcessor[EnrichGameTask] {
	return func(ctx context.Context, task EnrichGameTask) error {
		if enricher == nil {
			return fmt.Errorf("enricher not configured")
		}

		result, err := enricher.EnrichGame(ctx, task.UserID, task.GameID)
		if err != nil {
			return fmt.Errorf("enrich game %s: %w", task.GameID, err)
		}

		if len(result.FieldsUpdated) > 0 {
			log.Infow("Enriched game",
				"game_id", task.GameID,
				"title", result.Game.Title,
				"fields", result.FieldsUpdated,
				"source", result.Source,
			)
		} else {
			log.Infow("Game needs no updates", "game_id", task.GameID, "title", result.Game.Title)
		}
		return nil
	}
}

// NewEnrichGameQueue creates a backlite queue for game enrichment tasks.
func NewEnrichGameQueue(enricher GameEnricher, log *zap.SugaredLogger) backlite.Queue {
	return backlite.NewQueue(EnrichGameProcessor(enricher, log))
}
