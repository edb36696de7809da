// Package games provides database operations for library entries.
//
// # Interface Implementation
//
//	var _ metadata.GameUpdater = (*Repository)(nil)
//
// # Usage
//
//	repo := games.NewRepository(db)
//	snapshot, err := repo.CachedGames(userID)
package games

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metadata"
)

// insertBatchSize keeps each INSERT well under SQLite's bound-variable limit.
const insertBatchSize = 100

var ErrGameNotFound = errors.New("game not found")

var _ metadata.GameUpdater = (*Repository)(nil)

// Repository handles all game database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new games repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListGames returns the library of a user, most recently added first.
func (r *Repository) ListGames(userID string) ([]entities.Game, error) {
	var games []entities.Game
	err := r.db.Where("user_id = ?", userID).
		Order("date_added DESC").
		Find(&games).Error
	return games, err
}

// ListGamesByStatus returns the games of a user filed under status.
func (r *Repository) ListGamesByStatus(userID, status string) ([]entities.Game, error) {
	var games []entities.Game
	err := r.db.Where("user_id = ? AND status = ?", userID, status).
		Order("date_added DESC").
		Find(&games).Error
	return games, err
}

// GetGame retrieves a single game owned by userID.
func (r *Repository) GetGame(userID, id string) (*entities.Game, error) {
	var game entities.Game
	err := r.db.Where("user_id = ? AND id = ?", userID, id).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// CachedGames returns the slim projection of a user's library used for
// duplicate detection.
func (r *Repository) CachedGames(userID string) ([]entities.CachedGameInfo, error) {
	var cached []entities.CachedGameInfo
	err := r.db.Model(&entities.Game{}).
		Select("id, source, provider_game_id, title, status").
		Where("user_id = ?", userID).
		Order("date_added DESC").
		Scan(&cached).Error
	return cached, err
}

// CountGames returns the number of games in a user's library.
func (r *Repository) CountGames(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Game{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CreateGame stores a single game.
func (r *Repository) CreateGame(game *entities.Game) error {
	return r.db.Create(game).Error
}

// CommitGames stores games in a single transaction: either all of them are
// written or none are.
func (r *Repository) CommitGames(ctx context.Context, games []entities.Game) error {
	if len(games) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&games, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert games: %w", err)
		}
		return nil
	})
}

// RenameStatus moves every game of a user from one status to another and
// returns the number of games moved.
func (r *Repository) RenameStatus(userID, from, to string) (int64, error) {
	result := r.db.Model(&entities.Game{}).
		Where("user_id = ? AND status = ?", userID, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// UpdateGameDetails writes the enrichment fields that are set.
func (r *Repository) UpdateGameDetails(userID, id string, fields metadata.GameUpdateFields) error {
	game, err := r.GetGame(userID, id)
	if err != nil {
		return err
	}

	if fields.Developer != nil {
		game.Developer = *fields.Developer
	}
	if fields.Publisher != nil {
		game.Publisher = *fields.Publisher
	}
	if fields.Series != nil {
		game.Series = *fields.Series
	}

	// Select keeps serializer:json columns in the UPDATE even when unchanged.
	return r.db.Model(game).Select("developer", "publisher", "series").Updates(game).Error
}

// DeleteGame removes a game from a user's library.
func (r *Repository) DeleteGame(userID, id string) error {
	result := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&entities.Game{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return nil
}
