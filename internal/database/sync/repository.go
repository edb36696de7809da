// Package sync stores the progress of CSV imports, one row per user.
//
// The import pipeline reports through importers.ProgressRecorder and the
// HTTP layer polls GetImportProgress while a run is in flight.
package sync

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/pixeljournal/internal/entities"
)

// staleAfter is how long a running import may go without an update before
// it is considered interrupted.
const staleAfter = 10 * time.Minute

const interruptedMessage = "import was interrupted"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) forUser(userID string) *gorm.DB {
	return r.db.Model(&entities.ImportProgress{}).Where("user_id = ?", userID)
}

// GetImportProgress returns the latest import of a user, or
// gorm.ErrRecordNotFound when the user never imported. A stale run is
// reported as failed.
func (r *Repository) GetImportProgress(userID string) (*entities.ImportProgress, error) {
	if err := r.failStale(userID); err != nil {
		return nil, err
	}
	var progress entities.ImportProgress
	if err := r.db.Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// StartImport marks a run as started, replacing whatever the previous run left.
func (r *Repository) StartImport(userID string, totalItems int) error {
	return r.startImport(userID, totalItems, nil).Error
}

// TryStartImport marks a run as started unless one is already in flight for
// the user. The check and the write happen in a single upsert, so of two
// concurrent callers only one gets true.
func (r *Repository) TryStartImport(userID string, totalItems int) (bool, error) {
	if err := r.failStale(userID); err != nil {
		return false, err
	}
	notRunning := clause.Where{Exprs: []clause.Expression{
		clause.Neq{Column: clause.Column{Table: "import_progress", Name: "status"}, Value: entities.ImportStatusRunning},
	}}
	result := r.startImport(userID, totalItems, &notRunning)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) startImport(userID string, totalItems int, onlyIf *clause.Where) *gorm.DB {
	now := time.Now()
	progress := entities.ImportProgress{
		UserID:     userID,
		Status:     entities.ImportStatusRunning,
		TotalItems: totalItems,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	upsert := clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":       entities.ImportStatusRunning,
			"total_items":  totalItems,
			"processed":    0,
			"added":        0,
			"skipped":      0,
			"current_item": "",
			"error":        "",
			"started_at":   now,
			"updated_at":   now,
			"completed_at": nil,
		}),
	}
	if onlyIf != nil {
		upsert.Where = *onlyIf
	}
	return r.db.Clauses(upsert).Create(&progress)
}

func (r *Repository) UpdateProgress(userID string, processed, total int, currentItem string) error {
	return r.forUser(userID).Updates(map[string]any{
		"processed":    processed,
		"total_items":  total,
		"current_item": currentItem,
		"updated_at":   time.Now(),
	}).Error
}

// CompleteImport records the outcome of a run. An empty errorMsg keeps any
// error stored earlier.
func (r *Repository) CompleteImport(userID string, succeeded bool, added, skipped int, errorMsg string) error {
	status := entities.ImportStatusCompleted
	if !succeeded {
		status = entities.ImportStatusFailed
	}

	now := time.Now()
	updates := map[string]any{
		"status":       status,
		"added":        added,
		"skipped":      skipped,
		"current_item": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return r.forUser(userID).Updates(updates).Error
}

// failStale marks a running import with no update for staleAfter as failed.
func (r *Repository) failStale(userID string) error {
	cutoff := time.Now().Add(-staleAfter)
	return r.forUser(userID).
		Where("status = ? AND updated_at < ?", entities.ImportStatusRunning, cutoff).
		Updates(map[string]any{
			"status":       entities.ImportStatusFailed,
			"error":        interruptedMessage,
			"current_item": "",
			"completed_at": time.Now(),
		}).Error
}
