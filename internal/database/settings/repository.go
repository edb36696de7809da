// Package settings provides database operations for per-user settings.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	s, err := repo.LoadUserSettings("local")
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/pixeljournal/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetUserSettings retrieves the stored settings of a user. The boolean is
// false when the user has none yet.
func (r *Repository) GetUserSettings(userID string) (*entities.UserSettings, bool, error) {
	var s entities.UserSettings
	err := r.db.Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

// LoadUserSettings returns the settings of a user. The first read for a new
// user stores the defaults together with a welcome note in their library.
func (r *Repository) LoadUserSettings(userID string) (*entities.UserSettings, error) {
	if stored, ok, err := r.GetUserSettings(userID); err != nil || ok {
		return stored, err
	}

	var loaded entities.UserSettings
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&loaded).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		loaded = entities.DefaultUserSettings(userID)
		if err := tx.Create(&loaded).Error; err != nil {
			return fmt.Errorf("create default settings: %w", err)
		}
		welcome := entities.NewWelcomeNote(userID, time.Now())
		if err := tx.Create(&welcome).Error; err != nil {
			return fmt.Errorf("create welcome note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loaded, nil
}

// SaveUserSettings creates or replaces the settings row of s.UserID.
func (r *Repository) SaveUserSettings(s *entities.UserSettings) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(s).Error
}

// MergeVocabulary adds categories and tags missing from a user's settings.
// Existing entries keep their order; new ones are appended.
func (r *Repository) MergeVocabulary(ctx context.Context, userID string, categories, tags []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s entities.UserSettings
		err := tx.Where("user_id = ?", userID).First(&s).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s = entities.DefaultUserSettings(userID)
		} else if err != nil {
			return err
		}

		s.Categories = union(s.ActiveCategories(), categories)
		s.Tags = union(s.Tags, tags)

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"categories", "tags", "updated_at"}),
		}).Create(&s).Error
	})
}

// RenameCategory replaces from with to in a user's category list. When to
// is already present, from is just dropped.
func (r *Repository) RenameCategory(userID, from, to string) error {
	s, err := r.LoadUserSettings(userID)
	if err != nil {
		return err
	}

	renamed := make([]string, 0, len(s.ActiveCategories()))
	for _, c := range s.ActiveCategories() {
		if c == from {
			c = to
		}
		renamed = append(renamed, c)
	}

	return r.db.Model(&entities.UserSettings{UserID: userID}).
		Select("categories").
		Updates(&entities.UserSettings{Categories: union(nil, renamed)}).Error
}

// SetIGDBToken stores a freshly minted IGDB access token.
func (r *Repository) SetIGDBToken(userID, accessToken string, expiresAt *time.Time) error {
	if _, err := r.LoadUserSettings(userID); err != nil {
		return err
	}
	return r.db.Model(&entities.UserSettings{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"igdb_access_token":     accessToken,
			"igdb_token_expires_at": expiresAt,
			"updated_at":            time.Now(),
		}).Error
}

// ListWithIGDBApp returns the settings of every user that stored IGDB
// client credentials.
func (r *Repository) ListWithIGDBApp() ([]entities.UserSettings, error) {
	var list []entities.UserSettings
	err := r.db.Where("igdb_client_id <> '' AND igdb_client_secret <> ''").Find(&list).Error
	return list, err
}

// union appends the entries of extra missing from base, skipping blanks
// and duplicates within extra.
func union(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
