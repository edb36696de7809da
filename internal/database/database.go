package database

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/pixeljournal/internal/database/games"
	"github.com/mrlokans/pixeljournal/internal/database/settings"
	"github.com/mrlokans/pixeljournal/internal/database/sync"
	"github.com/mrlokans/pixeljournal/internal/entities"
)

// Database owns the gorm connection and the domain repositories built on it.
type Database struct {
	DB       *gorm.DB
	Games    *games.Repository
	Settings *settings.Repository
	Imports  *sync.Repository
}

func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithLogLevel(dbPath, logger.Warn)
}

func NewDatabaseWithLogLevel(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Game{},
		&entities.UserSettings{},
		&entities.ImportProgress{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{
		DB:       db,
		Games:    games.NewRepository(db),
		Settings: settings.NewRepository(db),
		Imports:  sync.NewRepository(db),
	}, nil
}

// GormLogLevel maps LOG_LEVEL values onto gorm's logger levels.
func GormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// MergeVocabulary adds new categories and tags to a user's settings.
func (d *Database) MergeVocabulary(ctx context.Context, userID string, categories, tags []string) error {
	return d.Settings.MergeVocabulary(ctx, userID, categories, tags)
}

// CommitGames stores one batch of imported games atomically.
func (d *Database) CommitGames(ctx context.Context, batch []entities.Game) error {
	return d.Games.CommitGames(ctx, batch)
}
