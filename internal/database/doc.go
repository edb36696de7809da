// Package database owns the gorm connection and the repositories of the
// game library.
//
// Layout:
//
//	database/
//	├── database.go      # Connection, migrations, import commit
//	├── games/           # Library entries and the dedup snapshot
//	├── settings/        # Per-user vocabulary and provider credentials
//	└── sync/            # CSV import progress, one row per user
//
// NewDatabase opens SQLite and builds every repository on the same handle:
//
//	db, err := database.NewDatabase("./pixeljournal.db")
//	snapshot, err := db.Games.CachedGames(userID)
//	s, err := db.Settings.LoadUserSettings(userID)
//	started, err := db.Imports.TryStartImport(userID, 0)
//
// Who consumes what:
//
//   - games.Repository: http.GameStore, services.LibraryReader, metadata.GameUpdater
//   - settings.Repository: http.SettingsStore, settingsstore.Loader, oauth2.TokenStore
//   - sync.Repository: http.ImportProgressStore, importers.ProgressRecorder
//   - Database: importers.GameWriter, http.Pinger
//
// The checks live in internal/interfaces/checks.go. New tables get their own
// sub-package with a Repository{db *gorm.DB} and are added to AutoMigrate.
package database
