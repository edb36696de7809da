package services

import (
	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/settingsstore"
)

// LibraryReader provides read-only access to a user's library.
// Use this interface when you only need the dedup snapshot.
type LibraryReader interface {
	CachedGames(userID string) ([]entities.CachedGameInfo, error)
}

// SettingsSource hands out readiness-gated user settings.
type SettingsSource interface {
	Effective(userID string) *settingsstore.View
	Invalidate(userID string)
}
