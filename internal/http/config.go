package http

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/pixeljournal/internal/metadata"
	"github.com/mrlokans/pixeljournal/internal/oauth2"
	"github.com/mrlokans/pixeljournal/internal/settingsstore"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Gateway
	Dispatcher *metadata.Dispatcher
	Issuer     oauth2.TokenIssuer
	Fallback   settingsstore.Fallback

	// Library and settings
	Games         GameStore
	Settings      SettingsStore
	SettingsCache SettingsCache
	Enricher      GameEnricher
	TokenRenewer  TokenRenewer

	// Imports
	Importer       ImportRunner
	ImportProgress ImportProgressStore

	// Task queue client (optional). Leave nil to run work inline.
	TaskQueue TaskQueue

	// Health and metrics
	Health         Pinger
	MetricsDB      *gorm.DB
	MetricsEnabled bool

	// DefaultUserID is used when a request carries no X-User-ID header
	DefaultUserID string

	// Application info
	Version string

	Logger *zap.SugaredLogger
}
