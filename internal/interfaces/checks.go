package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/pixeljournal/internal/apiclient"
	"github.com/mrlokans/pixeljournal/internal/database"
	"github.com/mrlokans/pixeljournal/internal/database/games"
	"github.com/mrlokans/pixeljournal/internal/database/settings"
	"github.com/mrlokans/pixeljournal/internal/database/sync"
	"github.com/mrlokans/pixeljournal/internal/http"
	"github.com/mrlokans/pixeljournal/internal/importers"
	"github.com/mrlokans/pixeljournal/internal/metadata"
	"github.com/mrlokans/pixeljournal/internal/oauth2"
	"github.com/mrlokans/pixeljournal/internal/services"
	"github.com/mrlokans/pixeljournal/internal/settingsstore"
	"github.com/mrlokans/pixeljournal/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.GameStore = (*games.Repository)(nil)
var _ http.SettingsStore = (*settings.Repository)(nil)
var _ http.ImportProgressStore = (*sync.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)
var _ services.LibraryReader = (*games.Repository)(nil)
var _ settingsstore.Loader = (*settings.Repository)(nil)
var _ oauth2.TokenStore = (*settings.Repository)(nil)

// =============================================================================
// Providers and Gateway
// =============================================================================

var _ metadata.Provider = (*metadata.RawgProvider)(nil)
var _ metadata.Provider = (*metadata.IGDBProvider)(nil)
var _ metadata.GameUpdater = (*games.Repository)(nil)
var _ metadata.CredentialResolver = (*settingsstore.Store)(nil)
var _ oauth2.TokenIssuer = (*oauth2.TwitchProvider)(nil)
var _ http.TokenRenewer = (*oauth2.Renewer)(nil)
var _ http.GameEnricher = (*metadata.Enricher)(nil)
var _ tasks.GameEnricher = (*metadata.Enricher)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.GameAPI = (*apiclient.Client)(nil)
var _ importers.GameWriter = (*database.Database)(nil)
var _ importers.ProgressRecorder = (*sync.Repository)(nil)
var _ apiclient.SettingsProvider = (*settingsstore.View)(nil)
var _ apiclient.SettingsProvider = (*settingsstore.State)(nil)
var _ services.SettingsSource = (*settingsstore.Store)(nil)
var _ http.ImportRunner = (*services.ImportService)(nil)
var _ tasks.Importer = (*services.ImportService)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ oauth2.Invalidator = (*settingsstore.Store)(nil)
var _ http.SettingsCache = (*settingsstore.Store)(nil)
