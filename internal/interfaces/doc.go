// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// the extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - GameStore: Library reads, status rename, deletion (internal/http/interfaces.go)
//   - SettingsStore: Persisted user settings (internal/http/interfaces.go)
//   - ImportProgressStore: Latest import per user (internal/http/interfaces.go)
//   - LibraryReader: Dedup snapshot for imports (internal/services/interfaces.go)
//   - GameWriter: Vocabulary merge and batch commit (internal/importers/pipeline.go)
//   - TokenStore: IGDB tokens per user (internal/oauth2/refresh_scheduler.go)
//
// ## External Service Interfaces
//
//   - Provider: A game-data backend such as RAWG or IGDB (internal/metadata/types.go)
//   - TokenIssuer: Client-credentials exchange with Twitch (internal/oauth2/provider.go)
//   - GameAPI: Gateway lookups on behalf of one user (internal/importers/pipeline.go)
//
// ## Settings Interfaces
//
//   - SettingsProvider: Readiness-gated settings (internal/apiclient/client.go)
//   - CredentialResolver: Per-source credentials (internal/metadata/enricher.go)
//   - SettingsCache: Cached settings, dropped after writes (internal/http/interfaces.go)
//
// ## Progress Tracking Interfaces
//
//   - ProgressRecorder: Import progress while a run is in flight (internal/importers/progress.go)
//
// # Adding a New Game Data Provider
//
// To add a new source of game data (e.g., MobyGames):
//
//  1. Add the source constant and its parsing in internal/metadata/types.go
//
//     const SourceMoby Source = "moby"
//
//  2. Implement Provider in internal/metadata/
//
//     type MobyProvider struct {
//         baseURL    string
//         httpClient *http.Client
//         log        *zap.SugaredLogger
//     }
//
//     func (p *MobyProvider) Name() Source { return SourceMoby }
//     func (p *MobyProvider) Search(ctx context.Context, query, credential string, auth AuthExtra) []GameSearchResult
//     func (p *MobyProvider) GetDetails(ctx context.Context, gameID, credential string, auth AuthExtra) *GameDetailsResult
//
//     var _ Provider = (*MobyProvider)(nil)
//
//     Upstream failures are logged and degrade to an empty result, never an error.
//
//  3. Register it in NewDefaultDispatcher (internal/metadata/dispatcher.go)
//
//  4. Teach settingsstore.CredentialsFor where the key lives in UserSettings
//
// # Adding a New Route
//
//  1. Declare the narrow store interface the handler needs in internal/http/interfaces.go
//
//  2. Write the controller with a NewXController constructor
//
//  3. Add the dependency to RouterConfig and register the group in router.go
//     only when the dependency is set
//
//  4. Wire the concrete type in internal/entrypoint/entrypoint.go
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., play sessions):
//
//  1. Create sub-package: internal/database/sessions/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register the model with AutoMigrate in internal/database/database.go
//
//  4. Add a compile-time check to checks.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
