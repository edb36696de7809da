package config

// Default locations and upstream endpoints.
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./pixeljournal.db"

	// DefaultUserID identifies the single user when requests carry no X-User-ID header
	DefaultUserID = "local"

	DefaultRawgAPIURL     = "https://api.rawg.io/api"
	DefaultIGDBAPIURL     = "https://api.igdb.com/v4"
	DefaultTwitchTokenURL = "https://id.twitch.tv/oauth2/token"
)
