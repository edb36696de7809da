package entities

import (
	"time"
)

// DataSource values accepted in UserSettings.DataSource.
const (
	DataSourceRAWG = "rawg"
	DataSourceIGDB = "igdb"
)

// DefaultCategories is the status vocabulary of a user who never edited it.
var DefaultCategories = []string{"Backlog", "Completed", "Abandoned", "Rejected"}

// UserSettings holds the per-user vocabulary and provider credentials.
type UserSettings struct {
	UserID     string   `gorm:"primaryKey;size:128" json:"user_id"`
	Categories []string `gorm:"serializer:json" json:"categories" validate:"dive,required,max=128"`
	Tags       []string `gorm:"serializer:json" json:"tags" validate:"dive,required,max=128"`
	DataSource string   `gorm:"size:16;default:rawg" json:"data_source" validate:"omitempty,oneof=rawg igdb"`

	// RawgAPIKey authenticates against RAWG.
	RawgAPIKey string `gorm:"size:255" json:"rawg_api_key" validate:"max=255"`

	// IGDB uses a Twitch application: the client id goes out on every
	// request, the secret is only used to mint access tokens.
	IGDBClientID     string `gorm:"size:255" json:"igdb_client_id" validate:"max=255"`
	IGDBClientSecret string `gorm:"size:255" json:"igdb_client_secret" validate:"max=255"`
	IGDBAccessToken  string `gorm:"type:text" json:"igdb_access_token"`

	// IGDBTokenExpiresAt is nil for tokens pasted in by hand.
	IGDBTokenExpiresAt *time.Time `json:"igdb_token_expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}

// DefaultUserSettings returns the settings a user starts with.
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:     userID,
		Categories: append([]string(nil), DefaultCategories...),
		Tags:       []string{},
		DataSource: DataSourceRAWG,
	}
}

// ActiveCategories returns the stored categories, or the defaults when
// none are stored.
func (s *UserSettings) ActiveCategories() []string {
	if len(s.Categories) == 0 {
		return append([]string(nil), DefaultCategories...)
	}
	return s.Categories
}

// ActiveDataSource returns the configured provider, defaulting to RAWG.
func (s *UserSettings) ActiveDataSource() string {
	if s.DataSource == "" {
		return DataSourceRAWG
	}
	return s.DataSource
}

// HasIGDBApp reports whether client credentials are stored for IGDB.
func (s *UserSettings) HasIGDBApp() bool {
	return s.IGDBClientID != "" && s.IGDBClientSecret != ""
}

// IsIGDBTokenExpiringSoon checks if the IGDB token expires within the given
// duration. Tokens without a known expiry never expire.
func (s *UserSettings) IsIGDBTokenExpiringSoon(within time.Duration) bool {
	if s.IGDBAccessToken == "" {
		return true
	}
	if s.IGDBTokenExpiresAt == nil {
		return false
	}
	return time.Now().Add(within).After(*s.IGDBTokenExpiresAt)
}
