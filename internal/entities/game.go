package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultGameStatus is applied when an imported row carries no status.
const DefaultGameStatus = "Backlog"

// Game is a library entry owned by one user. Descriptive fields are copied
// from the provider at import time; the rest belongs to the user.
type Game struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	UserID          string    `gorm:"size:128;index;not null" json:"user_id"`
	Source          string    `gorm:"size:16;index:idx_games_provider" json:"source"`
	ProviderGameID  string    `gorm:"size:64;index:idx_games_provider" json:"provider_game_id"`
	Title           string    `gorm:"size:512;not null" json:"title"`
	Year            *int      `json:"year"`
	ImageURL        string    `gorm:"size:1024" json:"image_url"`
	Developer       []string  `gorm:"serializer:json" json:"developer"`
	Publisher       []string  `gorm:"serializer:json" json:"publisher"`
	Genres          []string  `gorm:"serializer:json" json:"genres"`
	Series          string    `gorm:"size:256" json:"series"`
	UserNote        string    `gorm:"type:text" json:"user_note"`
	IsFavorite      bool      `json:"is_favorite"`
	UserRating      int       `json:"user_rating"`
	PlayTime        int       `json:"play_time"`
	MarkdownContent string    `gorm:"type:text" json:"markdown_content"`
	Tags            []string  `gorm:"serializer:json" json:"tags"`
	Status          string    `gorm:"size:128;index" json:"status"`
	DateAdded       time.Time `json:"date_added"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Game) TableName() string {
	return "games"
}

// BeforeCreate assigns a document id to records created without one.
func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// CachedGameInfo is the slim projection of a library entry used for
// duplicate detection during imports.
type CachedGameInfo struct {
	ID             string `json:"id"`
	Source         string `json:"source"`
	ProviderGameID string `json:"provider_game_id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
}

const welcomeNoteMarkdown = "# Welcome\n\nUse the search to add games, or import a CSV export of your collection.\n" +
	"Statuses and tags you use are added to your settings automatically."

// NewWelcomeNote builds the placeholder entry created for a brand new user.
func NewWelcomeNote(userID string, now time.Time) Game {
	return Game{
		UserID:          userID,
		Title:           "Welcome to your game journal",
		Developer:       []string{},
		Publisher:       []string{},
		Genres:          []string{},
		Tags:            []string{},
		Status:          DefaultGameStatus,
		UserNote:        "Search for a game or import a CSV export to start building your library.",
		MarkdownContent: welcomeNoteMarkdown,
		DateAdded:       now,
	}
}
