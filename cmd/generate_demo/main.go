// Command generate_demo creates a demo database with a small sample library.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db] [-user demo]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/mrlokans/pixeljournal/internal/database"
	"github.com/mrlokans/pixeljournal/internal/entities"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"
	defaultDemoUser         = "demo"
)

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	userID := flag.String("user", defaultDemoUser, "user id that owns the demo library")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	library := demoLibrary(*userID, now)
	categories, tags := vocabularyOf(library)

	settings := entities.DefaultUserSettings(*userID)
	if err := db.Settings.SaveUserSettings(&settings); err != nil {
		log.Fatalf("Failed to save settings: %v", err)
	}
	if err := db.MergeVocabulary(ctx, *userID, categories, tags); err != nil {
		log.Fatalf("Failed to merge vocabulary: %v", err)
	}

	welcome := entities.NewWelcomeNote(*userID, now)
	if err := db.Games.CreateGame(&welcome); err != nil {
		log.Fatalf("Failed to save welcome note: %v", err)
	}
	if err := db.CommitGames(ctx, library); err != nil {
		log.Fatalf("Failed to save games: %v", err)
	}
	for _, g := range library {
		log.Printf("Saved: %s (%s, %s)", g.Title, g.Status, g.Source)
	}

	log.Println("Demo database generated successfully!")
}

func vocabularyOf(games []entities.Game) (categories, tags []string) {
	seenCat := make(map[string]bool)
	seenTag := make(map[string]bool)
	for _, g := range games {
		if !seenCat[g.Status] {
			seenCat[g.Status] = true
			categories = append(categories, g.Status)
		}
		for _, t := range g.Tags {
			if !seenTag[t] {
				seenTag[t] = true
				tags = append(tags, t)
			}
		}
	}
	return categories, tags
}

func year(y int) *int {
	return &y
}

func demoLibrary(userID string, now time.Time) []entities.Game {
	games := []entities.Game{
		{
			Source:         entities.DataSourceRAWG,
			ProviderGameID: "3328",
			Title:          "The Witcher 3: Wild Hunt",
			Year:           year(2015),
			Developer:      []string{"CD PROJEKT RED"},
			Publisher:      []string{"CD PROJEKT RED"},
			Genres:         []string{"Action", "RPG"},
			Series:         "The Witcher",
			Status:         "Completed",
			UserRating:     5,
			PlayTime:       140,
			IsFavorite:     true,
			Tags:           []string{"open world", "story"},
			UserNote:       "Blood and Wine is the best expansion I have played.",
		},
		{
			Source:         entities.DataSourceRAWG,
			ProviderGameID: "22511",
			Title:          "The Legend of Zelda: Breath of the Wild",
			Year:           year(2017),
			Developer:      []string{"Nintendo"},
			Publisher:      []string{"Nintendo"},
			Genres:         []string{"Action", "Adventure"},
			Series:         "The Legend of Zelda",
			Status:         "Backlog",
			Tags:           []string{"open world"},
		},
		{
			Source:         entities.DataSourceIGDB,
			ProviderGameID: "1942",
			Title:          "Hollow Knight",
			Year:           year(2017),
			Developer:      []string{"Team Cherry"},
			Publisher:      []string{"Team Cherry"},
			Genres:         []string{"Platform", "Adventure"},
			Status:         "Abandoned",
			UserRating:     3,
			PlayTime:       12,
			Tags:           []string{"metroidvania"},
			UserNote:       "Stuck on the Mantis Lords, may come back later.",
		},
		{
			Source:         entities.DataSourceIGDB,
			ProviderGameID: "119133",
			Title:          "Disco Elysium",
			Year:           year(2019),
			Developer:      []string{"ZA/UM"},
			Publisher:      []string{"ZA/UM"},
			Genres:         []string{"Role-playing (RPG)"},
			Status:         "Completed",
			UserRating:     5,
			PlayTime:       35,
			IsFavorite:     true,
			Tags:           []string{"story"},
		},
		{
			Title:     "Untitled Jam Game",
			Developer: []string{},
			Publisher: []string{},
			Genres:    []string{},
			Status:    "Rejected",
			Tags:      []string{},
			UserNote:  "Tried at a local game jam, no store page.",
		},
	}

	for i := range games {
		games[i].UserID = userID
		games[i].DateAdded = now.Add(-time.Duration(len(games)-i) * 24 * time.Hour)
	}
	return games
}
