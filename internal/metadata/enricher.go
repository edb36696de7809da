package metadata

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mrlokans/pixeljournal/internal/entities"
)

var (
	ErrNoDetails     = errors.New("provider returned no details")
	ErrNotFromSource = errors.New("game has no provider reference")
)

// Credentials are the provider credentials of one user.
type Credentials struct {
	Key  string
	Auth AuthExtra
}

// CredentialResolver looks up the credentials a user stored for a source.
type CredentialResolver interface {
	Credentials(ctx context.Context, userID string, source Source) (Credentials, error)
}

// GameUpdater defines the interface for updating games in the database.
type GameUpdater interface {
	GetGame(userID, id string) (*entities.Game, error)
	UpdateGameDetails(userID, id string, fields GameUpdateFields) error
}

// GameUpdateFields contains the fields that can be updated via enrichment.
type GameUpdateFields struct {
	Developer *[]string
	Publisher *[]string
	Series    *string
}

// EnrichmentResult contains the result of an enrichment operation.
type EnrichmentResult struct {
	Game          *entities.Game `json:"game"`
	FieldsUpdated []string       `json:"fields_updated"`
	Source        string         `json:"source"`
}

// Enricher refreshes the provider credits of games already in a library.
type Enricher struct {
	dispatcher  *Dispatcher
	credentials CredentialResolver
	db          GameUpdater
}

func NewEnricher(dispatcher *Dispatcher, credentials CredentialResolver, db GameUpdater) *Enricher {
	return &Enricher{
		dispatcher:  dispatcher,
		credentials: credentials,
		db:          db,
	}
}

// EnrichGame fetches details for a stored game from the provider it was
// imported from and updates credits that changed.
func (e *Enricher) EnrichGame(ctx context.Context, userID, gameID string) (*EnrichmentResult, error) {
	game, err := e.db.GetGame(userID, gameID)
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	if game.Source == "" || game.ProviderGameID == "" {
		return nil, ErrNotFromSource
	}

	source, err := ParseSource(game.Source)
	if err != nil {
		return nil, err
	}

	creds, err := e.credentials.Credentials(ctx, userID, source)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}

	details := e.dispatcher.GetDetails(ctx, source, game.ProviderGameID, creds.Key, creds.Auth)
	if details == nil {
		return nil, fmt.Errorf("%w: %s game %s", ErrNoDetails, source, game.ProviderGameID)
	}

	updates, fieldsUpdated := e.buildUpdates(game, details)
	if len(fieldsUpdated) > 0 {
		if err := e.db.UpdateGameDetails(userID, gameID, updates); err != nil {
			return nil, fmt.Errorf("update game details: %w", err)
		}

		game, err = e.db.GetGame(userID, gameID)
		if err != nil {
			return nil, fmt.Errorf("refresh game: %w", err)
		}
	}

	return &EnrichmentResult{
		Game:          game,
		FieldsUpdated: fieldsUpdated,
		Source:        string(source),
	}, nil
}

// buildUpdates compares stored credits with fetched details. Empty
// provider values never overwrite stored ones.
func (e *Enricher) buildUpdates(game *entities.Game, details *GameDetailsResult) (GameUpdateFields, []string) {
	var updates GameUpdateFields
	var fieldsUpdated []string

	if len(details.Developer) > 0 && !slices.Equal(game.Developer, details.Developer) {
		updates.Developer = &details.Developer
		fieldsUpdated = append(fieldsUpdated, "developer")
	}

	if len(details.Publisher) > 0 && !slices.Equal(game.Publisher, details.Publisher) {
		updates.Publisher = &details.Publisher
		fieldsUpdated = append(fieldsUpdated, "publisher")
	}

	if details.Series != "" && game.Series != details.Series {
		updates.Series = &details.Series
		fieldsUpdated = append(fieldsUpdated, "series")
	}

	return updates, fieldsUpdated
}
