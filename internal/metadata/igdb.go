package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/metrics"
)

const igdbAPIURL = "https://api.igdb.com/v4"

const (
	igdbSearchFields  = "name, first_release_date, cover.url, genres.name"
	igdbDetailsFields = "involved_companies.company.name, involved_companies.developer, " +
		"involved_companies.publisher, collection.name"
)

// IGDBProvider queries IGDB with Apicalypse bodies. Every call needs the
// Twitch client id as credential and an OAuth access token in AuthExtra.
type IGDBProvider struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.SugaredLogger
}

var _ Provider = (*IGDBProvider)(nil)

// NewIGDBProvider creates an IGDB adapter. An empty baseURL selects the public API.
func NewIGDBProvider(baseURL string, httpClient *http.Client, log *zap.SugaredLogger) *IGDBProvider {
	if baseURL == "" {
		baseURL = igdbAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &IGDBProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log.Named("igdb"),
	}
}

func (p *IGDBProvider) Name() Source {
	return SourceIGDB
}

// Search returns up to SearchPageSize games matching query. Without an
// access token no request is made.
func (p *IGDBProvider) Search(ctx context.Context, query, clientID string, auth AuthExtra) []GameSearchResult {
	results := []GameSearchResult{}
	if auth.AccessToken == "" {
		p.log.Errorw("search requires an access token", "query", query)
		metrics.RecordProviderCall(string(SourceIGDB), "search", "skipped", time.Now())
		return results
	}
	if query == "" {
		return results
	}

	body := fmt.Sprintf(`search "%s"; fields %s; limit %d;`, escapeApicalypse(query), igdbSearchFields, SearchPageSize)

	start := time.Now()
	var games []igdbGame
	if err := p.query(ctx, clientID, auth.AccessToken, body, &games); err != nil {
		p.log.Errorw("search failed", "query", query, zap.Error(err))
		metrics.RecordProviderCall(string(SourceIGDB), "search", "error", start)
		return results
	}
	metrics.RecordProviderCall(string(SourceIGDB), "search", "ok", start)

	for _, game := range games {
		if len(results) == SearchPageSize {
			break
		}
		result := GameSearchResult{
			ID:     GameID(strconv.FormatInt(game.ID, 10)),
			Title:  game.Name,
			Genres: names(game.Genres, igdbNamed.name),
		}
		if game.FirstReleaseDate != 0 {
			result.Year = intPtr(time.Unix(game.FirstReleaseDate, 0).UTC().Year())
		}
		if game.Cover != nil {
			result.ImageURL = strings.Replace(game.Cover.URL, "t_thumb", "t_cover_big", 1)
		}
		results = append(results, result)
	}
	return results
}

// GetDetails fetches developer/publisher credits and the collection name.
func (p *IGDBProvider) GetDetails(ctx context.Context, gameID, clientID string, auth AuthExtra) *GameDetailsResult {
	if auth.AccessToken == "" {
		p.log.Errorw("details require an access token", "game_id", gameID)
		metrics.RecordProviderCall(string(SourceIGDB), "details", "skipped", time.Now())
		return nil
	}

	// The id is interpolated into the query body, so only plain integers are accepted.
	id, err := strconv.ParseUint(strings.TrimSpace(gameID), 10, 64)
	if err != nil {
		p.log.Warnw("invalid game id", "game_id", gameID)
		return nil
	}

	body := fmt.Sprintf("fields %s; where id = %d;", igdbDetailsFields, id)

	start := time.Now()
	var games []igdbGame
	if err := p.query(ctx, clientID, auth.AccessToken, body, &games); err != nil {
		p.log.Errorw("details fetch failed", "game_id", gameID, zap.Error(err))
		metrics.RecordProviderCall(string(SourceIGDB), "details", "error", start)
		return nil
	}
	metrics.RecordProviderCall(string(SourceIGDB), "details", "ok", start)

	if len(games) == 0 {
		p.log.Infow("no details found", "game_id", gameID)
		return nil
	}

	game := games[0]
	details := &GameDetailsResult{
		Developer: []string{},
		Publisher: []string{},
	}
	for _, involved := range game.InvolvedCompanies {
		if involved.Company == nil || involved.Company.Name == "" {
			continue
		}
		if involved.Developer {
			details.Developer = append(details.Developer, involved.Company.Name)
		}
		if involved.Publisher {
			details.Publisher = append(details.Publisher, involved.Company.Name)
		}
	}
	if game.Collection != nil {
		details.Series = game.Collection.Name
	}
	return details
}

func (p *IGDBProvider) query(ctx context.Context, clientID, accessToken, body string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/games", strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Client-ID", clientID)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// escapeApicalypse makes a user query safe inside a double-quoted Apicalypse string.
func escapeApicalypse(query string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(query)
}

type igdbGame struct {
	ID                int64                 `json:"id"`
	Name              string                `json:"name"`
	FirstReleaseDate  int64                 `json:"first_release_date"`
	Cover             *igdbImage            `json:"cover"`
	Genres            []igdbNamed           `json:"genres"`
	InvolvedCompanies []igdbInvolvedCompany `json:"involved_companies"`
	Collection        *igdbNamed            `json:"collection"`
}

type igdbImage struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type igdbNamed struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (n igdbNamed) name() string {
	return n.Name
}

type igdbInvolvedCompany struct {
	ID        int64      `json:"id"`
	Company   *igdbNamed `json:"company"`
	Developer bool       `json:"developer"`
	Publisher bool       `json:"publisher"`
}
