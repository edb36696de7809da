package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/metrics"
)

const rawgAPIURL = "https://api.rawg.io/api"

// rawgPlatformPC narrows searches to PC releases.
const rawgPlatformPC = "4"

// RawgProvider searches RAWG with a plain API key passed as a query parameter.
type RawgProvider struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.SugaredLogger
}

var _ Provider = (*RawgProvider)(nil)

// NewRawgProvider creates a RAWG adapter. An empty baseURL selects the public API.
func NewRawgProvider(baseURL string, httpClient *http.Client, log *zap.SugaredLogger) *RawgProvider {
	if baseURL == "" {
		baseURL = rawgAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RawgProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log.Named("rawg"),
	}
}

func (p *RawgProvider) Name() Source {
	return SourceRAWG
}

// Search returns up to SearchPageSize games matching query, in RAWG's order.
func (p *RawgProvider) Search(ctx context.Context, query, apiKey string, _ AuthExtra) []GameSearchResult {
	results := []GameSearchResult{}
	if query == "" || apiKey == "" {
		return results
	}

	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("search", query)
	params.Set("page_size", strconv.Itoa(SearchPageSize))
	params.Set("search_precise", "true")
	params.Set("platforms", rawgPlatformPC)

	start := time.Now()
	var payload rawgSearchResponse
	if err := p.get(ctx, "/games?"+params.Encode(), &payload); err != nil {
		p.log.Errorw("search failed", "query", query, zap.Error(err))
		metrics.RecordProviderCall(string(SourceRAWG), "search", "error", start)
		return results
	}
	metrics.RecordProviderCall(string(SourceRAWG), "search", "ok", start)

	for _, game := range payload.Results {
		if len(results) == SearchPageSize {
			break
		}
		results = append(results, GameSearchResult{
			ID:       GameID(strconv.FormatInt(game.ID, 10)),
			Title:    game.Name,
			Year:     releaseYear(game.Released),
			ImageURL: game.BackgroundImage,
			Genres:   names(game.Genres, rawgNamed.name),
		})
	}
	return results
}

// GetDetails fetches developer and publisher credits. RAWG exposes no
// series name, so Series is always empty.
func (p *RawgProvider) GetDetails(ctx context.Context, gameID, apiKey string, _ AuthExtra) *GameDetailsResult {
	if gameID == "" || apiKey == "" {
		return nil
	}

	params := url.Values{}
	params.Set("key", apiKey)

	start := time.Now()
	var payload rawgGameDetails
	endpoint := "/games/" + url.PathEscape(gameID) + "?" + params.Encode()
	if err := p.get(ctx, endpoint, &payload); err != nil {
		p.log.Errorw("details fetch failed", "game_id", gameID, zap.Error(err))
		metrics.RecordProviderCall(string(SourceRAWG), "details", "error", start)
		return nil
	}
	metrics.RecordProviderCall(string(SourceRAWG), "details", "ok", start)

	return &GameDetailsResult{
		Developer: names(payload.Developers, rawgNamed.name),
		Publisher: names(payload.Publishers, rawgNamed.name),
		Series:    "",
	}
}

func (p *RawgProvider) get(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PixelJournal/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// releaseYear extracts the year from RAWG's YYYY-MM-DD release date.
func releaseYear(released string) *int {
	if released == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", released); err == nil {
		return intPtr(t.Year())
	}
	if len(released) >= 4 {
		if year, err := strconv.Atoi(released[:4]); err == nil {
			return intPtr(year)
		}
	}
	return nil
}

type rawgSearchResponse struct {
	Count   int        `json:"count"`
	Results []rawgGame `json:"results"`
}

type rawgGame struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Released        string      `json:"released"`
	BackgroundImage string      `json:"background_image"`
	Genres          []rawgNamed `json:"genres"`
}

type rawgGameDetails struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Developers []rawgNamed `json:"developers"`
	Publishers []rawgNamed `json:"publishers"`
}

type rawgNamed struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (n rawgNamed) name() string {
	return n.Name
}
