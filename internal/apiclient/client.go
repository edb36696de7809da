// Package apiclient calls the gateway routes on behalf of one user. It
// waits for the user's settings to be ready, picks the credential of the
// active data source and attaches it to every request.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metadata"
)

const (
	searchEndpoint  = "/api/search-game"
	detailsEndpoint = "/api/game-details"

	// AccessTokenHeader carries the IGDB OAuth token next to the bearer credential.
	AccessTokenHeader = "X-IGDB-Access-Token"

	unknownErrorMessage = "An unknown error occurred."
)

// ErrMissingCredential is returned before any request is made when the
// active data source has no credential configured.
var ErrMissingCredential = metadata.ErrMissingCredential

// SettingsProvider yields the user's settings once they are loaded.
type SettingsProvider interface {
	Ready(ctx context.Context) (entities.UserSettings, error)
}

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return "API request failed: " + e.Message
}

// Client is the facade over the gateway routes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	settings   SettingsProvider
}

// NewClient creates a facade calling the gateway at baseURL.
func NewClient(baseURL string, settings SettingsProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		settings:   settings,
	}
}

// SearchGames searches the active data source.
func (c *Client) SearchGames(ctx context.Context, query string) ([]metadata.GameSearchResult, error) {
	var results []metadata.GameSearchResult
	if err := c.makeRequest(ctx, searchEndpoint, url.Values{"q": {query}}, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []metadata.GameSearchResult{}
	}
	return results, nil
}

// GetGameDetails fetches credits for a game of the active data source.
func (c *Client) GetGameDetails(ctx context.Context, gameID string) (*metadata.GameDetailsResult, error) {
	var details metadata.GameDetailsResult
	if err := c.makeRequest(ctx, detailsEndpoint, url.Values{"id": {gameID}}, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Source returns the active data source once settings are ready. It fails
// with ErrMissingCredential when that source has no credential.
func (c *Client) Source(ctx context.Context) (metadata.Source, error) {
	settings, err := c.settings.Ready(ctx)
	if err != nil {
		return "", err
	}
	source, _, _, err := credentialsFor(settings)
	return source, err
}

func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values, target any) error {
	settings, err := c.settings.Ready(ctx)
	if err != nil {
		return err
	}

	source, apiKey, accessToken, err := credentialsFor(settings)
	if err != nil {
		return err
	}

	params.Set("source", string(source))
	reqURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set(AccessTokenHeader, accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// credentialsFor picks the key of the active data source. The access token
// is only sent for IGDB.
func credentialsFor(settings entities.UserSettings) (metadata.Source, string, string, error) {
	source, err := metadata.ParseSource(settings.ActiveDataSource())
	if err != nil {
		return "", "", "", err
	}

	var apiKey, accessToken string
	switch source {
	case metadata.SourceRAWG:
		apiKey = settings.RawgAPIKey
	case metadata.SourceIGDB:
		apiKey = settings.IGDBClientID
		accessToken = settings.IGDBAccessToken
	}

	if apiKey == "" {
		return source, "", "", fmt.Errorf("%w: API key for the selected data source '%s' is not set", ErrMissingCredential, source)
	}
	return source, apiKey, accessToken, nil
}

// errorMessage extracts the message of a JSON error body, preferring
// "message" over "error".
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return unknownErrorMessage
	}

	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return unknownErrorMessage
	}

	if payload.Message != "" {
		return payload.Message
	}
	if msg, ok := payload.Error.(string); ok && msg != "" {
		return msg
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return unknownErrorMessage
}

// IsMissingCredential reports whether err is a configuration error that
// will not go away by retrying.
func IsMissingCredential(err error) bool {
	return errors.Is(err, ErrMissingCredential)
}
