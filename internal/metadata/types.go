package metadata

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Source names a game-data provider.
type Source string

const (
	SourceRAWG Source = "rawg"
	SourceIGDB Source = "igdb"
)

// SearchPageSize caps the number of results a provider returns for one search.
const SearchPageSize = 20

var (
	ErrInvalidSource     = errors.New("invalid data source")
	ErrMissingCredential = errors.New("missing API credential")
)

// Sources lists every provider the service can dispatch to.
func Sources() []Source {
	return []Source{SourceRAWG, SourceIGDB}
}

// ParseSource validates a caller-supplied provider name.
func ParseSource(raw string) (Source, error) {
	source := Source(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(Sources(), source) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, raw)
	}
	return source, nil
}

// GameID is a provider-scoped identifier. Providers use numbers, so IDs
// travel as JSON numbers, but string-encoded IDs are accepted as well.
type GameID string

func (id GameID) String() string {
	return string(id)
}

func (id GameID) IsZero() bool {
	return id == ""
}

func (id GameID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isJSONInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *GameID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null" || raw == "":
		*id = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode game id: %w", err)
		}
		*id = GameID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode game id: %w", err)
		}
		*id = GameID(n.String())
		return nil
	}
}

// GameSearchResult is one normalized hit from a provider search.
type GameSearchResult struct {
	ID       GameID   `json:"id"`
	Title    string   `json:"title"`
	Year     *int     `json:"year"`
	ImageURL string   `json:"image_url"`
	Genres   []string `json:"genres"`
}

// GameDetailsResult holds the credits of a single game.
type GameDetailsResult struct {
	Developer []string `json:"developer"`
	Publisher []string `json:"publisher"`
	Series    string   `json:"series"`
}

// AuthExtra carries credentials beyond the primary key; IGDB needs an
// OAuth access token next to its client id.
type AuthExtra struct {
	AccessToken string
}

// Provider is a game-data backend. Implementations never return errors:
// upstream failures are logged and degrade to an empty slice or nil.
type Provider interface {
	Name() Source
	Search(ctx context.Context, query, credential string, auth AuthExtra) []GameSearchResult
	GetDetails(ctx context.Context, gameID, credential string, auth AuthExtra) *GameDetailsResult
}

func isJSONInteger(s string) bool {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return false
	}
	return s == "0" || s[0] != '0'
}

func intPtr(v int) *int {
	return &v
}

// names collects non-empty names preserving order; the result is never nil.
func names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if n := name(item); n != "" {
			out = append(out, n)
		}
	}
	return out
}
