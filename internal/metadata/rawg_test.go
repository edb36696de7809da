package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRawgProvider(serverURL string) *RawgProvider {
	return NewRawgProvider(serverURL, nil, zap.NewNop().Sugar())
}

func TestRawgSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "Portal 2", r.URL.Query().Get("search"))
		assert.Equal(t, "20", r.URL.Query().Get("page_size"))
		assert.Equal(t, "true", r.URL.Query().Get("search_precise"))
		assert.Equal(t, "4", r.URL.Query().Get("platforms"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 2,
			"results": [
				{"id": 4200, "name": "Portal 2", "released": "2011-04-18",
				 "background_image": "https://media.rawg.io/portal2.jpg",
				 "genres": [{"id": 2, "name": "Shooter"}, {"id": 7, "name": "Puzzle"}]},
				{"id": 9999, "name": "Portal 2: Unreleased Mod", "released": null,
				 "background_image": null, "genres": null}
			]
		}`))
	}))
	defer server.Close()

	results := newTestRawgProvider(server.URL).Search(context.Background(), "Portal 2", "secret", AuthExtra{})

	require.Len(t, results, 2)
	assert.Equal(t, GameID("4200"), results[0].ID)
	assert.Equal(t, "Portal 2", results[0].Title)
	require.NotNil(t, results[0].Year)
	assert.Equal(t, 2011, *results[0].Year)
	assert.Equal(t, "https://media.rawg.io/portal2.jpg", results[0].ImageURL)
	assert.Equal(t, []string{"Shooter", "Puzzle"}, results[0].Genres)

	assert.Nil(t, results[1].Year)
	assert.Equal(t, "", results[1].ImageURL)
	assert.NotNil(t, results[1].Genres)
	assert.Empty(t, results[1].Genres)
}

func TestRawgSearch_CapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		games := make([]string, 0, 25)
		for i := 1; i <= 25; i++ {
			games = append(games, fmt.Sprintf(`{"id": %d, "name": "Game %d"}`, i, i))
		}
		_, _ = fmt.Fprintf(w, `{"results": [%s]}`, strings.Join(games, ","))
	}))
	defer server.Close()

	results := newTestRawgProvider(server.URL).Search(context.Background(), "Game", "secret", AuthExtra{})
	require.Len(t, results, SearchPageSize)
	assert.Equal(t, GameID("1"), results[0].ID)
	assert.Equal(t, GameID("20"), results[19].ID)
}

func TestRawgSearch_NoRequestWithoutInput(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	provider := newTestRawgProvider(server.URL)

	t.Run("empty query", func(t *testing.T) {
		results := provider.Search(context.Background(), "", "secret", AuthExtra{})
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("empty key", func(t *testing.T) {
		results := provider.Search(context.Background(), "Portal", "", AuthExtra{})
		assert.Empty(t, results)
		assert.Nil(t, provider.GetDetails(context.Background(), "4200", "", AuthExtra{}))
	})

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestRawgSearch_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "The key parameter is not provided"}`))
	}))
	defer server.Close()

	provider := newTestRawgProvider(server.URL)

	results := provider.Search(context.Background(), "Portal", "bad", AuthExtra{})
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Nil(t, provider.GetDetails(context.Background(), "4200", "bad", AuthExtra{}))
}

func TestRawgSearch_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer server.Close()

	results := newTestRawgProvider(server.URL).Search(context.Background(), "Portal", "secret", AuthExtra{})
	assert.Empty(t, results)
}

func TestRawgGetDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/4200", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 4200,
			"name": "Portal 2",
			"developers": [{"id": 1, "name": "Valve Software"}],
			"publishers": [{"id": 2, "name": "Valve"}, {"id": 3, "name": "Electronic Arts"}]
		}`))
	}))
	defer server.Close()

	details := newTestRawgProvider(server.URL).GetDetails(context.Background(), "4200", "secret", AuthExtra{})

	require.NotNil(t, details)
	assert.Equal(t, []string{"Valve Software"}, details.Developer)
	assert.Equal(t, []string{"Valve", "Electronic Arts"}, details.Publisher)
	assert.Equal(t, "", details.Series)
}

func TestRawgGetDetails_MissingCredits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1, "name": "Indie"}`))
	}))
	defer server.Close()

	details := newTestRawgProvider(server.URL).GetDetails(context.Background(), "1", "secret", AuthExtra{})

	require.NotNil(t, details)
	assert.NotNil(t, details.Developer)
	assert.Empty(t, details.Developer)
	assert.NotNil(t, details.Publisher)
	assert.Empty(t, details.Publisher)
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		input    string
		expected *int
	}{
		{"2011-04-18", intPtr(2011)},
		{"1998-11-19", intPtr(1998)},
		{"2024", intPtr(2024)},
		{"", nil},
		{"TBA", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, releaseYear(tt.input))
		})
	}
}
