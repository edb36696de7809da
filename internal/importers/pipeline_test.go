package importers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metadata"
)

type mockAPI struct {
	source    metadata.Source
	sourceErr error
	results   map[string][]metadata.GameSearchResult
	details   map[string]*metadata.GameDetailsResult
	searchErr error

	mu            sync.Mutex
	searchCalls   []string
	detailsCalls  []string
	detailsErrFor map[string]error
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		source:  metadata.SourceRAWG,
		results: map[string][]metadata.GameSearchResult{},
		details: map[string]*metadata.GameDetailsResult{},
	}
}

func (m *mockAPI) Source(ctx context.Context) (metadata.Source, error) {
	return m.source, m.sourceErr
}

func (m *mockAPI) SearchGames(ctx context.Context, query string) ([]metadata.GameSearchResult, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, query)
	m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if results, ok := m.results[query]; ok {
		return results, nil
	}
	return []metadata.GameSearchResult{}, nil
}

func (m *mockAPI) GetGameDetails(ctx context.Context, gameID string) (*metadata.GameDetailsResult, error) {
	m.mu.Lock()
	m.detailsCalls = append(m.detailsCalls, gameID)
	m.mu.Unlock()
	if err := m.detailsErrFor[gameID]; err != nil {
		return nil, err
	}
	if d, ok := m.details[gameID]; ok {
		return d, nil
	}
	return &metadata.GameDetailsResult{Developer: []string{}, Publisher: []string{}}, nil
}

type mockWriter struct {
	merges    [][2][]string
	commits   [][]entities.Game
	mergeErr  error
	commitErr error
	calls     []string
}

func (m *mockWriter) MergeVocabulary(ctx context.Context, userID string, categories, tags []string) error {
	m.calls = append(m.calls, "merge")
	m.merges = append(m.merges, [2][]string{categories, tags})
	return m.mergeErr
}

func (m *mockWriter) CommitGames(ctx context.Context, batch []entities.Game) error {
	m.calls = append(m.calls, "commit")
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits = append(m.commits, append([]entities.Game(nil), batch...))
	return nil
}

func (m *mockWriter) committed() []entities.Game {
	var all []entities.Game
	for _, c := range m.commits {
		all = append(all, c...)
	}
	return all
}

func (m *mockWriter) snapshot() []entities.CachedGameInfo {
	var cached []entities.CachedGameInfo
	for _, g := range m.committed() {
		cached = append(cached, entities.CachedGameInfo{
			Source:         g.Source,
			ProviderGameID: g.ProviderGameID,
			Title:          g.Title,
			Status:         g.Status,
		})
	}
	return cached
}

func newTestPipeline(api GameAPI, writer GameWriter) *Pipeline {
	p := NewPipeline(api, writer, zap.NewNop().Sugar())
	p.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func year(y int) *int {
	return &y
}

func csvOf(rows ...string) *strings.Reader {
	return strings.NewReader("Url,Game,Rating,Status,Created,Review\n" + strings.Join(rows, "\n") + "\n")
}

func defaultVocabulary() Vocabulary {
	return Vocabulary{Categories: entities.DefaultCategories, Tags: []string{}}
}

func TestPipeline_Portal2(t *testing.T) {
	api := newMockAPI()
	api.results["portal-2"] = []metadata.GameSearchResult{
		{ID: "123", Title: "Portal 2", Year: year(2011), ImageURL: "https://img.test/p2.jpg", Genres: []string{"Puzzle"}},
	}
	api.details["123"] = &metadata.GameDetailsResult{Developer: []string{"Valve"}}
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID:     "u1",
		CSV:        csvOf("https://x.test/games/portal-2,Portal 2,Exceptional,Completed,,Loved it"),
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 1, Added: 1}, summary)
	assert.Equal(t, []string{"portal-2"}, api.searchCalls)
	assert.Equal(t, []string{"123"}, api.detailsCalls)

	require.Len(t, writer.commits, 1)
	require.Len(t, writer.commits[0], 1)
	game := writer.commits[0][0]
	assert.Equal(t, "u1", game.UserID)
	assert.Equal(t, "rawg", game.Source)
	assert.Equal(t, "123", game.ProviderGameID)
	assert.Equal(t, "Portal 2", game.Title)
	require.NotNil(t, game.Year)
	assert.Equal(t, 2011, *game.Year)
	assert.Equal(t, "Completed", game.Status)
	assert.Equal(t, 5, game.UserRating)
	assert.True(t, game.IsFavorite)
	assert.Equal(t, []string{"Exceptional"}, game.Tags)
	assert.Equal(t, []string{"Valve"}, game.Developer)
	assert.Equal(t, []string{}, game.Publisher)
	assert.Equal(t, []string{"Puzzle"}, game.Genres)
	assert.Equal(t, "Loved it", game.UserNote)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), game.DateAdded)

	// Completed is a default category, Exceptional is a new tag.
	require.Len(t, writer.merges, 1)
	assert.Empty(t, writer.merges[0][0])
	assert.Equal(t, []string{"Exceptional"}, writer.merges[0][1])
	assert.Equal(t, []string{"merge", "commit"}, writer.calls)
}

func TestPipeline_Dedup(t *testing.T) {
	api := newMockAPI()
	api.results["portal-2"] = []metadata.GameSearchResult{{ID: "123", Title: "Portal 2"}}
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID: "u1",
		CSV:    csvOf("https://x.test/games/portal-2,PORTAL TWO,Meh,Playing,2020-01-01,"),
		Snapshot: []entities.CachedGameInfo{
			{ID: "doc-1", Source: "rawg", ProviderGameID: "123", Title: "portal 2", Status: "Backlog"},
		},
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 1, Skipped: 1, Duplicates: 1}, summary)
	assert.Empty(t, api.detailsCalls)
	assert.Empty(t, writer.calls, "a skipped row must not extend the vocabulary")
}

func TestPipeline_DedupIsPerSource(t *testing.T) {
	api := newMockAPI()
	api.source = metadata.SourceIGDB
	api.results["portal-2"] = []metadata.GameSearchResult{{ID: "123", Title: "Portal 2"}}
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID:     "u1",
		CSV:        csvOf("https://x.test/games/portal-2,Portal 2,,,,"),
		Snapshot:   []entities.CachedGameInfo{{Source: "rawg", ProviderGameID: "123"}},
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)
	require.Len(t, writer.committed(), 1)
	assert.Equal(t, "igdb", writer.committed()[0].Source)
	assert.Equal(t, entities.DefaultGameStatus, writer.committed()[0].Status)
	assert.Equal(t, []string{}, writer.committed()[0].Tags)
}

func TestPipeline_RepeatedRowsAreNotDuplicatesOfEachOther(t *testing.T) {
	api := newMockAPI()
	api.results["hades"] = []metadata.GameSearchResult{{ID: "7", Title: "Hades"}}
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID: "u1",
		CSV: csvOf(
			"https://x.test/games/hades,Hades,,,,",
			"https://x.test/games/hades/,Hades again,,,,",
		),
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 2, Added: 2}, summary)
	require.Len(t, writer.committed(), 2)
	assert.Equal(t, "7", writer.committed()[0].ProviderGameID)
	assert.Equal(t, "7", writer.committed()[1].ProviderGameID)
}

func TestPipeline_Idempotent(t *testing.T) {
	api := newMockAPI()
	var rows []string
	for i := 1; i <= 5; i++ {
		slug := fmt.Sprintf("game-%d", i)
		api.results[slug] = []metadata.GameSearchResult{{ID: metadata.GameID(fmt.Sprint(i)), Title: slug}}
		rows = append(rows, fmt.Sprintf("https://x.test/games/%s,%s,Recommended,Completed,,", slug, slug))
	}
	rows = append(rows, "https://x.test/games/unknown,Unknown,,,,", "bad-url,Bad,,,,")
	content := strings.Join(rows, "\n")
	writer := &mockWriter{}
	pipeline := newTestPipeline(api, writer)

	first, err := pipeline.Import(context.Background(), Input{
		UserID:     "u1",
		CSV:        csvOf(content),
		Vocabulary: defaultVocabulary(),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, first.Added)
	assert.Equal(t, 2, first.Skipped)

	commitsAfterFirst := len(writer.commits)
	second, err := pipeline.Import(context.Background(), Input{
		UserID:     "u1",
		CSV:        csvOf(content),
		Snapshot:   writer.snapshot(),
		Vocabulary: Vocabulary{Categories: entities.DefaultCategories, Tags: []string{"Recommended"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, second.Total, second.Skipped)
	assert.Equal(t, 5, second.Duplicates)
	assert.Equal(t, commitsAfterFirst, len(writer.commits))
}

func TestPipeline_ChunksCommits(t *testing.T) {
	api := newMockAPI()
	rows := make([]string, 0, 1200)
	for i := 1; i <= 1200; i++ {
		slug := fmt.Sprintf("game-%d", i)
		api.results[slug] = []metadata.GameSearchResult{{ID: metadata.GameID(fmt.Sprint(i)), Title: slug}}
		rows = append(rows, fmt.Sprintf("https://x.test/games/%s,%s,,,,", slug, slug))
	}
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID:     "u1",
		CSV:        csvOf(rows...),
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1200, summary.Added)
	require.Len(t, writer.commits, 3)
	sizes := []int{len(writer.commits[0]), len(writer.commits[1]), len(writer.commits[2])}
	assert.Equal(t, []int{500, 500, 200}, sizes)
}

func TestPipeline_AllMalformedURLs(t *testing.T) {
	api := newMockAPI()
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID: "u1",
		CSV: csvOf(
			"not a url,A,Exceptional,Wishlist,,",
			"https://x.test/people/someone,B,,,,",
			",C,,,,",
		),
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 3, Skipped: 3, InvalidURL: 3}, summary)
	assert.Empty(t, api.searchCalls)
	assert.Empty(t, writer.calls)
}

func TestPipeline_Unresolved(t *testing.T) {
	api := newMockAPI()
	api.results["no-id"] = []metadata.GameSearchResult{{Title: "No Id"}}
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID: "u1",
		CSV: csvOf(
			"https://x.test/games/nothing,Nothing,,,,",
			"https://x.test/games/no-id,No Id,,,,",
		),
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 2, Skipped: 2, Unresolved: 2}, summary)
	assert.Empty(t, api.detailsCalls)
}

func TestPipeline_SearchErrorSkipsRow(t *testing.T) {
	api := newMockAPI()
	api.searchErr = errors.New("API request failed: upstream down")
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID:     "u1",
		CSV:        csvOf("https://x.test/games/portal-2,Portal 2,,,,"),
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unresolved)
}

func TestPipeline_DetailsAreBestEffort(t *testing.T) {
	api := newMockAPI()
	api.results["celeste"] = []metadata.GameSearchResult{{ID: "9", Title: "Celeste"}}
	api.detailsErrFor = map[string]error{"9": errors.New("API request failed: Game not found")}
	writer := &mockWriter{}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID:     "u1",
		CSV:        csvOf("https://x.test/games/celeste,Celeste,Skip,Abandoned,,"),
		Vocabulary: defaultVocabulary(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)
	game := writer.committed()[0]
	assert.Equal(t, []string{}, game.Developer)
	assert.Equal(t, []string{}, game.Publisher)
	assert.Equal(t, "", game.Series)
	assert.Equal(t, 1, game.UserRating)
	assert.False(t, game.IsFavorite)
}

func TestPipeline_VocabularyOverflow(t *testing.T) {
	api := newMockAPI()
	for _, slug := range []string{"a", "b", "c"} {
		api.results[slug] = []metadata.GameSearchResult{{ID: metadata.GameID(slug + "1"), Title: slug}}
	}
	writer := &mockWriter{}

	_, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID: "u1",
		CSV: csvOf(
			"https://x.test/games/a,A,Meh,Wishlist,,",
			"https://x.test/games/b,B,Meh,Wishlist,,",
			"https://x.test/games/c,C,Recommended,Completed,,",
		),
		Vocabulary: Vocabulary{Categories: entities.DefaultCategories, Tags: []string{"Recommended"}},
	})

	require.NoError(t, err)
	require.Len(t, writer.merges, 1)
	assert.Equal(t, []string{"Wishlist"}, writer.merges[0][0])
	assert.Equal(t, []string{"Meh"}, writer.merges[0][1])
}

func TestPipeline_ParseError(t *testing.T) {
	api := newMockAPI()
	writer := &mockWriter{}

	events := collect(newTestPipeline(api, writer).Stream(context.Background(), Input{
		UserID: "u1",
		CSV:    strings.NewReader("Url,Game\nhttps://x.test/games/a,Bad \"quote\n"),
	}))

	require.Len(t, events, 1)
	assert.Equal(t, EventParseError, events[0].Kind)
	assert.ErrorIs(t, events[0].Err, ErrParse)
	assert.Contains(t, events[0].Message, "error parsing CSV")
	assert.Empty(t, api.searchCalls)
	assert.Empty(t, writer.calls)
}

func TestPipeline_MissingCredentialFailsBeforeProgress(t *testing.T) {
	api := newMockAPI()
	api.sourceErr = fmt.Errorf("%w: API key for the selected data source 'rawg' is not set", metadata.ErrMissingCredential)
	writer := &mockWriter{}

	events := collect(newTestPipeline(api, writer).Stream(context.Background(), Input{
		UserID: "u1",
		CSV:    csvOf("https://x.test/games/a,A,,,,"),
	}))

	require.Len(t, events, 1)
	assert.Equal(t, EventFailed, events[0].Kind)
	assert.ErrorIs(t, events[0].Err, metadata.ErrMissingCredential)
	assert.Empty(t, api.searchCalls)
}

func TestPipeline_CommitFailure(t *testing.T) {
	api := newMockAPI()
	api.results["a"] = []metadata.GameSearchResult{{ID: "1", Title: "A"}}
	writer := &mockWriter{commitErr: errors.New("disk full")}

	summary, err := newTestPipeline(api, writer).Import(context.Background(), Input{
		UserID:     "u1",
		CSV:        csvOf("https://x.test/games/a,A,Meh,,,"),
		Vocabulary: defaultVocabulary(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, []string{"merge", "commit"}, writer.calls, "vocabulary merge is not rolled back")
}

func TestPipeline_StreamEvents(t *testing.T) {
	api := newMockAPI()
	api.results["a"] = []metadata.GameSearchResult{{ID: "1", Title: "Alpha"}}
	writer := &mockWriter{}

	events := collect(newTestPipeline(api, writer).Stream(context.Background(), Input{
		UserID: "u1",
		CSV: csvOf(
			"https://x.test/games/a,A,,,,",
			"bad,,,,,",
		),
		Vocabulary: defaultVocabulary(),
	}))

	var messages []string
	var progress [][2]int
	for _, e := range events {
		switch e.Kind {
		case EventMessage:
			messages = append(messages, e.Message)
		case EventProgress:
			progress = append(progress, [2]int{e.Current, e.Total})
		}
	}

	assert.Equal(t, []string{
		"[1/2] Processing: A",
		"[1/2] Getting details for: Alpha",
		"[2/2] Processing: Unknown Game",
		"Saving 1 games to your library...",
	}, messages)
	assert.Equal(t, [][2]int{{0, 2}, {1, 2}, {2, 2}}, progress)

	last := events[len(events)-1]
	assert.Equal(t, EventComplete, last.Kind)
	assert.True(t, last.Terminal())
	assert.Equal(t, Summary{Total: 2, Added: 1, Skipped: 1, InvalidURL: 1}, *last.Summary)
}

func TestPipeline_StreamStopsOnCancel(t *testing.T) {
	api := newMockAPI()
	api.results["a"] = []metadata.GameSearchResult{{ID: "1", Title: "A"}}
	writer := &mockWriter{}

	ctx, cancel := context.WithCancel(context.Background())
	events := newTestPipeline(api, writer).Stream(ctx, Input{
		UserID:     "u1",
		CSV:        csvOf("https://x.test/games/a,A,,,,"),
		Vocabulary: defaultVocabulary(),
	})

	first := <-events
	assert.Equal(t, EventProgress, first.Kind)
	cancel()

	for e := range events {
		assert.NotEqual(t, EventComplete, e.Kind)
	}
	assert.Empty(t, writer.calls)
}

func collect(events <-chan Event) []Event {
	var all []Event
	for e := range events {
		all = append(all, e)
	}
	return all
}
