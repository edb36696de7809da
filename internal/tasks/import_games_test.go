package tasks

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/importers"
	"github.com/mrlokans/pixeljournal/internal/metadata"
)

type mockImporter struct {
	userID string
	csv    string
	err    error
	done   chan struct{}
}

func (m *mockImporter) Import(ctx context.Context, userID string, csv io.Reader) (importers.Summary, error) {
	data, _ := io.ReadAll(csv)
	m.userID, m.csv = userID, string(data)
	if m.done != nil {
		close(m.done)
	}
	return importers.Summary{Total: 1, Added: 1}, m.err
}

func TestImportGamesTaskConfig(t *testing.T) {
	cfg := ImportGamesTask{UserID: "u1"}.Config()

	assert.Equal(t, "import_games", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
	require.NotNil(t, cfg.Retention)
	assert.True(t, cfg.Retention.Data.OnlyFailed)
}

func TestImportGamesProcessor(t *testing.T) {
	importer := &mockImporter{}
	process := ImportGamesProcessor(importer, zap.NewNop().Sugar())

	err := process(context.Background(), ImportGamesTask{UserID: "u1", FileName: "games.csv", CSV: "Url,Game\n"})

	require.NoError(t, err)
	assert.Equal(t, "u1", importer.userID)
	assert.Equal(t, "Url,Game\n", importer.csv)
}

func TestImportGamesProcessor_Error(t *testing.T) {
	importer := &mockImporter{err: importers.ErrParse}
	process := ImportGamesProcessor(importer, zap.NewNop().Sugar())

	err := process(context.Background(), ImportGamesTask{UserID: "u1", FileName: "games.csv"})

	require.ErrorIs(t, err, importers.ErrParse)
	assert.Contains(t, err.Error(), "games.csv")

	assert.Error(t, ImportGamesProcessor(nil, zap.NewNop().Sugar())(context.Background(), ImportGamesTask{}))
}

func TestImportGamesQueue_RunsThroughClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer client.Close()

	importer := &mockImporter{done: make(chan struct{})}
	client.Register(NewImportGamesQueue(importer, zap.NewNop().Sugar()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(ImportGamesTask{UserID: "u9", CSV: "Url\n"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	select {
	case <-importer.done:
		assert.Equal(t, "u9", importer.userID)
	case <-time.After(5 * time.Second):
		t.Fatal("import task was not executed within timeout")
	}
}

type mockEnricher struct {
	result *metadata.EnrichmentResult
	err    error
}

func (m *mockEnricher) EnrichGame(ctx context.Context, userID, gameID string) (*metadata.EnrichmentResult, error) {
	return m.result, m.err
}

func TestEnrichGameTaskConfig(t *testing.T) {
	cfg := EnrichGameTask{UserID: "u1", GameID: "g1"}.Config()

	assert.Equal(t, "enrich_game", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestEnrichGameProcessor(t *testing.T) {
	game := &entities.Game{Title: "Portal 2"}

	process := EnrichGameProcessor(&mockEnricher{result: &metadata.EnrichmentResult{
		Game:          game,
		FieldsUpdated: []string{"developer"},
		Source:        "rawg",
	}}, zap.NewNop().Sugar())
	assert.NoError(t, process(context.Background(), EnrichGameTask{UserID: "u1", GameID: "g1"}))

	process = EnrichGameProcessor(&mockEnricher{err: metadata.ErrNoDetails}, zap.NewNop().Sugar())
	err := process(context.Background(), EnrichGameTask{UserID: "u1", GameID: "g1"})
	assert.True(t, errors.Is(err, metadata.ErrNoDetails))
}
