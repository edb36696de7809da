package services

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/apiclient"
	"github.com/mrlokans/pixeljournal/internal/importers"
)

// ImportService assembles CSV imports for users: it waits for their
// settings, snapshots their library and points the pipeline at the gateway.
type ImportService struct {
	settings   SettingsSource
	library    LibraryReader
	writer     importers.GameWriter
	recorder   importers.ProgressRecorder
	gatewayURL string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// ImportServiceConfig lists the collaborators of an ImportService.
type ImportServiceConfig struct {
	Settings   SettingsSource
	Library    LibraryReader
	Writer     importers.GameWriter
	Recorder   importers.ProgressRecorder
	GatewayURL string
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger
}

// NewImportService creates a new ImportService.
func NewImportService(cfg ImportServiceConfig) *ImportService {
	return &ImportService{
		settings:   cfg.Settings,
		library:    cfg.Library,
		writer:     cfg.Writer,
		recorder:   cfg.Recorder,
		gatewayURL: cfg.GatewayURL,
		httpClient: cfg.HTTPClient,
		log:        cfg.Logger,
	}
}

// Prepare builds the pipeline and input of one import without running it.
// The library snapshot is taken here.
func (s *ImportService) Prepare(ctx context.Context, userID string, csv io.Reader) (*importers.Pipeline, importers.Input, error) {
	view := s.settings.Effective(userID)
	settings, err := view.Ready(ctx)
	if err != nil {
		return nil, importers.Input{}, err
	}

	snapshot, err := s.library.CachedGames(userID)
	if err != nil {
		return nil, importers.Input{}, fmt.Errorf("load library snapshot: %w", err)
	}

	client := apiclient.NewClient(s.gatewayURL, view, s.httpClient)
	pipeline := importers.NewPipeline(client, s.writer, s.log)

	return pipeline, importers.Input{
		UserID:   userID,
		CSV:      csv,
		Snapshot: snapshot,
		Vocabulary: importers.Vocabulary{
			Categories: settings.ActiveCategories(),
			Tags:       settings.Tags,
		},
	}, nil
}

// Import runs one import to completion, recording its progress.
func (s *ImportService) Import(ctx context.Context, userID string, csv io.Reader) (importers.Summary, error) {
	pipeline, in, err := s.Prepare(ctx, userID, csv)
	if err != nil {
		if s.recorder != nil {
			_ = s.recorder.CompleteImport(userID, false, 0, 0, err.Error())
		}
		return importers.Summary{}, err
	}

	var summary importers.Summary
	if s.recorder != nil {
		summary, err = importers.Run(ctx, pipeline, in, s.recorder)
	} else {
		summary, err = pipeline.Import(ctx, in)
	}

	// The run may have extended the vocabulary.
	s.settings.Invalidate(userID)
	return summary, err
}
