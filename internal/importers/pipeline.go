package importers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metadata"
	"github.com/mrlokans/pixeljournal/internal/metrics"
)

// MaxBatchSize is the largest number of games written in one commit.
const MaxBatchSize = 500

const unknownGameName = "Unknown Game"

// GameAPI resolves games for one user through the gateway.
type GameAPI interface {
	Source(ctx context.Context) (metadata.Source, error)
	SearchGames(ctx context.Context, query string) ([]metadata.GameSearchResult, error)
	GetGameDetails(ctx context.Context, gameID string) (*metadata.GameDetailsResult, error)
}

// GameWriter persists the result of an import.
type GameWriter interface {
	MergeVocabulary(ctx context.Context, userID string, categories, tags []string) error
	CommitGames(ctx context.Context, batch []entities.Game) error
}

// Vocabulary is the set of categories and tags a user already has.
type Vocabulary struct {
	Categories []string
	Tags       []string
}

// Input is everything one import run needs. Snapshot is the user's library
// at the time the run starts; later changes to the library are not seen.
type Input struct {
	UserID     string
	CSV        io.Reader
	Snapshot   []entities.CachedGameInfo
	Vocabulary Vocabulary
}

// Pipeline imports a CSV export into a user's library: each row is
// resolved through the gateway, checked against the library snapshot and
// queued; the queue is committed once at the end.
type Pipeline struct {
	api    GameAPI
	writer GameWriter
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewPipeline(api GameAPI, writer GameWriter, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		api:    api,
		writer: writer,
		log:    log.Named("import"),
		now:    time.Now,
	}
}

// Stream runs the import in a new goroutine and returns its events. The
// channel is closed after the terminal event, or early if ctx is cancelled.
// Callers must drain it.
func (p *Pipeline) Stream(ctx context.Context, in Input) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)
		emit := func(e Event) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case events <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}
		p.run(ctx, in, emit)
	}()

	return events
}

// Import runs the pipeline to completion and returns its summary.
func (p *Pipeline) Import(ctx context.Context, in Input) (Summary, error) {
	for event := range p.Stream(ctx, in) {
		switch event.Kind {
		case EventComplete:
			return *event.Summary, nil
		case EventParseError:
			return Summary{}, event.Err
		case EventFailed:
			var summary Summary
			if event.Summary != nil {
				summary = *event.Summary
			}
			return summary, event.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	return Summary{}, errors.New("import ended without a result")
}

// run executes one import. It returns as soon as emit reports that nobody
// is listening anymore.
func (p *Pipeline) run(ctx context.Context, in Input, emit func(Event) bool) {
	start := time.Now()
	defer metrics.RecordImportDuration(start)

	rows, err := ParseCSV(in.CSV)
	if err != nil {
		p.log.Errorw("CSV parsing failed", "user", in.UserID, "error", err)
		metrics.ImportRuns.WithLabelValues(string(EventParseError)).Inc()
		emit(Event{Kind: EventParseError, Message: err.Error(), Err: err})
		return
	}

	source, err := p.api.Source(ctx)
	if err != nil {
		p.log.Errorw("Import cannot start", "user", in.UserID, "error", err)
		metrics.ImportRuns.WithLabelValues(string(EventFailed)).Inc()
		emit(Event{Kind: EventFailed, Message: err.Error(), Err: err})
		return
	}

	total := len(rows)
	p.log.Infow("Starting CSV import", "user", in.UserID, "rows", total, "source", source)

	run := newImportRun(source, in, total)
	if !emit(Event{Kind: EventProgress, Current: 0, Total: total}) {
		return
	}

	for i, row := range rows {
		n := i + 1
		name := row.Game
		if name == "" {
			name = unknownGameName
		}

		if !emit(Event{Kind: EventMessage, Message: fmt.Sprintf("[%d/%d] Processing: %s", n, total, name)}) {
			return
		}
		if !emit(Event{Kind: EventProgress, Current: n, Total: total}) {
			return
		}

		if !p.processRow(ctx, run, n, row, emit) {
			return
		}
	}

	if len(run.newCategories) > 0 || len(run.newTags) > 0 {
		if !emit(Event{Kind: EventMessage, Message: "Updating your categories and tags..."}) {
			return
		}
		if err := p.writer.MergeVocabulary(ctx, in.UserID, run.newCategories, run.newTags); err != nil {
			p.fail(in.UserID, run, fmt.Errorf("update categories and tags: %w", err), emit)
			return
		}
	}

	if len(run.batch) > 0 {
		if !emit(Event{Kind: EventMessage, Message: fmt.Sprintf("Saving %d games to your library...", len(run.batch))}) {
			return
		}
		for chunk := range slices.Chunk(run.batch, MaxBatchSize) {
			if err := p.writer.CommitGames(ctx, chunk); err != nil {
				p.fail(in.UserID, run, fmt.Errorf("save games: %w", err), emit)
				return
			}
		}
	}

	summary := run.summary
	p.log.Infow("CSV import finished",
		"user", in.UserID,
		"rows", summary.Total,
		"added", summary.Added,
		"skipped", summary.Skipped,
		"duration", time.Since(start),
	)
	metrics.ImportRuns.WithLabelValues(string(EventComplete)).Inc()
	emit(Event{Kind: EventComplete, Summary: &summary})
}

// processRow resolves one row and queues it. It returns false when the
// run must stop because the consumer went away.
func (p *Pipeline) processRow(ctx context.Context, run *importRun, n int, row CSVRow, emit func(Event) bool) bool {
	log := p.log.With("row", n, "game", row.Game)

	slug, ok := SlugFromURL(row.URL)
	if !ok {
		log.Debugw("Skipped: cannot extract slug", "url", row.URL)
		run.skip(skipInvalidURL)
		return true
	}

	results, err := p.api.SearchGames(ctx, slug)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Warnw("Skipped: search failed", "slug", slug, "error", err)
		run.skip(skipUnresolved)
		return true
	}
	if len(results) == 0 || results[0].ID.IsZero() {
		log.Debugw("Skipped: no match", "slug", slug)
		run.skip(skipUnresolved)
		return true
	}
	match := results[0]

	if run.isDuplicate(match.ID) {
		log.Debugw("Skipped: already in library", "id", match.ID, "title", match.Title)
		run.skip(skipDuplicate)
		return true
	}

	if !emit(Event{Kind: EventMessage, Message: fmt.Sprintf("[%d/%d] Getting details for: %s", n, run.summary.Total, match.Title)}) {
		return false
	}

	details, err := p.api.GetGameDetails(ctx, match.ID.String())
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Infow("Could not get game details, proceeding with basic info", "id", match.ID, "error", err)
		details = nil
	}

	run.add(p.buildGame(run, row, match, details), row.Status, row.Rating)
	return true
}

// fail reports a persistence fault as the terminal event.
func (p *Pipeline) fail(userID string, run *importRun, err error, emit func(Event) bool) {
	p.log.Errorw("CSV import failed", "user", userID, "error", err)
	metrics.ImportRuns.WithLabelValues(string(EventFailed)).Inc()
	summary := run.summary
	emit(Event{Kind: EventFailed, Message: err.Error(), Summary: &summary, Err: err})
}

func (p *Pipeline) buildGame(run *importRun, row CSVRow, match metadata.GameSearchResult, details *metadata.GameDetailsResult) entities.Game {
	if details == nil {
		details = &metadata.GameDetailsResult{}
	}

	rating := RatingFor(row.Rating)
	tags := []string{}
	if row.Rating != "" {
		tags = append(tags, row.Rating)
	}

	status := row.Status
	if status == "" {
		status = entities.DefaultGameStatus
	}

	return entities.Game{
		UserID:          run.userID,
		Source:          string(run.source),
		ProviderGameID:  match.ID.String(),
		Title:           match.Title,
		Year:            match.Year,
		ImageURL:        match.ImageURL,
		Genres:          nonNil(match.Genres),
		Developer:       nonNil(details.Developer),
		Publisher:       nonNil(details.Publisher),
		Series:          details.Series,
		Status:          status,
		DateAdded:       parseCreated(row.Created, p.now()),
		UserRating:      rating.Stars,
		IsFavorite:      rating.IsFavorite,
		UserNote:        row.Review,
		PlayTime:        0,
		MarkdownContent: "",
		Tags:            tags,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
