package importers

import (
	"slices"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metadata"
	"github.com/mrlokans/pixeljournal/internal/metrics"
)

type skipReason string

const (
	skipInvalidURL skipReason = "invalid_url"
	skipUnresolved skipReason = "unresolved"
	skipDuplicate  skipReason = "duplicate"
)

// importRun is the mutable state of one import.
type importRun struct {
	userID string
	source metadata.Source

	// library holds the dedup keys of the snapshot taken at run start. Games
	// queued by this run are not added: two rows naming the same game both
	// import.
	library map[string]struct{}

	knownCategories map[string]struct{}
	knownTags       map[string]struct{}
	newCategories   []string
	newTags         []string

	batch   []entities.Game
	summary Summary
}

func newImportRun(source metadata.Source, in Input, total int) *importRun {
	run := &importRun{
		userID:          in.UserID,
		source:          source,
		library:         make(map[string]struct{}, len(in.Snapshot)),
		knownCategories: toSet(in.Vocabulary.Categories),
		knownTags:       toSet(in.Vocabulary.Tags),
		summary:         Summary{Total: total},
	}
	for _, g := range in.Snapshot {
		run.library[dedupKey(g.Source, g.ProviderGameID)] = struct{}{}
	}
	return run
}

// dedupKey identifies a game across libraries. The same id from two
// providers names two different games.
func dedupKey(source, providerGameID string) string {
	return source + "\x00" + providerGameID
}

func (r *importRun) isDuplicate(id metadata.GameID) bool {
	_, ok := r.library[dedupKey(string(r.source), id.String())]
	return ok
}

func (r *importRun) skip(reason skipReason) {
	r.summary.Skipped++
	switch reason {
	case skipInvalidURL:
		r.summary.InvalidURL++
	case skipUnresolved:
		r.summary.Unresolved++
	case skipDuplicate:
		r.summary.Duplicates++
	}
	metrics.ImportRows.WithLabelValues(string(reason)).Inc()
}

// add queues a game. status and rating are the labels as written in the
// row; either may be empty.
func (r *importRun) add(game entities.Game, status, rating string) {
	r.batch = append(r.batch, game)
	r.summary.Added++
	metrics.ImportRows.WithLabelValues("added").Inc()

	r.newCategories = extend(r.newCategories, r.knownCategories, status)
	r.newTags = extend(r.newTags, r.knownTags, rating)
}

// extend appends value to overflow unless it is known or already queued.
func extend(overflow []string, known map[string]struct{}, value string) []string {
	if value == "" {
		return overflow
	}
	if _, ok := known[value]; ok {
		return overflow
	}
	if slices.Contains(overflow, value) {
		return overflow
	}
	return append(overflow, value)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
