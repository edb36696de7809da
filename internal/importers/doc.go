// Package importers brings game library exports into a user's journal.
//
// # Architecture
//
// An import follows a fixed flow per CSV row:
//
//	CSV row → slug → search (first result) → dedup → details → Game → batch
//
// Rows are processed one after another. Duplicates are detected against a
// snapshot of the library taken once when the run starts, keyed by
// (source, provider game id). Nothing is written until every row has been
// seen: new statuses and rating labels are merged into the user's
// vocabulary first, then the batch is committed in chunks of at most
// MaxBatchSize games.
//
// # Observing a Run
//
// Pipeline.Stream returns a channel of events:
//
//	message      human-readable status line
//	progress     current row out of total
//	complete     final summary (terminal)
//	parse_error  the CSV could not be read, nothing was processed (terminal)
//	failed       configuration or persistence fault (terminal)
//
// Pipeline.Import drains the stream and returns the summary; Run does the
// same while mirroring progress into a ProgressRecorder for polling.
//
// # Example Usage
//
//	client := apiclient.NewClient(gatewayURL, state, nil)
//	pipeline := importers.NewPipeline(client, db, log)
//
//	summary, err := pipeline.Import(ctx, importers.Input{
//		UserID:     userID,
//		CSV:        file,
//		Snapshot:   cached,
//		Vocabulary: importers.Vocabulary{Categories: s.ActiveCategories(), Tags: s.Tags},
//	})
package importers
