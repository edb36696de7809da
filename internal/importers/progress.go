package importers

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ProgressRecorder stores the progress of a user's import so it can be
// polled while the run is in flight.
type ProgressRecorder interface {
	StartImport(userID string, totalItems int) error
	UpdateProgress(userID string, processed, total int, currentItem string) error
	CompleteImport(userID string, succeeded bool, added, skipped int, errorMsg string) error
}

// Run drives an import and mirrors its events into recorder. Recorder
// failures are logged and do not stop the import.
func Run(ctx context.Context, p *Pipeline, in Input, recorder ProgressRecorder) (Summary, error) {
	log := p.log.With("user", in.UserID)

	if err := recorder.StartImport(in.UserID, 0); err != nil {
		log.Warnw("Failed to record import start", "error", err)
	}

	var (
		summary Summary
		runErr  error
		current string
		done    bool
	)

	for event := range p.Stream(ctx, in) {
		switch event.Kind {
		case EventMessage:
			current = currentItem(event.Message)
		case EventProgress:
			record(log, recorder.UpdateProgress(in.UserID, event.Current, event.Total, current))
		case EventComplete:
			summary, done = *event.Summary, true
			record(log, recorder.CompleteImport(in.UserID, true, summary.Added, summary.Skipped, ""))
		case EventParseError, EventFailed:
			if event.Summary != nil {
				summary = *event.Summary
			}
			runErr, done = event.Err, true
			record(log, recorder.CompleteImport(in.UserID, false, summary.Added, summary.Skipped, event.Message))
		}
	}

	if !done {
		runErr = ctx.Err()
		if runErr == nil {
			runErr = context.Canceled
		}
		record(log, recorder.CompleteImport(in.UserID, false, summary.Added, summary.Skipped, "import was cancelled"))
	}

	return summary, runErr
}

// currentItem strips the "[n/total] " counter from a row message.
func currentItem(message string) string {
	if strings.HasPrefix(message, "[") {
		if i := strings.Index(message, "] "); i >= 0 {
			return message[i+2:]
		}
	}
	return message
}

func record(log *zap.SugaredLogger, err error) {
	if err != nil {
		log.Warnw("Failed to record import progress", "error", err)
	}
}
