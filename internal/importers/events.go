package importers

// EventKind tells what an import event reports.
type EventKind string

const (
	// EventMessage carries a human-readable status line.
	EventMessage EventKind = "message"
	// EventProgress reports the row being processed out of the total.
	EventProgress EventKind = "progress"
	// EventComplete is the terminal event of a successful run.
	EventComplete EventKind = "complete"
	// EventParseError is the terminal event of a run whose CSV could not
	// be parsed. No rows were processed and nothing was written.
	EventParseError EventKind = "parse_error"
	// EventFailed is the terminal event of a run aborted by a
	// configuration or persistence fault.
	EventFailed EventKind = "failed"
)

// Event is one observation of a running import.
type Event struct {
	Kind    EventKind `json:"kind"`
	Message string    `json:"message,omitempty"`
	Current int       `json:"current,omitempty"`
	Total   int       `json:"total,omitempty"`
	Summary *Summary  `json:"summary,omitempty"`
	Err     error     `json:"-"`
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	switch e.Kind {
	case EventComplete, EventParseError, EventFailed:
		return true
	}
	return false
}

// Summary tallies the outcome of an import run. Skipped is the sum of
// the invalid URL, unresolved and duplicate counts.
type Summary struct {
	Total      int `json:"total"`
	Added      int `json:"added"`
	Skipped    int `json:"skipped"`
	InvalidURL int `json:"invalid_url"`
	Unresolved int `json:"unresolved"`
	Duplicates int `json:"duplicates"`
}
