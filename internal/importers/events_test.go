package importers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvent_Terminal(t *testing.T) {
	tests := []struct {
		kind     EventKind
		terminal bool
	}{
		{EventMessage, false},
		{EventProgress, false},
		{EventComplete, true},
		{EventParseError, true},
		{EventFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.terminal, Event{Kind: tt.kind}.Terminal())
		})
	}
}
