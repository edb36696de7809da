package entities

import (
	"time"
)

type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportProgress tracks the most recent CSV import of a user.
type ImportProgress struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      string       `gorm:"size:128;uniqueIndex" json:"user_id"`
	Status      ImportStatus `gorm:"size:20" json:"status"`
	TotalItems  int          `json:"total_items"`
	Processed   int          `json:"processed"`
	Added       int          `json:"added"`
	Skipped     int          `json:"skipped"`
	CurrentItem string       `gorm:"size:512" json:"current_item,omitempty"`
	Error       string       `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

func (ImportProgress) TableName() string {
	return "import_progress"
}
