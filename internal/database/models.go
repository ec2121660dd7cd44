// internal/database/models.go
package database

import (
	"time"
)

// CommandRecord is one journal entry for a command sent to the daemon.
type CommandRecord struct {
	ID          string    `json:"id" yaml:"id"`
	BatchID     string    `json:"batch_id" yaml:"batch_id"`
	Name        string    `json:"name" yaml:"name"`
	Params      []string  `json:"params" yaml:"params"`
	Line        string    `json:"line" yaml:"line"`
	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted_at"`
	Written     bool      `json:"written" yaml:"written"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

type HistoryFilters struct {
	// HostName matches the first parameter of host and service commands.
	HostName string
	Name     string
	Since    *time.Time
	Limit    int
}

// DatabaseStats describes the size of the journal.
type DatabaseStats struct {
	TotalCommands int       `json:"total_commands"`
	FailedWrites  int       `json:"failed_writes"`
	DatabaseSize  int64     `json:"database_size_bytes"`
	OldestEntry   time.Time `json:"oldest_entry"`
	NewestEntry   time.Time `json:"newest_entry"`
}
