// internal/database/store.go
package database

import (
	"context"
	"time"
)

// Store is the command journal.
type Store interface {
	RecordCommands(ctx context.Context, records []CommandRecord) error
	GetCommandHistory(ctx context.Context, filters HistoryFilters) ([]CommandRecord, error)
	GetCommand(ctx context.Context, id string) (*CommandRecord, error)

	DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int, error)
	GetDatabaseStats(ctx context.Context) (*DatabaseStats, error)

	Close() error
}
