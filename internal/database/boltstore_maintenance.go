// internal/database/boltstore_maintenance.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

// DeleteHistoryBefore removes journal entries submitted before cutoff.
func (s *BoltStore) DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deletedCount := 0
	limit := timeKey(cutoff)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(CommandsBucket)
		idx := tx.Bucket(IndexBucket)

		// keys are time ordered, so everything old sits at the front
		var keysToDelete [][]byte
		var idsToDelete [][]byte
		cursor := b.Cursor()
		for k, v := cursor.First(); k != nil && bytes.Compare(k, limit) < 0; k, v = cursor.Next() {
			var rec CommandRecord
			if err := json.Unmarshal(v, &rec); err == nil {
				idsToDelete = append(idsToDelete, []byte(rec.ID))
			}
			keysToDelete = append(keysToDelete, copyBytes(k))
		}

		for _, key := range keysToDelete {
			if err := b.Delete(key); err != nil {
				return fmt.Errorf("failed to delete journal entry: %w", err)
			}
			deletedCount++
		}
		for _, id := range idsToDelete {
			if err := idx.Delete(id); err != nil {
				return fmt.Errorf("failed to delete journal index: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to delete old history: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"deleted_count": deletedCount,
		"cutoff_time":   cutoff,
	}).Info("Deleted old command history entries")

	return deletedCount, nil
}

// GetDatabaseStats returns information about journal size and age.
func (s *BoltStore) GetDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(CommandsBucket)
		stats.TotalCommands = b.Stats().KeyN

		cursor := b.Cursor()
		if k, v := cursor.First(); k != nil {
			var rec CommandRecord
			if err := json.Unmarshal(v, &rec); err == nil {
				stats.OldestEntry = rec.SubmittedAt
			}
		}
		if k, v := cursor.Last(); k != nil {
			var rec CommandRecord
			if err := json.Unmarshal(v, &rec); err == nil {
				stats.NewestEntry = rec.SubmittedAt
			}
		}

		return b.ForEach(func(k, v []byte) error {
			var rec CommandRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			if !rec.Written {
				stats.FailedWrites++
			}
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get database stats: %w", err)
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.DatabaseSize = fileInfo.Size()
	}

	return stats, nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
