// internal/database/boltstore.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	CommandsBucket = []byte("commands")
	IndexBucket    = []byte("command_index")
	MetaBucket     = []byte("meta")
)

var ErrNotFound = errors.New("not found")

type BoltStore struct {
	db   *bbolt.DB
	path string
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	store := &BoltStore{db: db, path: path}

	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return store, nil
}

func (s *BoltStore) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{CommandsBucket, IndexBucket, MetaBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
}

// journalKey sorts chronologically: zero-padded nanoseconds, then the bucket
// sequence so a batch keeps its submission order.
func journalKey(r *CommandRecord, seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d:%020d", r.SubmittedAt.UnixNano(), seq))
}

func timeKey(t time.Time) []byte {
	return []byte(fmt.Sprintf("%020d:", t.UnixNano()))
}

// RecordCommands stores a batch in one transaction. Missing IDs are filled in
// and share a batch ID.
func (s *BoltStore) RecordCommands(ctx context.Context, records []CommandRecord) error {
	if len(records) == 0 {
		return nil
	}

	batchID := uuid.New().String()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.New().String()
		}
		if records[i].BatchID == "" {
			records[i].BatchID = batchID
		}
		if records[i].SubmittedAt.IsZero() {
			records[i].SubmittedAt = time.Now()
		}
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(CommandsBucket)
		idx := tx.Bucket(IndexBucket)

		for i := range records {
			data, err := json.Marshal(&records[i])
			if err != nil {
				return fmt.Errorf("failed to marshal command record: %w", err)
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			key := journalKey(&records[i], seq)
			if err := b.Put(key, data); err != nil {
				return err
			}
			if err := idx.Put([]byte(records[i].ID), key); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCommandHistory returns matching records, newest first.
func (s *BoltStore) GetCommandHistory(ctx context.Context, filters HistoryFilters) ([]CommandRecord, error) {
	records := []CommandRecord{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(CommandsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var rec CommandRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal command %s: %w", k, err)
			}

			if filters.Since != nil && rec.SubmittedAt.Before(*filters.Since) {
				break
			}
			if filters.Name != "" && rec.Name != filters.Name {
				continue
			}
			if filters.HostName != "" && (len(rec.Params) == 0 || rec.Params[0] != filters.HostName) {
				continue
			}

			records = append(records, rec)
			if filters.Limit > 0 && len(records) >= filters.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *BoltStore) GetCommand(ctx context.Context, id string) (*CommandRecord, error) {
	var rec CommandRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(IndexBucket).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("command %s: %w", id, ErrNotFound)
		}
		v := tx.Bucket(CommandsBucket).Get(key)
		if v == nil {
			return fmt.Errorf("command %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(v, &rec)
	})

	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
