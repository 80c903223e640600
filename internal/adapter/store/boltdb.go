package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"flowgen/internal/port"
)

var (
	bucketForests = []byte("forests")
	bucketMeta    = []byte("meta")
)

var ErrForestNotFound = errors.New("forest not found")

// BoltStore persists component forests so diagrams can be re-rendered
// without re-scanning the source.
type BoltStore struct {
	db *bbolt.DB
}

var _ port.ForestStore = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketForests, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) PutForest(rec port.ForestRecord) error {
	if rec.Key == "" {
		return errors.New("forest key is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketForests).Put([]byte(rec.Key), data)
	})
}

func (s *BoltStore) GetForest(key string) (port.ForestRecord, error) {
	var rec port.ForestRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketForests).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrForestNotFound, key)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// ListForests returns every stored forest ordered by key.
func (s *BoltStore) ListForests() ([]port.ForestRecord, error) {
	var recs []port.ForestRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketForests).ForEach(func(k, v []byte) error {
			var rec port.ForestRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt forest %s: %w", k, err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	return recs, err
}

func (s *BoltStore) DeleteForest(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketForests).Delete([]byte(key))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
