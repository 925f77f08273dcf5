// internal/events/flagstore.go
package events

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketRoyaltyNotify = []byte("royalty_notify")

// FlagStore persists "royalty changed" flags so that signals survive the
// process and reach sessions that missed the in-process event. The periodic
// poll drains it as the backstop delivery path.
type FlagStore struct {
	db *bolt.DB
}

func OpenFlagStore(path string) (*FlagStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open flag store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRoyaltyNotify)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create notify bucket: %w", err)
	}
	return &FlagStore{db: db}, nil
}

// Mark records that assetID needs reconciliation. Marking the same id twice
// before a drain collapses into one flag.
func (s *FlagStore) Mark(assetID uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, assetID)
		val := make([]byte, 8)
		binary.BigEndian.PutUint64(val, uint64(time.Now().UnixNano()))
		return tx.Bucket(bucketRoyaltyNotify).Put(key, val)
	})
}

// Drain returns and clears all pending flags atomically.
func (s *FlagStore) Drain() ([]uint64, error) {
	var ids []uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketRoyaltyNotify)
		cursor := bucket.Cursor()
		var keys [][]byte
		for k, _ := cursor.First(); k != nil; k, _ = cursor.Next() {
			ids = append(ids, binary.BigEndian.Uint64(k))
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain notify flags: %w", err)
	}
	return ids, nil
}

func (s *FlagStore) Close() error {
	return s.db.Close()
}
