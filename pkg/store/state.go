package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/panbanda/gitrends/pkg/models"
	bolt "go.etcd.io/bbolt"
)

const (
	queryingBucket = "querying"
	dateRangeKey   = "date_range"
)

// State persists engine settings that survive restarts, such as the date
// range analytics are restricted to.
type State struct {
	db *bolt.DB
}

// OpenState opens or creates the state database in dataDir.
func OpenState(dataDir string) (*State, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", ErrIO, err)
	}
	db, err := bolt.Open(filepath.Join(dataDir, StateFile), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open state: %v", ErrIO, err)
	}
	return &State{db: db}, nil
}

// DateRange returns the stored date range, open on both ends if none was set.
func (s *State) DateRange() (models.DateRange, error) {
	var r models.DateRange
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(queryingBucket))
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(dateRangeKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &r)
	})
	if err != nil {
		return models.DateRange{}, fmt.Errorf("read date range: %w", err)
	}
	return r, nil
}

// SetDateRange stores the date range.
func (s *State) SetDateRange(r models.DateRange) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(queryingBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(dateRangeKey), data)
	})
}

// Close releases the state database.
func (s *State) Close() error {
	return s.db.Close()
}
