package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketSettings = []byte("settings")
)

const dbFileName = "state.db"

// KV is a small persistent string store backed by BoltDB. It plays the role
// of client-local storage: a handful of values under fixed keys.
type KV struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// Mirror of the settings bucket; the only copy in memory-only mode
	cache map[string]string
}

// Open opens (or creates) the state database in dir. An empty dir yields a
// memory-only store that forgets everything on exit.
func Open(dir string) (*KV, error) {
	if dir == "" {
		return &KV{cache: make(map[string]string)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	cache := make(map[string]string)
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSettings)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			cache[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &KV{db: db, cache: cache}, nil
}

// Close releases the database file lock
func (s *KV) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value stored under key ("" and false if missing)
func (s *KV) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

// GetString returns the value under key or "" when missing
func (s *KV) GetString(key string) string {
	v, _ := s.Get(key)
	return v
}

// SetMany writes every pair in a single transaction: either all values are
// visible to subsequent reads or none are.
func (s *KV) SetMany(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketSettings)
			for k, v := range values {
				if err := b.Put([]byte(k), []byte(v)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to write settings: %w", err)
		}
	}

	for k, v := range values {
		s.cache[k] = v
	}
	return nil
}

// Delete removes keys in a single transaction
func (s *KV) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketSettings)
			for _, k := range keys {
				if err := b.Delete([]byte(k)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete settings: %w", err)
		}
	}

	for _, k := range keys {
		delete(s.cache, k)
	}
	return nil
}
