// Package cache persists compile results keyed by source content, so an
// unchanged file is not re-checked across driver runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const resultsBucket = "results"

// Entry is one cached compile outcome. Diagnostics are stored in their
// rendered one-line form; positions survive in the text.
type Entry struct {
	File        string    `json:"file"`
	Hash        string    `json:"hash"`
	Clean       bool      `json:"clean"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Store is a bbolt-backed result cache.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the cache database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(resultsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Key returns the content hash used to detect stale entries.
func Key(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached entry for file when its stored hash matches
// the current content hash. A miss or a stale entry returns (nil, nil).
func (s *Store) Lookup(file, hash string) (*Entry, error) {
	var entry *Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(resultsBucket)).Get([]byte(file))
		if data == nil {
			return nil
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			// A corrupt entry is a miss, not a failure.
			return nil
		}
		if e.Hash == hash {
			entry = &e
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Put stores the compile outcome for file.
func (s *Store) Put(e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(resultsBucket)).Put([]byte(e.File), data)
	})
}

// Invalidate drops the entry for file, if any.
func (s *Store) Invalidate(file string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(resultsBucket)).Delete([]byte(file))
	})
}
