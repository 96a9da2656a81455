// Package localstore implements the local fallback store: a persistent
// key/value space in SQLite that keeps the last full snapshot of the
// bridge collection, plus JSONL import and export.
package localstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DBFileName is the SQLite file created inside the data directory.
const DBFileName = "jembatan.db"

const createKV = `CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

// Store lifecycle errors.
var (
	ErrDetached        = errors.New("local store is detached")
	ErrAlreadyAttached = errors.New("local store is already attached")
)

// Entry is one key/value pair.
type Entry struct {
	Key   string
	Value string
}

// Usage is the storage footprint in bytes.
type Usage struct {
	// SnapshotBytes is the size of the bridge snapshot value.
	SnapshotBytes int64 `json:"snapshot_bytes"`
	// TotalBytes is the size of every stored value.
	TotalBytes int64 `json:"total_bytes"`
}

// Store is the SQLite-backed key/value space.
type Store struct {
	mu       sync.RWMutex
	attached bool
	dataDir  string
	db       *sql.DB
	now      func() time.Time
}

// NewStore creates a detached store. Call Attach before use.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Attach opens (creating if needed) the database inside dataDir.
// Returns ErrAlreadyAttached if called while already attached.
func (s *Store) Attach(dataDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return ErrAlreadyAttached
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers and keeps the file lock simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createKV); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	s.db = db
	s.dataDir = dataDir
	s.attached = true
	return nil
}

// Detach closes the database. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.attached = false
	return err
}

// DataDir returns the directory the store is attached to.
func (s *Store) DataDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataDir
}

// Get returns the value stored under key. ok is false when the key is
// absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return "", false, ErrDetached
	}
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return ErrDetached
	}
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return ErrDetached
	}
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Entries returns every key/value pair ordered by key.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, ErrDetached
	}
	rows, err := s.db.Query(`SELECT key, value FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Usage reports the byte size of the snapshot value and of all values.
func (s *Store) Usage() (Usage, error) {
	entries, err := s.Entries()
	if err != nil {
		return Usage{}, err
	}
	var u Usage
	for _, e := range entries {
		n := int64(len(e.Value))
		u.TotalBytes += n
		if e.Key == SnapshotKey {
			u.SnapshotBytes = n
		}
	}
	return u, nil
}
