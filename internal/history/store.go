// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history maintains a bounded, newest-first record of past queries
// and their normalized results, persisted to a local SQLite database.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const (
	dbFile = "history.db"

	// defaultCapacity bounds the store: inserting a 51st entry evicts the
	// oldest by creation order. Reads never reorder the eviction queue.
	defaultCapacity = 50
)

// nowFunc returns the current time. Package-level var for test substitution.
var nowFunc = time.Now

// Store is the shared mutable history of past queries. The in-memory list
// is authoritative; every mutation is flushed to SQLite as one transaction
// so the persisted state never transiently exceeds capacity. All mutations
// serialize on one mutex.
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	entries  []types.HistoryEntry // newest first
	capacity int
	seq      uint64 // disambiguates IDs created within the same millisecond
}

// NewStore opens or creates the history database at cfg.DataDir/history.db
// and loads persisted entries. Corrupt or unreadable persisted state
// degrades to an empty history: the returned Store is always usable, and
// the returned error (if any) describes why persistence is unavailable so
// the caller can log a warning.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	s := &Store{capacity: capacity}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return s, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return s, fmt.Errorf("opening history database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return s, fmt.Errorf("creating history schema: %w", err)
	}

	s.db = db
	s.load()
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS entries (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			created_at TEXT NOT NULL,
			result TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// load reads persisted entries newest-first into memory. Rows that fail to
// deserialize or that violate the result schema are silently discarded;
// a wholly unreadable table leaves the store empty. Never fails the caller.
func (s *Store) load() {
	rows, err := s.db.Query(
		`SELECT id, query, created_at, result FROM entries ORDER BY position ASC`)
	if err != nil {
		return
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var id, query, createdAt, resultJSON string
		if err := rows.Scan(&id, &query, &createdAt, &resultJSON); err != nil {
			continue
		}

		created, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			continue
		}

		var result types.QueryResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			continue
		}

		entry := types.HistoryEntry{
			ID:        id,
			Query:     query,
			CreatedAt: created,
			Result:    result,
		}
		if err := entry.Validate(); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	s.entries = entries
}

// Append creates an entry for the query/result pair, inserts it at the
// front, evicts past capacity, and persists. It never fails on valid
// input: a persistence I/O failure is returned for the caller to report
// as a warning and leaves the in-memory insertion intact.
func (s *Store) Append(query string, result types.QueryResult) (types.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowFunc()
	s.seq++
	entry := types.HistoryEntry{
		ID:        fmt.Sprintf("%d-%04d", now.UnixMilli(), s.seq),
		Query:     query,
		CreatedAt: now,
		Result:    result,
	}

	s.entries = append([]types.HistoryEntry{entry}, s.entries...)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}

	return entry, s.persist()
}

// List returns a newest-first snapshot of the history.
func (s *Store) List() []types.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]types.HistoryEntry, len(s.entries))
	copy(snapshot, s.entries)
	return snapshot
}

// All returns a restartable newest-first iterator over a snapshot taken at
// call time. Mutations after the call do not affect an in-flight iteration.
func (s *Store) All() iter.Seq[types.HistoryEntry] {
	snapshot := s.List()
	return func(yield func(types.HistoryEntry) bool) {
		for _, e := range snapshot {
			if !yield(e) {
				return
			}
		}
	}
}

// Get returns the entry with the given id, if present. Reads never change
// eviction order.
func (s *Store) Get(id string) (types.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return types.HistoryEntry{}, false
}

// Len returns the current entry count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// DeleteByID removes the matching entry and persists. A missing id is not
// an error: it returns false with the store unchanged. The error, when
// non-nil, is a persistence warning.
func (s *Store) DeleteByID(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true, s.persist()
		}
	}
	return false, nil
}

// Clear removes all entries and persists an empty store. Idempotent.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	return s.persist()
}

// persist rewrites the entries table inside one transaction so the
// persisted state is replaced as a single atomic unit. Callers must hold
// s.mu. A nil db (persistence unavailable) is a no-op.
func (s *Store) persist() error {
	if s.db == nil {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning history transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("clearing persisted history: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO entries (position, id, query, created_at, result) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing history insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range s.entries {
		resultJSON, err := json.Marshal(e.Result)
		if err != nil {
			return fmt.Errorf("serializing entry %s: %w", e.ID, err)
		}
		createdAt := e.CreatedAt.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.Exec(i, e.ID, e.Query, createdAt, string(resultJSON)); err != nil {
			return fmt.Errorf("inserting entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history transaction: %w", err)
	}
	return nil
}
