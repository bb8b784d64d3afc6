// Package journal persists everything needed to audit a finished game: the
// starting scenario, the per-tick digest ledger, and the outcome. The store
// is SQLite, one file per game.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// ErrClosed is returned for writes after Close.
var ErrClosed = errors.New("journal: closed")

// DigestEntry is one ledger row.
type DigestEntry struct {
	Tick    uint64
	SimTime float64
	Digest  string
	Prev    string
}

// OutcomeEntry records the terminal result.
type OutcomeEntry struct {
	Winner  int
	Kind    string
	SimTime float64
}

// Store is a single game's replay record. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open creates or reopens the journal file, applying the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only ledger.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS scenario (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			name TEXT NOT NULL,
			blob BLOB NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS digests (
			tick INTEGER PRIMARY KEY,
			sim_time REAL NOT NULL,
			digest TEXT NOT NULL,
			prev TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS outcome (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			winner INTEGER NOT NULL,
			kind TEXT NOT NULL,
			sim_time REAL NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	return nil
}

// RecordScenario stores the zstd-compressed scenario JSON. Called once at
// game start; replacing an existing row is an error.
func (s *Store) RecordScenario(name string, scenarioJSON []byte) error {
	blob, err := compress(scenarioJSON)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err = s.db.Exec(
		`INSERT INTO scenario (id, name, blob, recorded_at) VALUES (1, ?, ?, ?)`,
		name, blob, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("journal: scenario: %w", err)
	}
	return nil
}

// Scenario returns the stored scenario name and decompressed JSON.
func (s *Store) Scenario() (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", nil, ErrClosed
	}
	var name string
	var blob []byte
	err := s.db.QueryRow(`SELECT name, blob FROM scenario WHERE id = 1`).Scan(&name, &blob)
	if err != nil {
		return "", nil, fmt.Errorf("journal: scenario: %w", err)
	}
	raw, err := decompress(blob)
	if err != nil {
		return "", nil, err
	}
	return name, raw, nil
}

// AppendDigest writes one ledger row.
func (s *Store) AppendDigest(entry DigestEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err := s.db.Exec(
		`INSERT INTO digests (tick, sim_time, digest, prev) VALUES (?, ?, ?, ?)`,
		entry.Tick, entry.SimTime, entry.Digest, entry.Prev,
	)
	if err != nil {
		return fmt.Errorf("journal: digest tick %d: %w", entry.Tick, err)
	}
	return nil
}

// Digests returns the full ledger in tick order.
func (s *Store) Digests() ([]DigestEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.Query(`SELECT tick, sim_time, digest, prev FROM digests ORDER BY tick`)
	if err != nil {
		return nil, fmt.Errorf("journal: digests: %w", err)
	}
	defer rows.Close()
	var entries []DigestEntry
	for rows.Next() {
		var e DigestEntry
		if err := rows.Scan(&e.Tick, &e.SimTime, &e.Digest, &e.Prev); err != nil {
			return nil, fmt.Errorf("journal: digests: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordOutcome writes the terminal result. Called once.
func (s *Store) RecordOutcome(entry OutcomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err := s.db.Exec(
		`INSERT INTO outcome (id, winner, kind, sim_time) VALUES (1, ?, ?, ?)`,
		entry.Winner, entry.Kind, entry.SimTime,
	)
	if err != nil {
		return fmt.Errorf("journal: outcome: %w", err)
	}
	return nil
}

// Outcome returns the stored result, if the game finished.
func (s *Store) Outcome() (OutcomeEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return OutcomeEntry{}, false, ErrClosed
	}
	var e OutcomeEntry
	err := s.db.QueryRow(`SELECT winner, kind, sim_time FROM outcome WHERE id = 1`).
		Scan(&e.Winner, &e.Kind, &e.SimTime)
	if errors.Is(err, sql.ErrNoRows) {
		return OutcomeEntry{}, false, nil
	}
	if err != nil {
		return OutcomeEntry{}, false, fmt.Errorf("journal: outcome: %w", err)
	}
	return e, true, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

func decompress(blob []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return raw, nil
}
