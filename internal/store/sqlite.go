package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Direction distinguishes forward (name → coordinate) and reverse
// (coordinate → name) geocode lookups sharing the cache table.
type Direction string

const (
	Forward Direction = "forward"
	Reverse Direction = "reverse"
)

// Store caches geocoding responses in SQLite. Weather snapshots are never
// stored; the cache only spares the rate-limited geocoders repeat lookups.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open opens a SQLite database at dsn and applies migrations. An in-memory
// DSN is limited to one connection so every query sees the same database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA busy_timeout=5000")
	}

	s := New(db)
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

// GetGeocode returns the cached payload for a lookup if it is younger than maxAge.
func (s *Store) GetGeocode(dir Direction, key string, maxAge time.Duration) ([]byte, bool, error) {
	var payload string
	var fetchedAt time.Time
	err := s.db.QueryRow(`
		SELECT payload, fetched_at FROM geocode_cache
		WHERE direction = ? AND lookup_key = ?
	`, string(dir), key).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get geocode %s %q: %w", dir, key, err)
	}
	if s.now().Sub(fetchedAt) > maxAge {
		return nil, false, nil
	}
	return []byte(payload), true, nil
}

func (s *Store) PutGeocode(dir Direction, key string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO geocode_cache (direction, lookup_key, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(direction, lookup_key) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, string(dir), key, string(payload), s.now().UTC())
	if err != nil {
		return fmt.Errorf("put geocode %s %q: %w", dir, key, err)
	}
	return nil
}

// PurgeGeocode deletes entries older than maxAge and returns how many were removed.
func (s *Store) PurgeGeocode(maxAge time.Duration) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM geocode_cache WHERE fetched_at < ?`, s.now().Add(-maxAge).UTC())
	if err != nil {
		return 0, fmt.Errorf("purge geocode cache: %w", err)
	}
	return res.RowsAffected()
}
