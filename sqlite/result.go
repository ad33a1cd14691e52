package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/gleaner"
	"github.com/fwojciec/gleaner/bloom"
)

// Compile-time interface verification.
var _ gleaner.ResultCache = (*ResultStore)(nil)

// DefaultTTL applies when Set is called with a zero ttl.
const DefaultTTL = 24 * time.Hour

// ResultStore implements gleaner.ResultCache using SQLite.
//
// An optional Bloom filter answers most misses without a query. The filter
// only knows keys written through this store or loaded by WarmFilter.
type ResultStore struct {
	db     *DB
	filter *bloom.Filter
	ttl    time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewResultStore creates a ResultStore. filter may be nil.
func NewResultStore(db *DB, filter *bloom.Filter, defaultTTL time.Duration) *ResultStore {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &ResultStore{
		db:     db,
		filter: filter,
		ttl:    defaultTTL,
		Now:    time.Now,
	}
}

// WarmFilter adds the keys of all unexpired results to the Bloom filter.
// It returns the number of keys added.
func (s *ResultStore) WarmFilter(ctx context.Context) (int, error) {
	if s.filter == nil {
		return 0, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM results WHERE expires_at > ?`, formatTime(s.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to list result keys: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return n, fmt.Errorf("failed to scan result key: %w", err)
		}
		s.filter.Add(key)
		n++
	}
	return n, rows.Err()
}

// Get returns the unexpired result stored under key, or nil on a miss.
func (s *ResultStore) Get(ctx context.Context, key string) (*gleaner.ExtractedContent, error) {
	if s.filter != nil && !s.filter.Test(key) {
		return nil, nil
	}

	var value, expiresAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM results WHERE key = ?
	`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result %q: %w", key, err)
	}

	expires, err := parseTime(expiresAt, "expires_at")
	if err != nil {
		return nil, err
	}
	if !expires.After(s.Now()) {
		return nil, nil
	}

	var content gleaner.ExtractedContent
	if err := json.Unmarshal([]byte(value), &content); err != nil {
		return nil, fmt.Errorf("failed to decode result %q: %w", key, err)
	}
	return &content, nil
}

// Set stores content under key, replacing any previous result.
func (s *ResultStore) Set(ctx context.Context, key string, content *gleaner.ExtractedContent, ttl time.Duration) error {
	if content == nil {
		return gleaner.Errorf(gleaner.EEXTRACTION, "cannot cache empty content for %q", key)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	value, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to encode result %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, string(value), formatTime(s.Now().Add(ttl)))
	if err != nil {
		return fmt.Errorf("failed to write result %q: %w", key, err)
	}

	if s.filter != nil {
		s.filter.Add(key)
	}
	return nil
}

// Purge deletes expired results and returns how many were removed.
func (s *ResultStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE expires_at <= ?`, formatTime(s.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge results: %w", err)
	}
	return res.RowsAffected()
}
