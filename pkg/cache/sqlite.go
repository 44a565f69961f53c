package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per root in a SQLite database
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// DefaultSQLitePath returns $XDG_CACHE_HOME/modclash/scan-cache.db or the
// platform equivalent
func DefaultSQLitePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(dir, "modclash", "scan-cache.db"), nil
}

// OpenSQLiteStore opens (or creates) the database at path
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_cache (
			root    TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			created INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load returns the row for root
func (s *SQLiteStore) Load(ctx context.Context, root string) (*Entry, error) {
	var version int
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT version, payload FROM scan_cache WHERE root = ?", root,
	).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("query cache row: %w", err)
	}
	if version != entryVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrSchema, version, entryVersion)
	}

	return decodeEntry(payload)
}

// Save upserts the row for entry.Root
func (s *SQLiteStore) Save(ctx context.Context, entry *Entry) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO scan_cache (root, version, created, payload) VALUES (?, ?, ?, ?)",
		entry.Root, entry.Version, entry.Created.UnixNano(), payload,
	)
	if err != nil {
		return fmt.Errorf("store cache row: %w", err)
	}
	return nil
}

// Delete removes the row for root
func (s *SQLiteStore) Delete(ctx context.Context, root string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM scan_cache WHERE root = ?", root); err != nil {
		return fmt.Errorf("delete cache row: %w", err)
	}
	return nil
}

// Clear removes every row
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM scan_cache"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
