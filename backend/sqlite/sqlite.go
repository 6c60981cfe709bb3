package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
	"tasktrack/backend"
)

// Backend implements backend.Store using a single SQLite key-value table
type Backend struct {
	db *sql.DB
}

// New opens the SQLite database at path and initializes the schema
func New(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return b, nil
}

// initSchema creates the kv table if it doesn't exist
func (b *Backend) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			modified TEXT NOT NULL
		);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Get returns the value stored under key
func (b *Backend) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return value, nil
}

// Set upserts value under key
func (b *Backend) Set(key string, value []byte) error {
	if err := backend.ValidateKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := b.db.Exec(
		`INSERT INTO kv (key, value, modified) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, modified = excluded.modified`,
		key, value, now,
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Delete removes key
func (b *Backend) Delete(key string) error {
	if _, err := b.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return unavailable(err)
	}
	return nil
}

// Keys returns all keys in lexical order
func (b *Backend) Keys() ([]string, error) {
	rows, err := b.db.Query("SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Clear removes every key
func (b *Backend) Clear() error {
	if _, err := b.db.Exec("DELETE FROM kv"); err != nil {
		return unavailable(err)
	}
	return nil
}

// Modified returns when key was last written
func (b *Backend) Modified(key string) (time.Time, error) {
	var modifiedStr string
	err := b.db.QueryRow("SELECT modified FROM kv WHERE key = ?", key).Scan(&modifiedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, backend.ErrNotFound
	}
	if err != nil {
		return time.Time{}, unavailable(err)
	}
	return time.Parse(time.RFC3339Nano, modifiedStr)
}

// Close closes the database connection
func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// unavailable tags driver errors so callers can match backend.ErrUnavailable
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
}

// Verify interface compliance at compile time
var _ backend.Store = (*Backend)(nil)
