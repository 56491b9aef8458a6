package driver

import (
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore KeyValueDB backed by an on-disk sqlite database. Default device
// store backend: a single file, no server, CGo-free driver.
type SQLiteStore struct {
	db *sql.DB
}

var _ KeyValueDB = (*SQLiteStore)(nil)

// NewSQLiteStore open (and if needed initialize) the device store file
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS device_store (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Set implement KeyValueDB
func (s *SQLiteStore) Set(key string, value string) error {
	_, err := s.db.Exec(`
INSERT INTO device_store (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Get implement KeyValueDB
func (s *SQLiteStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM device_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	return value, err
}

// Delete implement KeyValueDB
func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM device_store WHERE key = $1`, key)
	return err
}

// Exists implement KeyValueDB
func (s *SQLiteStore) Exists(key string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM device_store WHERE key = $1`, key).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping implement KeyValueDB
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

// Close implement KeyValueDB
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
