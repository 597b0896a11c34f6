package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/tony0935929660/match-platform-web-sub000/core"
)

// SQLiteStorage is a file-backed durable storage, the closest thing to
// browser local storage for a desktop or CLI client.
type SQLiteStorage struct {
	db        *sql.DB
	namespace string
}

var _ core.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	s, err := NewSQLiteStorageFromDB(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStorageFromDB creates a new SQLite storage from an existing database connection
func NewSQLiteStorageFromDB(db *sql.DB, opts ...Option) (*SQLiteStorage, error) {
	o := newOptions(opts)

	schemaManager := core.NewSchemaManager(db, "sqlite")
	if err := schemaManager.EnsureCoreSchema(); err != nil {
		return nil, fmt.Errorf("failed to ensure core schema: %w", err)
	}

	return &SQLiteStorage{db: db, namespace: o.namespace}, nil
}

// NewInMemorySQLiteStorage creates a new in-memory SQLite storage instance for testing
func NewInMemorySQLiteStorage(opts ...Option) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory SQLite database: %w", err)
	}
	// every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)

	return NewSQLiteStorageFromDB(db, opts...)
}

func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	var value string
	query := `SELECT value FROM local_storage WHERE namespace = ? AND key = ?`

	err := s.db.QueryRow(query, s.namespace, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, true, nil
}

func (s *SQLiteStorage) Set(key, value string) error {
	query := `INSERT INTO local_storage (namespace, key, value, updated_at)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT (namespace, key) DO UPDATE
			  SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.db.Exec(query, s.namespace, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Remove(key string) error {
	query := `DELETE FROM local_storage WHERE namespace = ? AND key = ?`

	if _, err := s.db.Exec(query, s.namespace, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
