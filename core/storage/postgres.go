package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/tony0935929660/match-platform-web-sub000/core"
)

// PostgresStorage keeps the durable session slots in PostgreSQL, for
// clients that share one profile database.
type PostgresStorage struct {
	db        *sql.DB
	namespace string
	timeout   time.Duration
}

var _ core.Storage = (*PostgresStorage)(nil)

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(databaseDSN string, opts ...Option) (*PostgresStorage, error) {
	config, err := pgx.ParseConfig(databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	db := stdlib.OpenDB(*config)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s, err := NewPostgresStorageFromDB(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStorageFromDB creates a new PostgreSQL storage from an existing database connection
func NewPostgresStorageFromDB(db *sql.DB, opts ...Option) (*PostgresStorage, error) {
	o := newOptions(opts)

	schemaManager := core.NewSchemaManager(db, "postgres")
	if err := schemaManager.EnsureCoreSchema(); err != nil {
		return nil, fmt.Errorf("failed to ensure core schema: %w", err)
	}

	return &PostgresStorage{db: db, namespace: o.namespace, timeout: o.timeout}, nil
}

func (p *PostgresStorage) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var value string
	query := `SELECT value FROM local_storage WHERE namespace = $1 AND key = $2`

	err := p.db.QueryRowContext(ctx, query, p.namespace, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, true, nil
}

func (p *PostgresStorage) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	query := `INSERT INTO local_storage (namespace, key, value, updated_at)
			  VALUES ($1, $2, $3, NOW())
			  ON CONFLICT (namespace, key) DO UPDATE
			  SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := p.db.ExecContext(ctx, query, p.namespace, key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStorage) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	query := `DELETE FROM local_storage WHERE namespace = $1 AND key = $2`

	if _, err := p.db.ExecContext(ctx, query, p.namespace, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}
