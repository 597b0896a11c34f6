package core

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// StorageTable is the table SQL storages keep their key/value pairs in.
const StorageTable = "local_storage"

// SchemaManager creates and checks the durable storage schema
type SchemaManager struct {
	db     *sql.DB
	dbType string // "sqlite" or "postgres"
}

// NewSchemaManager creates a new schema manager
func NewSchemaManager(db *sql.DB, dbType string) *SchemaManager {
	return &SchemaManager{
		db:     db,
		dbType: dbType,
	}
}

// EnsureCoreSchema creates the storage table when it is missing
func (sm *SchemaManager) EnsureCoreSchema() error {
	exists, err := sm.tableExists(StorageTable)
	if err != nil {
		return fmt.Errorf("failed to check if table %s exists: %w", StorageTable, err)
	}
	if exists {
		slog.Debug("Storage schema present", "database_type", sm.dbType)
		return nil
	}

	return sm.ExecuteCoreSchema()
}

// ExecuteCoreSchema executes the core schema SQL to create tables
func (sm *SchemaManager) ExecuteCoreSchema() error {
	var schemaFile string

	switch sm.dbType {
	case "sqlite":
		schemaFile = "sql/sqlite_core.sql"
	case "postgres":
		schemaFile = "sql/postgres_core.sql"
	default:
		return fmt.Errorf("unsupported database type: %s", sm.dbType)
	}

	schemaSQL, err := schemaFiles.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema file %s: %w", schemaFile, err)
	}

	if _, err := sm.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute core schema: %w", err)
	}

	slog.Debug("Storage schema created", "database_type", sm.dbType)
	return nil
}

// tableExists checks if a table exists in the database
func (sm *SchemaManager) tableExists(tableName string) (bool, error) {
	var query string

	switch sm.dbType {
	case "sqlite":
		query = `SELECT name FROM sqlite_master WHERE type='table' AND name = ?`
	case "postgres":
		query = `SELECT table_name FROM information_schema.tables
		         WHERE table_schema = current_schema() AND table_name = $1`
	default:
		return false, fmt.Errorf("unsupported database type: %s", sm.dbType)
	}

	var foundTable string
	err := sm.db.QueryRow(query, tableName).Scan(&foundTable)

	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, err
	}

	return foundTable == tableName, nil
}
