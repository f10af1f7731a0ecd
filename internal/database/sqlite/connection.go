/**
 * CONTEXT:   SQLite database connection and schema management for ShiftPlanner
 * INPUT:     Database path, connection configuration, and transaction management
 * OUTPUT:    Production-ready SQLite operations with pooling and embedded schema
 * BUSINESS:  Single-source relational persistence for roster, schedules, and ledger
 * CHANGE:    Initial implementation with WAL mode and busy timeout
 * RISK:      Low - Standard database/sql package with SQLite, proper error handling
 */

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shiftplanner/system/internal/config"
	"github.com/shiftplanner/system/pkg/logger"
)

//go:embed schema.sql
var schemaFS embed.FS

// timestampLayout stores timestamps as RFC3339 text
const timestampLayout = time.RFC3339

// SQLiteDB wraps the database handle and schema lifecycle
type SQLiteDB struct {
	db     *sql.DB
	dbPath string
	log    logger.Logger
}

// NewSQLiteDB opens (creating if needed) the database at the configured
// path and applies the embedded schema
func NewSQLiteDB(cfg config.StorageConfig, log logger.Logger) (*SQLiteDB, error) {
	if log == nil {
		log = logger.NewDefaultLogger("sqlite", "INFO")
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on",
		cfg.DatabasePath, cfg.BusyTimeoutMs)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DatabasePath, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SQLiteDB{db: db, dbPath: cfg.DatabasePath, log: log}
	if err := sdb.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return sdb, nil
}

// initializeSchema applies the embedded schema, which is written to be
// idempotent
func (s *SQLiteDB) initializeSchema(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.log.Debug("schema applied for database %s", s.dbPath)
	return nil
}

// DB exposes the raw handle to repositories in this package
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Ping verifies the connection is alive
func (s *SQLiteDB) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// WithTransaction runs fn inside a transaction, rolling back on error
func (s *SQLiteDB) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %v (rollback also failed: %w)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close shuts the pool down
func (s *SQLiteDB) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// querier abstracts *sql.DB and *sql.Tx so repositories can run inside or
// outside transactions
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
