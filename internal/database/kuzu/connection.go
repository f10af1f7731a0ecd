/**
 * CONTEXT:   KuzuDB connection management for the schedule analytics store
 * INPUT:     Database path, pool size, and transaction requirements
 * OUTPUT:    Thread-safe connection pooling with resource cleanup
 * BUSINESS:  Graph-backed history queries power rotation and screener analytics
 * CHANGE:    Initial implementation with connection pooling and transaction support
 * RISK:      Medium - Database connections require careful resource management
 */

package kuzu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kuzudb/go-kuzu"
)

// ConnectionConfig holds configuration for KuzuDB connections
type ConnectionConfig struct {
	DatabasePath   string        `json:"database_path"`
	MaxConnections int           `json:"max_connections"`
	QueryTimeout   time.Duration `json:"query_timeout"`
}

// DefaultConnectionConfig returns sensible defaults for the analytics
// store
func DefaultConnectionConfig(path string) ConnectionConfig {
	return ConnectionConfig{
		DatabasePath:   path,
		MaxConnections: 4,
		QueryTimeout:   60 * time.Second,
	}
}

// ConnectionManager pools KuzuDB connections
type ConnectionManager struct {
	config      ConnectionConfig
	database    *kuzu.Database
	connections chan *kuzu.Connection
	mu          sync.RWMutex
	closed      bool
}

// NewConnectionManager opens the database and pre-populates the pool
func NewConnectionManager(config ConnectionConfig) (*ConnectionManager, error) {
	if config.DatabasePath == "" {
		return nil, fmt.Errorf("analytics database path cannot be empty")
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = 4
	}

	db, err := kuzu.OpenDatabase(config.DatabasePath, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open KuzuDB database at %s: %w", config.DatabasePath, err)
	}

	manager := &ConnectionManager{
		config:      config,
		database:    db,
		connections: make(chan *kuzu.Connection, config.MaxConnections),
	}

	for i := 0; i < config.MaxConnections; i++ {
		conn, err := kuzu.OpenConnection(db)
		if err != nil {
			manager.Close()
			return nil, fmt.Errorf("failed to create KuzuDB connection %d: %w", i, err)
		}
		manager.connections <- conn
	}
	return manager, nil
}

// acquire takes a connection from the pool, honoring context cancellation
func (cm *ConnectionManager) acquire(ctx context.Context) (*kuzu.Connection, error) {
	cm.mu.RLock()
	if cm.closed {
		cm.mu.RUnlock()
		return nil, fmt.Errorf("connection manager is closed")
	}
	cm.mu.RUnlock()

	select {
	case conn := <-cm.connections:
		return conn, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("connection acquisition cancelled: %w", ctx.Err())
	}
}

func (cm *ConnectionManager) release(conn *kuzu.Connection) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.closed {
		conn.Close()
		return
	}
	cm.connections <- conn
}

// Query runs one Cypher statement against a pooled connection
func (cm *ConnectionManager) Query(ctx context.Context, query string) (*kuzu.QueryResult, error) {
	conn, err := cm.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cm.release(conn)

	result, err := conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	return result, nil
}

// WithTransaction runs fn inside a transaction with rollback on error
func (cm *ConnectionManager) WithTransaction(ctx context.Context, fn func(conn *kuzu.Connection) error) error {
	conn, err := cm.acquire(ctx)
	if err != nil {
		return err
	}
	defer cm.release(conn)

	if _, err := conn.Query("BEGIN TRANSACTION;"); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(conn); err != nil {
		if _, rbErr := conn.Query("ROLLBACK;"); rbErr != nil {
			return fmt.Errorf("transaction failed and rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if _, err := conn.Query("COMMIT;"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HealthCheck verifies the store answers a trivial query
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	result, err := cm.Query(ctx, "RETURN 1;")
	if err != nil {
		return fmt.Errorf("analytics store health check failed: %w", err)
	}
	result.Close()
	return nil
}

// Close drains the pool and closes the database
func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.closed {
		return nil
	}
	cm.closed = true

	close(cm.connections)
	for conn := range cm.connections {
		conn.Close()
	}
	if cm.database != nil {
		cm.database.Close()
	}
	return nil
}
