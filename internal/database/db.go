package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens (creating if needed) the entity database under dataDir
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "collab_o_meter.db")
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// reads dominate; sqlite serializes writers anyway
	pool := NewConnectionPool(db, 16, 4, 5*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			industry TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// kind is one of 'expertise', 'need', 'offer'
		`CREATE TABLE IF NOT EXISTS entity_tags (
			entity_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (entity_id, kind, tag),
			FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS trust_edges (
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			score REAL NOT NULL CHECK (score >= 0 AND score <= 1),
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (from_id, to_id),
			FOREIGN KEY (from_id) REFERENCES entities(id) ON DELETE CASCADE,
			FOREIGN KEY (to_id) REFERENCES entities(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_entity_tags_lookup ON entity_tags(kind, tag)`,
		`CREATE INDEX IF NOT EXISTS idx_trust_edges_to ON trust_edges(to_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements prepares the lookups on the prediction hot path
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"get_entity": `SELECT id, name, industry, country, region, created_at, updated_at
			FROM entities WHERE id = ?`,

		"get_entity_tags": `SELECT kind, tag FROM entity_tags WHERE entity_id = ? ORDER BY kind, tag`,

		"list_candidates": `SELECT id FROM entities WHERE id <> ? ORDER BY id`,

		"find_by_skill": `SELECT entity_id FROM entity_tags
			WHERE kind = 'expertise' AND tag = ? ORDER BY entity_id`,

		"get_trust": `SELECT score FROM trust_edges WHERE from_id = ? AND to_id = ?`,

		// best two-hop path a -> m -> b through a third entity
		"get_indirect_trust": `SELECT MAX(e1.score * e2.score)
			FROM trust_edges e1
			JOIN trust_edges e2 ON e2.from_id = e1.to_id
			WHERE e1.from_id = ? AND e2.to_id = ? AND e1.to_id <> e2.to_id AND e1.to_id <> e1.from_id`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the prepared statements and the database connection
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
