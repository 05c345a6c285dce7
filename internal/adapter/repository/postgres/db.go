package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection pool.
type DB struct {
	*sql.DB
}

// NewDB opens a connection pool and verifies it with a ping.
// connStr format: "host=localhost port=5432 user=trader password=... dbname=stocksim sslmode=disable"
func NewDB(connStr string) (*DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{DB: db}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.DB.Close()
}
