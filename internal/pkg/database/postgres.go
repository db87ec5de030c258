package database

import (
	"database/sql"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// NewPostgresDB opens a PostgreSQL connection for the player registry
// and verifies it with a ping.
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
