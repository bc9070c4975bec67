// Package dbmanager manages the PostgreSQL connection pool. Each request is
// served over a single dedicated connection obtained from the pool; the
// connection is not concurrency safe and must be used by one goroutine, which
// matches the server's connection-per-request discipline.
package dbmanager

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"
)

// Pool hands out request-scoped connections to the game database.
type Pool interface {
	// Conn returns a new connection to the database.
	Conn(ctx context.Context) (Conn, error)
	// Stats returns the number of connection requests and returns.
	Stats() (requests, returns uint64)
}

// Conn is a request-scoped database connection.
type Conn interface {
	// Conn returns the underlying *sql.Conn. Do not close this directly;
	// use Close(ctx) to return the connection to the pool.
	Conn() *sql.Conn
	// Close returns the connection back to the pool.
	Close(ctx context.Context)
}

// NewPool creates a connection pool for the given database type. Only
// "postgresql" is supported.
func NewPool(ctx context.Context, dbtype string) Pool {
	switch dbtype {
	case "postgresql":
		pool, err := NewPostgresqlPool()
		if err != nil || pool == nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to create PostgreSQL pool")
			return nil
		}
		return pool
	}
	return nil
}
