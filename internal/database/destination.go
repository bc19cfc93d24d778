package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"notisync/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// Dialect selects placeholder style, DDL fragments and upsert syntax
// for the destination database.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// Destination is the pooled connection to the mirror database. The pool is
// safe for concurrent use across owners; schema mutation on one table is
// serialized higher up.
type Destination struct {
	DB      *sql.DB
	Dialect Dialect
}

// NewDestination opens the destination pool with lifecycle management.
func NewDestination(lc fx.Lifecycle, cfg *config.Config) (*Destination, error) {
	dialect := Dialect(cfg.DestDriver)
	switch dialect {
	case DialectMySQL, DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported destination driver: %s", cfg.DestDriver)
	}

	db, err := sql.Open(string(dialect), cfg.DestDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("failed to ping destination: %w", err)
			}
			log.Println("Connected to destination database!")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return &Destination{DB: db, Dialect: dialect}, nil
}

// Placeholder returns the bind placeholder for a 1-based argument index.
func (d *Destination) Placeholder(index int) string {
	if d.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", index)
	}
	return "?"
}
