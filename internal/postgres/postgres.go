package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/config"
	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// IClient is the narrow surface repositories and services depend on.
type IClient interface {
	// WithTx wraps the given function in a serializable transaction.
	// Nested calls reuse the ambient transaction via savepoints.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Querier returns the ambient transaction if one is open, otherwise
	// the plain connection pool.
	Querier(ctx context.Context) sqlx.ExtContext
}

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Module provides an fx.Option to integrate the postgres client
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			func(db *DB) IClient { return db },
		),
	)
}

// NewDB opens a postgres connection pool from configuration
func NewDB(cfg *config.Configuration, logger *logger.Logger) (*DB, error) {
	db, err := sqlx.Open("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{DB: db, logger: logger}, nil
}

// Querier returns the transaction from context if present, else the pool.
func (db *DB) Querier(ctx context.Context) sqlx.ExtContext {
	if tx, ok := GetTx(ctx); ok {
		return tx
	}
	return db.DB
}
