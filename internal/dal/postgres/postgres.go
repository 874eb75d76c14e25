package postgres

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"
)

// Client represents a Postgres client.
type Client struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() {
	p.pool.Close()
}

// MustNewClient creates a new Postgres client from the environment and applies pending migrations.
func MustNewClient() *Client {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("BOOKING_PG_HOST"),
		viper.GetString("postgres.port"),
		os.Getenv("BOOKING_PG_USER"),
		os.Getenv("BOOKING_PG_PASSWORD"),
		os.Getenv("BOOKING_PG_DB"),
	)

	client, err := NewClient(
		context.Background(),
		connStr,
		viper.GetInt32("postgres.max_conns"),
		viper.GetString("postgres.migrations_path"),
	)
	if err != nil {
		panic(err)
	}

	return client
}

// NewClient connects to connStr and applies the migrations found in migrationsPath.
// A maxConns of zero keeps the pool default.
func NewClient(ctx context.Context, connStr string, maxConns int32, migrationsPath string) (*Client, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Run migrations using goose with stdlib adapter
	if err := goose.SetDialect("postgres"); err != nil {
		pool.Close()

		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := goose.UpContext(ctx, db, migrationsPath); err != nil {
		pool.Close()

		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Client{
		pool: pool,
	}, nil
}
