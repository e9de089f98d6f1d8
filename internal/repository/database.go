package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrInstrumentNotFound = errors.New("instrument not found in datasource")
	ErrNoPrices           = errors.New("no prices found in datasource")
)

type instrumentsRepository interface {
	GetInstrumentBySymbol(ctx context.Context, symbol string) (Instrument, error)
}
type pricesRepository interface {
	GetPrices(ctx context.Context, instrumentID int32, start, end time.Time) ([]PriceRow, error)
}

// Database holds the connection pool behind the Postgres-backed price source.
type Database struct {
	instruments instrumentsRepository
	prices      pricesRepository
	conn        *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(dbURL string) (Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return Database{}, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(context.Background()); err != nil {
		return Database{}, err
	}

	q := queries{pool: conn}
	return Database{
		instruments: q,
		prices:      q,
		conn:        conn}, nil
}

// Close releases the underlying pool.
func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
