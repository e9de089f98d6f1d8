package repository

import (
	"context"
	"time"

	"mmstats/types"
)

// Source adapts the database to the price pipeline. The store is local, so
// there is no batching: the whole window is read in one query.
type Source struct {
	db     *Database
	symbol string
}

// Source returns a price source reading the given instrument's candles.
func (db *Database) Source(symbol string) *Source {
	return &Source{db: db, symbol: symbol}
}

func (s *Source) Name() string { return "postgres" }

func (s *Source) AlignStart(start int64) int64 { return start }

func (s *Source) BatchSpan() int64 { return 0 }

func (s *Source) FetchBatch(start, end int64) (types.PriceSeries, error) {
	return s.db.GetPrices(s.symbol, time.Unix(start, 0).UTC(), time.Unix(end, 0).UTC(), context.Background())
}
