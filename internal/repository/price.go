package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"mmstats/types"
)

// GetPrices loads the one-minute candle buckets for symbol inside [start, end]
// and converts them to price points, using the low/high midpoint as the market
// price like the HTTP candle source does.
func (db *Database) GetPrices(symbol string, start, end time.Time, ctx context.Context) (types.PriceSeries, error) {
	inst, err := db.instruments.GetInstrumentBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInstrumentNotFound
		}
		return nil, err
	}

	rows, err := db.prices.GetPrices(ctx, inst.ID, start, end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPrices
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoPrices
	}
	return convertPrices(rows), nil
}

func convertPrices(rows []PriceRow) types.PriceSeries {
	series := make(types.PriceSeries, 0, len(rows))
	for _, r := range rows {
		low := r.Low.InexactFloat64()
		high := r.High.InexactFloat64()
		volume := r.Volume.InexactFloat64()
		series = append(series, types.PricePoint{
			Timestamp: r.Bucket.Unix(),
			Mid:       (low + high) / 2,
			Low:       &low,
			High:      &high,
			Volume:    &volume,
		})
	}
	return series
}
