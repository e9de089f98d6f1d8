package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Instrument is one priced instrument row.
type Instrument struct {
	ID     int32
	Symbol string
}

// PriceRow is one one-minute candle bucket as stored.
type PriceRow struct {
	Bucket time.Time
	Low    decimal.Decimal
	High   decimal.Decimal
	Volume decimal.Decimal
}

type queries struct {
	pool *pgxpool.Pool
}

func (q queries) GetInstrumentBySymbol(ctx context.Context, symbol string) (Instrument, error) {
	var inst Instrument
	err := q.pool.QueryRow(ctx,
		`SELECT id, symbol FROM instruments WHERE symbol = $1`, symbol,
	).Scan(&inst.ID, &inst.Symbol)
	if err != nil {
		return Instrument{}, err
	}
	return inst, nil
}

func (q queries) GetPrices(ctx context.Context, instrumentID int32, start, end time.Time) ([]PriceRow, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT bucket, low, high, volume
		   FROM candles
		  WHERE instrument_id = $1 AND bucket >= $2 AND bucket <= $3
		  ORDER BY bucket`,
		instrumentID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceRow
	for rows.Next() {
		var r PriceRow
		if err := rows.Scan(&r.Bucket, &r.Low, &r.High, &r.Volume); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
