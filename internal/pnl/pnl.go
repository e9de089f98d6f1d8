package pnl

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"mmstats/types"
)

// Data errors. PnL correctness depends on complete attribution, so these are
// fatal: no partial report is ever produced.
var (
	ErrNoDirection      = errors.New("trade is neither a buy nor a sell")
	ErrAmbiguousSide    = errors.New("trade is flagged both buy and sell")
	ErrTradesUnsorted   = errors.New("trades are not sorted ascending")
	ErrNoReferencePrice = errors.New("no reference price at trade time")
)

// Compute walks trades in ascending time order against the VWAP series.
// Trades earlier than seriesStart have no reference price and are excluded.
// The reference for each remaining trade is the VWAP point with the latest
// timestamp not exceeding the trade's: last observation carried forward,
// never interpolated, never looked ahead.
//
// A sell above reference is a gain, a buy below reference is a gain; pnl is
// the signed price difference scaled by the base amount, in exact decimals.
func Compute(trades []types.Trade, vwaps []types.VwapPoint, seriesStart int64) ([]types.PnlRecord, error) {
	records := make([]types.PnlRecord, 0, len(trades))
	cumulative := decimal.Zero
	idx := 0
	var prev int64

	for _, trade := range trades {
		if trade.Timestamp < prev {
			return nil, ErrTradesUnsorted
		}
		prev = trade.Timestamp

		if trade.Timestamp < seriesStart {
			continue
		}

		switch {
		case trade.IsBuy && trade.IsSell:
			return nil, fmt.Errorf("%w: trade at %d", ErrAmbiguousSide, trade.Timestamp)
		case !trade.IsBuy && !trade.IsSell:
			return nil, fmt.Errorf("%w: trade at %d", ErrNoDirection, trade.Timestamp)
		}

		for idx+1 < len(vwaps) && vwaps[idx+1].Timestamp <= trade.Timestamp {
			idx++
		}
		if len(vwaps) == 0 || vwaps[idx].Timestamp > trade.Timestamp {
			return nil, fmt.Errorf("%w: trade at %d precedes first vwap point", ErrNoReferencePrice, trade.Timestamp)
		}
		reference := vwaps[idx].Vwap
		referenceDec := decimal.NewFromFloat(reference)

		var value decimal.Decimal
		if trade.IsSell {
			value = trade.Price.Sub(referenceDec).Mul(trade.Amount)
		} else {
			value = referenceDec.Sub(trade.Price).Mul(trade.Amount)
		}
		cumulative = cumulative.Add(value)

		records = append(records, types.PnlRecord{
			Trade:          trade,
			ReferencePrice: reference,
			Pnl:            value,
			CumulativePnl:  cumulative,
		})
	}
	return records, nil
}
