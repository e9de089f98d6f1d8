package types

import "github.com/shopspring/decimal"

// VwapPoint is the trailing-window average price ending at Timestamp, one per
// point of the underlying price series.
type VwapPoint struct {
	Timestamp int64   `json:"timestamp"`
	Vwap      float64 `json:"vwap"`
}

// PnlRecord attributes one trade against the reference price that prevailed
// when it executed. CumulativePnl carries the running total across the full
// ascending trade sequence.
type PnlRecord struct {
	Trade          Trade           `json:"trade"`
	ReferencePrice float64         `json:"reference_price"`
	Pnl            decimal.Decimal `json:"pnl"`
	CumulativePnl  decimal.Decimal `json:"cumulative_pnl"`
}
