package recorder

import (
	"github.com/shopspring/decimal"

	"mmstats/types"
)

// RunSummary holds the header row for one completed evaluation.
type RunSummary struct {
	Start       int64
	End         int64
	Pair        string
	VwapMinutes int
	TradeCount  int
	TotalPnl    decimal.Decimal
}

// Recorder persists completed runs for later inspection.
type Recorder interface {
	RecordRun(sum *RunSummary, records []types.PnlRecord) error
	Close() error
}
