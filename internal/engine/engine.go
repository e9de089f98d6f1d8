// Package engine wires the price pipeline together: sources are backfilled
// into one merged reference series, the VWAP series is derived from it, and
// normalized trades are folded against the VWAPs into the PnL report.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"mmstats/internal/pnl"
	"mmstats/internal/pricesource"
	"mmstats/internal/trades"
	"mmstats/types"
)

var (
	ErrNoPriceSource    = errors.New("no price source configured")
	ErrEmptyPriceSeries = errors.New("no reference prices in the requested window")
)

// Engine runs one evaluation over a closed historical window. Everything is
// sequential: batches fetch one after another and the PnL fold is a strict
// left-to-right scan, because the cumulative total depends on order.
type Engine struct {
	Primary     pricesource.Source
	Alternative pricesource.Source
	Normalizer  *trades.Normalizer

	// States are optional per-interval snapshots (market price, order book)
	// consolidated alongside the price series for chart consumers.
	States []pricesource.IntervalState

	VwapMinutes  int
	GapThreshold time.Duration
	ShowProgress bool
}

// Result is everything the presentation adapters consume: the merged series
// with its flagged gaps for charting, the VWAP series, and the trades with
// their PnL attribution.
type Result struct {
	Prices    types.PriceSeries
	Gaps      []types.Gap
	Vwaps     []types.VwapPoint
	VwapStart int64
	Trades    []types.Trade
	Records   []types.PnlRecord
	States    []pricesource.IntervalState
}

// New creates an engine with the default VWAP window and gap threshold.
func New(primary, alternative pricesource.Source, normalizer *trades.Normalizer) *Engine {
	return &Engine{
		Primary:      primary,
		Alternative:  alternative,
		Normalizer:   normalizer,
		VwapMinutes:  240,
		GapThreshold: pricesource.DefaultGapThreshold,
	}
}

// Run evaluates [start, end]: builds and merges the price series, computes
// VWAPs, normalizes fills and attributes PnL. Data errors abort the run; no
// partial report is produced.
func (e *Engine) Run(fills []types.RawFill, start, end int64) (*Result, error) {
	if e.Primary == nil {
		return nil, ErrNoPriceSource
	}

	builder := pricesource.NewBuilder()
	if e.GapThreshold > 0 {
		builder.GapThreshold = e.GapThreshold
	}

	prices, err := e.build(builder, e.Primary, start, end)
	if err != nil {
		return nil, err
	}
	if e.Alternative != nil {
		alternative, err := e.build(builder, e.Alternative, start, end)
		if err != nil {
			return nil, err
		}
		prices = pricesource.Merge(prices, alternative)
	}
	if len(prices) == 0 {
		return nil, ErrEmptyPriceSeries
	}

	var tradeList []types.Trade
	if len(fills) > 0 {
		if e.Normalizer == nil {
			return nil, errors.New("fills given but no pair mapping configured")
		}
		tradeList, err = e.Normalizer.Normalize(fills)
		if err != nil {
			return nil, fmt.Errorf("normalize fills: %w", err)
		}
		trades.SortForPnl(tradeList)
	}

	vwaps := pnl.Vwap(prices, e.VwapMinutes)
	records, err := pnl.Compute(tradeList, vwaps, prices.Start())
	if err != nil {
		return nil, fmt.Errorf("compute pnl: %w", err)
	}

	var states []pricesource.IntervalState
	if len(e.States) > 0 {
		states = pricesource.ConsolidateStates(e.States)
	}

	return &Result{
		Prices:    prices,
		Gaps:      builder.Gaps(prices),
		Vwaps:     vwaps,
		VwapStart: prices.Start(),
		Trades:    tradeList,
		Records:   records,
		States:    states,
	}, nil
}

func (e *Engine) build(builder *pricesource.Builder, src pricesource.Source, start, end int64) (types.PriceSeries, error) {
	if e.ShowProgress {
		bar := initProgressBar(pricesource.NumBatches(src, start, end), src.Name())
		builder.OnBatch = func(done, total int) { bar.Add(1) }
		defer func() {
			bar.Finish()
			builder.OnBatch = nil
		}()
	}
	return builder.Build(src, start, end)
}

func initProgressBar(maxBatches int, source string) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxBatches,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription(fmt.Sprintf("Backfilling %s price history...", source)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
