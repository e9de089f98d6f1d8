package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"mmstats/internal/pricesource"
	"mmstats/internal/trades"
	"mmstats/types"
)

type fixedSource struct {
	name   string
	points types.PriceSeries
}

func (s *fixedSource) Name() string                 { return s.name }
func (s *fixedSource) AlignStart(start int64) int64 { return start }
func (s *fixedSource) BatchSpan() int64             { return 0 }
func (s *fixedSource) FetchBatch(start, end int64) (types.PriceSeries, error) {
	var out types.PriceSeries
	for _, p := range s.points {
		if p.Timestamp >= start && p.Timestamp <= end {
			out = append(out, p)
		}
	}
	return out, nil
}

var (
	account = common.HexToAddress("0x0000000000000000000000000000000000000001")
	taker   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	base    = common.HexToAddress("0x000000000000000000000000000000000000beef")
	quote   = common.HexToAddress("0x000000000000000000000000000000000000cafe")
)

func flatPrices(startTS, endTS, step int64, mid float64) types.PriceSeries {
	var out types.PriceSeries
	for ts := startTS; ts <= endTS; ts += step {
		out = append(out, types.PricePoint{Timestamp: ts, Mid: mid})
	}
	return out
}

func newTestEngine(primary, alternative *fixedSource) *Engine {
	normalizer := &trades.Normalizer{
		Account: account,
		Base:    trades.Asset{Symbol: "WETH", Addresses: []common.Address{base}},
		Quote:   trades.Asset{Symbol: "DAI", Addresses: []common.Address{quote}},
	}
	e := New(primary, nil, normalizer)
	if alternative != nil {
		e.Alternative = alternative
	}
	return e
}

func TestEngineRunEndToEnd(t *testing.T) {
	primary := &fixedSource{name: "stub", points: flatPrices(0, 1200, 60, 100)}
	e := newTestEngine(primary, nil)

	fills := []types.RawFill{{
		Timestamp:   600,
		Maker:       account,
		Taker:       taker,
		MakerToken:  base,
		TakerToken:  quote,
		MakerAmount: decimal.RequireFromString("2"),
		TakerAmount: decimal.RequireFromString("220"),
	}}

	result, err := e.Run(fills, 0, 1200)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Vwaps) != len(result.Prices) {
		t.Errorf("vwap points = %d, want one per price point (%d)", len(result.Vwaps), len(result.Prices))
	}
	if result.VwapStart != 0 {
		t.Errorf("VwapStart = %d, want 0", result.VwapStart)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	// Sold 2 base at 110 against a flat 100 reference.
	if !result.Records[0].Pnl.Equal(decimal.RequireFromString("20")) {
		t.Errorf("pnl = %s, want 20", result.Records[0].Pnl)
	}
}

func TestEngineRunIsDeterministic(t *testing.T) {
	primary := &fixedSource{name: "stub", points: flatPrices(0, 1200, 60, 100)}
	alternative := &fixedSource{name: "alt", points: flatPrices(30, 1200, 60, 101)}

	first, err := newTestEngine(primary, alternative).Run(nil, 0, 1200)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := newTestEngine(primary, alternative).Run(nil, 0, 1200)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical data produced different results")
	}
}

func TestEngineMergesAlternative(t *testing.T) {
	// Primary misses [300, 900]; alternative covers it.
	var primaryPoints types.PriceSeries
	primaryPoints = append(primaryPoints, flatPrices(0, 240, 60, 100)...)
	primaryPoints = append(primaryPoints, flatPrices(960, 1200, 60, 100)...)
	primary := &fixedSource{name: "stub", points: primaryPoints}
	alternative := &fixedSource{name: "alt", points: flatPrices(300, 900, 60, 101)}

	result, err := newTestEngine(primary, alternative).Run(nil, 0, 1200)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Gaps) != 0 {
		t.Errorf("gaps = %v, want none after the alternative fills the hole", result.Gaps)
	}

	// Without the alternative, the hole must surface as exactly one gap.
	result, err = newTestEngine(primary, nil).Run(nil, 0, 1200)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []types.Gap{{Start: 240, End: 960}}
	if !reflect.DeepEqual(result.Gaps, want) {
		t.Errorf("gaps = %v, want %v", result.Gaps, want)
	}
}

func TestEngineConsolidatesStates(t *testing.T) {
	primary := &fixedSource{name: "stub", points: flatPrices(0, 1200, 60, 100)}
	e := newTestEngine(primary, nil)

	price := func(v float64) *float64 { return &v }
	e.States = []pricesource.IntervalState{
		{Timestamp: 0, MarketPrice: price(100)},
		{Timestamp: 60},
	}

	result, err := e.Run(nil, 0, 1200)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	if result.States[1].MarketPrice == nil || *result.States[1].MarketPrice != 100 {
		t.Errorf("state at 60 = %+v, want forward-filled price 100", result.States[1])
	}

	// No states in, no states out.
	result, err = newTestEngine(primary, nil).Run(nil, 0, 1200)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.States != nil {
		t.Errorf("states = %v, want nil without input states", result.States)
	}
}

func TestEngineConfigAndDataErrors(t *testing.T) {
	if _, err := New(nil, nil, nil).Run(nil, 0, 100); !errors.Is(err, ErrNoPriceSource) {
		t.Errorf("Run() without sources error = %v, want ErrNoPriceSource", err)
	}

	empty := &fixedSource{name: "stub"}
	if _, err := New(empty, nil, nil).Run(nil, 0, 100); !errors.Is(err, ErrEmptyPriceSeries) {
		t.Errorf("Run() with empty series error = %v, want ErrEmptyPriceSeries", err)
	}
}
