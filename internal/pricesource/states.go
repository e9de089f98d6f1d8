package pricesource

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// BookOrder is one resting order inside an order-book snapshot.
type BookOrder struct {
	IsBuy  bool    `json:"is_buy"`
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// IntervalState is auxiliary per-interval state consolidated alongside the
// price series: the market price and order book the maker was quoting at that
// moment. A nil order book (as opposed to an empty one) means the state for
// that interval was not observed.
type IntervalState struct {
	Timestamp   int64       `json:"timestamp"`
	MarketPrice *float64    `json:"market_price,omitempty"`
	OrderBook   []BookOrder `json:"order_book,omitempty"`
}

// ReadStatesFile reads per-interval state snapshots from a newline-delimited
// JSON file, one IntervalState per line. Malformed lines are skipped like the
// file price source does; a missing interval simply stays unobserved.
func ReadStatesFile(path string) ([]IntervalState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open states file: %w", err)
	}
	defer f.Close()

	var states []IntervalState
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var st IntervalState
		if err := json.Unmarshal(scanner.Bytes(), &st); err != nil {
			continue
		}
		states = append(states, st)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read states file: %w", err)
	}
	return states, nil
}

// ConsolidateStates forward-fills missing per-interval state: an interval
// with no observed value inherits the most recent prior interval's. Leading
// intervals with no prior value keep their unknown marker.
func ConsolidateStates(states []IntervalState) []IntervalState {
	var lastPrice *float64
	var lastBook []BookOrder

	out := make([]IntervalState, len(states))
	for i, st := range states {
		if st.OrderBook == nil {
			st.OrderBook = lastBook
		}
		if st.MarketPrice == nil {
			st.MarketPrice = lastPrice
		}
		lastBook = st.OrderBook
		lastPrice = st.MarketPrice
		out[i] = st
	}
	return out
}
