package report

import (
	"encoding/json"
	"io"

	"mmstats/internal/pricesource"
	"mmstats/types"
)

type tradeItem struct {
	Datetime     string  `json:"datetime"`
	Timestamp    int64   `json:"timestamp"`
	Type         string  `json:"type"`
	Price        float64 `json:"price"`
	Amount       float64 `json:"amount"`
	Money        float64 `json:"money"`
	Counterparty string  `json:"counterparty"`
}

type pnlItem struct {
	tradeItem
	ReferencePrice float64 `json:"reference_price"`
	Pnl            float64 `json:"pnl"`
	CumulativePnl  float64 `json:"cumulative_pnl"`
}

type document struct {
	Trades []tradeItem                 `json:"trades"`
	Pnl    []pnlItem                   `json:"pnl"`
	Gaps   []types.Gap                 `json:"gaps"`
	States []pricesource.IntervalState `json:"states,omitempty"`
}

func toTradeItem(t types.Trade) tradeItem {
	return tradeItem{
		Datetime:     FormatTimestamp(t.Timestamp),
		Timestamp:    t.Timestamp,
		Type:         side(t),
		Price:        t.Price.InexactFloat64(),
		Amount:       t.Amount.InexactFloat64(),
		Money:        t.Money.InexactFloat64(),
		Counterparty: t.Counterparty.Hex(),
	}
}

// WriteJSON writes the machine-readable report: the trade listing (as given,
// newest first), the PnL attribution in ascending order, the flagged price
// gaps for line-breaking in charts and, when present, the consolidated
// per-interval states.
func WriteJSON(w io.Writer, tradeList []types.Trade, records []types.PnlRecord, gaps []types.Gap, states []pricesource.IntervalState) error {
	doc := document{
		Trades: make([]tradeItem, 0, len(tradeList)),
		Pnl:    make([]pnlItem, 0, len(records)),
		Gaps:   gaps,
		States: states,
	}
	for _, t := range tradeList {
		doc.Trades = append(doc.Trades, toTradeItem(t))
	}
	for _, r := range records {
		doc.Pnl = append(doc.Pnl, pnlItem{
			tradeItem:      toTradeItem(r.Trade),
			ReferencePrice: r.ReferencePrice,
			Pnl:            r.Pnl.InexactFloat64(),
			CumulativePnl:  r.CumulativePnl.InexactFloat64(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(doc)
}
