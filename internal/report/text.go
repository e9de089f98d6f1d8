// Package report renders engine output for its two consumers: aligned text
// tables for terminals and a JSON document for machine consumers (including
// the chart renderer, which takes the series, gaps and cumulative PnL as its
// input contract).
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"mmstats/types"
)

// FormatTimestamp renders a unix timestamp for tables, always in UTC.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

func side(t types.Trade) string {
	if t.IsSell {
		return "Sell"
	}
	return "Buy"
}

// WriteTradesTable writes the trade history listing, newest first. Callers
// sort with trades.SortForListing before calling.
func WriteTradesTable(w io.Writer, tradeList []types.Trade, baseSymbol, quoteSymbol string) error {
	fmt.Fprintf(w, "Trade history on the %s/%s pair:\n\n", baseSymbol, quoteSymbol)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Date/time\tType\tPrice\tAmount in %s\tValue in %s\tCounterparty\t\n", baseSymbol, quoteSymbol)
	for _, t := range tradeList {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			FormatTimestamp(t.Timestamp), side(t),
			t.Price.StringFixed(8), t.Amount.StringFixed(8), t.Money.StringFixed(8),
			t.Counterparty.Hex())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nNumber of trades: %d\n", len(tradeList))
	fmt.Fprintf(w, "Generated at: %s\n", FormatTimestamp(time.Now().Unix()))
	return nil
}

// WritePnlTable writes the per-trade PnL attribution in ascending order with
// a running total and a totals footer.
func WritePnlTable(w io.Writer, records []types.PnlRecord, baseSymbol, quoteSymbol string, vwapMinutes int) error {
	fmt.Fprintf(w, "PnL on the %s/%s pair (%d minute rolling VWAP as reference):\n\n", baseSymbol, quoteSymbol, vwapMinutes)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Date/time\tType\tPrice\tAmount in %s\tVWAP\tPnL in %s\tCumulative\t\n", baseSymbol, quoteSymbol)
	total := decimal.Zero
	for _, r := range records {
		total = r.CumulativePnl
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.8f\t%s\t%s\t\n",
			FormatTimestamp(r.Trade.Timestamp), side(r.Trade),
			r.Trade.Price.StringFixed(8), r.Trade.Amount.StringFixed(8),
			r.ReferencePrice, r.Pnl.StringFixed(8), r.CumulativePnl.StringFixed(8))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nNumber of trades: %d\n", len(records))
	fmt.Fprintf(w, "Total PnL in %s: %s\n", quoteSymbol, total.StringFixed(8))
	fmt.Fprintf(w, "Generated at: %s\n", FormatTimestamp(time.Now().Unix()))
	return nil
}
