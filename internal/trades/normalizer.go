// Package trades converts raw on-chain fill records into canonical trades for
// the analyzed pair, and orders them for their two consumers: ascending for
// the PnL fold, descending for trade listings.
package trades

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"mmstats/types"
)

// ErrUnmappedAsset signals a fill touching a token outside the configured
// pair. Attribution must be complete, so this is fatal rather than skipped.
var ErrUnmappedAsset = errors.New("fill references a token outside the configured pair")

// Asset is one logical pair asset together with every concrete address it has
// lived at. Several addresses map to the same asset during token migrations
// (the old vs current contract case).
type Asset struct {
	Symbol    string
	Addresses []common.Address
}

// Has reports whether addr is one of the asset's configured addresses.
func (a Asset) Has(addr common.Address) bool {
	for _, candidate := range a.Addresses {
		if candidate == addr {
			return true
		}
	}
	return false
}

// Normalizer classifies fills relative to one market-maker account and one
// base/quote role mapping.
type Normalizer struct {
	Account common.Address
	Base    Asset
	Quote   Asset
}

// Normalize converts every fill the account took part in. The account can
// appear as the resting order's maker or as the incoming taker; both roles
// collapse to the same directional semantics: giving base for quote is a
// sell, the reverse is a buy. Fills not involving the account are ignored;
// fills involving an unmapped token abort the run.
func (n *Normalizer) Normalize(fills []types.RawFill) ([]types.Trade, error) {
	var out []types.Trade
	for _, fill := range fills {
		trade, involved, err := n.normalizeFill(fill)
		if err != nil {
			return nil, err
		}
		if involved {
			out = append(out, trade)
		}
	}
	return out, nil
}

func (n *Normalizer) normalizeFill(fill types.RawFill) (types.Trade, bool, error) {
	var gaveToken, receivedToken common.Address
	var gaveAmount, receivedAmount decimal.Decimal
	var counterparty common.Address

	switch n.Account {
	case fill.Maker:
		gaveToken, gaveAmount = fill.MakerToken, fill.MakerAmount
		receivedToken, receivedAmount = fill.TakerToken, fill.TakerAmount
		counterparty = fill.Taker
	case fill.Taker:
		gaveToken, gaveAmount = fill.TakerToken, fill.TakerAmount
		receivedToken, receivedAmount = fill.MakerToken, fill.MakerAmount
		counterparty = fill.Maker
	default:
		return types.Trade{}, false, nil
	}

	trade := types.Trade{Timestamp: fill.Timestamp, Counterparty: counterparty}
	switch {
	case n.Base.Has(gaveToken) && n.Quote.Has(receivedToken):
		// Gave base, received quote: sold base.
		trade.IsSell = true
		trade.Amount = gaveAmount
		trade.Money = receivedAmount
	case n.Quote.Has(gaveToken) && n.Base.Has(receivedToken):
		trade.IsBuy = true
		trade.Amount = receivedAmount
		trade.Money = gaveAmount
	default:
		return types.Trade{}, false, fmt.Errorf("%w: gave %s, received %s",
			ErrUnmappedAsset, gaveToken.Hex(), receivedToken.Hex())
	}

	if trade.Amount.IsZero() {
		return types.Trade{}, false, fmt.Errorf("fill at %d has zero base amount", fill.Timestamp)
	}
	trade.Price = trade.Money.Div(trade.Amount)
	return trade, true, nil
}

// SortForPnl orders trades ascending by timestamp, the order the PnL fold
// requires.
func SortForPnl(trades []types.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp < trades[j].Timestamp
	})
}

// SortForListing orders trades descending by timestamp, newest first, for
// trade history output.
func SortForListing(trades []types.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp > trades[j].Timestamp
	})
}
