package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RawFill is one on-chain fill event, already mapped out of its log encoding.
// The maker side gave MakerAmount of MakerToken, the taker side gave
// TakerAmount of TakerToken.
type RawFill struct {
	Timestamp   int64           `json:"timestamp"`
	Maker       common.Address  `json:"maker"`
	Taker       common.Address  `json:"taker"`
	MakerToken  common.Address  `json:"maker_token"`
	TakerToken  common.Address  `json:"taker_token"`
	MakerAmount decimal.Decimal `json:"maker_amount"`
	TakerAmount decimal.Decimal `json:"taker_amount"`
}

// Trade is a fill normalized to the analyzed pair: price is quote-per-base,
// amount is the base quantity, money is the quote quantity (price * amount).
// Exactly one of IsBuy/IsSell is set. Monetary fields use decimals so that
// thousands of small fills do not accumulate float error.
type Trade struct {
	Timestamp    int64           `json:"timestamp"`
	Price        decimal.Decimal `json:"price"`
	Amount       decimal.Decimal `json:"amount"`
	Money        decimal.Decimal `json:"money"`
	IsBuy        bool            `json:"is_buy"`
	IsSell       bool            `json:"is_sell"`
	Counterparty common.Address  `json:"counterparty"`
}
