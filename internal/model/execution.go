package model

import "github.com/shopspring/decimal"

// Execution records a swap that was committed for broadcast.
type Execution struct {
	TxID        string          `json:"txid"`
	NodeTxID    string          `json:"node_txid"`
	TradeType   TradeType       `json:"trade_type"`
	Asset       string          `json:"asset"`
	Quantity    decimal.Decimal `json:"quantity"`
	Currency    string          `json:"currency"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	SubmittedAt string          `json:"submitted_at"`
}
