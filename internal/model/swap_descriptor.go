package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TradeType is the direction of a swap from the local wallet's point of view.
type TradeType string

const (
	// TradeBuy means the counterparty is buying, so the local wallet sells.
	TradeBuy TradeType = "buy"
	// TradeSell means the counterparty is selling, so the local wallet buys.
	TradeSell TradeType = "sell"
	// TradeAssets is an exchange of one non-native asset for another.
	TradeAssets TradeType = "trade"
)

// ParseTradeType normalizes a trade type string.
func ParseTradeType(input string) (TradeType, error) {
	switch TradeType(strings.ToLower(strings.TrimSpace(input))) {
	case TradeBuy:
		return TradeBuy, nil
	case TradeSell:
		return TradeSell, nil
	case TradeAssets:
		return TradeAssets, nil
	default:
		return "", fmt.Errorf("unsupported trade type: %q", input)
	}
}

// SwapDescriptor is a decoded, validated partially signed swap. It is never
// mutated after decode.
type SwapDescriptor struct {
	TradeType  TradeType       `json:"trade_type"`
	Asset      string          `json:"asset"`
	Quantity   decimal.Decimal `json:"quantity"`
	Currency   string          `json:"currency"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	// InType is what the local wallet gives up, OutType what it receives.
	InType  string `json:"in_type"`
	OutType string `json:"out_type"`

	TxID        string `json:"txid"`
	Transaction []byte `json:"-"`
}
