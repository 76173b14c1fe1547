// Package present maps validated swaps to the fields shown to the user.
package present

import (
	"swapexec/internal/model"
)

const (
	LabelBuy   = "Buy Order (You are selling)"
	LabelSell  = "Sell Order (You are buying)"
	LabelTrade = "Trade Order (You are exchanging assets for other assets)"
)

// Describe builds the trade description for a validated descriptor.
func Describe(d *model.SwapDescriptor) model.TradeDescription {
	if d == nil {
		return model.TradeDescription{}
	}
	return model.TradeDescription{
		OrderLabel: OrderLabel(d.TradeType),
		AssetLine: model.AssetLine{
			Quantity: d.Quantity,
			Asset:    d.Asset,
		},
		UnitPriceLine: model.UnitPriceLine{
			Price:    d.UnitPrice,
			Currency: d.Currency,
			Asset:    d.Asset,
		},
		TotalPriceLine: model.TotalPriceLine{
			Price:    d.TotalPrice,
			Currency: d.Currency,
		},
	}
}

// DescribeOutcome returns a blank description unless o is valid.
func DescribeOutcome(o model.Outcome) model.TradeDescription {
	if !o.IsValid() {
		return model.TradeDescription{}
	}
	return Describe(o.Descriptor)
}

func OrderLabel(t model.TradeType) string {
	switch t {
	case model.TradeBuy:
		return LabelBuy
	case model.TradeSell:
		return LabelSell
	case model.TradeAssets:
		return LabelTrade
	default:
		return ""
	}
}

// Validity renders the "Valid" line: "Yes", "No" or "No - <reason>".
func Validity(o model.Outcome) string {
	switch {
	case o.IsValid():
		return "Yes"
	case o.Status == model.StatusPending:
		return "Checking"
	case o.Reason == "":
		return "No"
	default:
		return "No - " + o.Reason
	}
}
