package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TradeDescription is the human-facing view of a SwapDescriptor.
type TradeDescription struct {
	OrderLabel     string
	AssetLine      AssetLine
	UnitPriceLine  UnitPriceLine
	TotalPriceLine TotalPriceLine
}

// IsBlank reports whether every field is empty.
func (d TradeDescription) IsBlank() bool {
	return d.OrderLabel == "" && d.AssetLine.IsZero() && d.UnitPriceLine.IsZero() && d.TotalPriceLine.IsZero()
}

// AssetLine renders as "10x [GOLD]".
type AssetLine struct {
	Quantity decimal.Decimal
	Asset    string
}

func (l AssetLine) IsZero() bool {
	return l.Asset == "" && l.Quantity.IsZero()
}

func (l AssetLine) String() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%sx [%s]", l.Quantity.String(), l.Asset)
}

// UnitPriceLine renders as "2x [RVN] per [GOLD]".
type UnitPriceLine struct {
	Price    decimal.Decimal
	Currency string
	Asset    string
}

func (l UnitPriceLine) IsZero() bool {
	return l.Currency == "" && l.Asset == "" && l.Price.IsZero()
}

func (l UnitPriceLine) String() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%sx [%s] per [%s]", l.Price.String(), strings.ToUpper(l.Currency), strings.ToUpper(l.Asset))
}

// TotalPriceLine renders as "20x [RVN]".
type TotalPriceLine struct {
	Price    decimal.Decimal
	Currency string
}

func (l TotalPriceLine) IsZero() bool {
	return l.Currency == "" && l.Price.IsZero()
}

func (l TotalPriceLine) String() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%sx [%s]", l.Price.String(), strings.ToUpper(l.Currency))
}
