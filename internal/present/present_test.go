package present

import (
	"testing"

	"github.com/shopspring/decimal"

	"swapexec/internal/model"
)

func TestDescribeSellOrder(t *testing.T) {
	d := &model.SwapDescriptor{
		TradeType:  model.TradeSell,
		Asset:      "GOLD",
		Quantity:   decimal.NewFromInt(10),
		Currency:   "rvn",
		UnitPrice:  decimal.NewFromInt(2),
		TotalPrice: decimal.NewFromInt(20),
	}

	desc := Describe(d)

	if desc.OrderLabel != "Sell Order (You are buying)" {
		t.Fatalf("label mismatch: %q", desc.OrderLabel)
	}
	if got := desc.AssetLine.String(); got != "10x [GOLD]" {
		t.Fatalf("asset line mismatch: %q", got)
	}
	if got := desc.UnitPriceLine.String(); got != "2x [RVN] per [GOLD]" {
		t.Fatalf("unit price line mismatch: %q", got)
	}
	if got := desc.TotalPriceLine.String(); got != "20x [RVN]" {
		t.Fatalf("total price line mismatch: %q", got)
	}
	if desc.UnitPriceLine.Currency != "rvn" {
		t.Fatalf("structured currency should keep original case: %q", desc.UnitPriceLine.Currency)
	}
}

func TestOrderLabels(t *testing.T) {
	cases := map[model.TradeType]string{
		model.TradeBuy:    "Buy Order (You are selling)",
		model.TradeSell:   "Sell Order (You are buying)",
		model.TradeAssets: "Trade Order (You are exchanging assets for other assets)",
		"swap":            "",
	}
	for tt, want := range cases {
		if got := OrderLabel(tt); got != want {
			t.Fatalf("%s: %q != %q", tt, got, want)
		}
	}
}

func TestDescribeOutcomeBlankWhenInvalid(t *testing.T) {
	desc := DescribeOutcome(model.Invalid(model.FailureEmpty, ""))
	if !desc.IsBlank() {
		t.Fatalf("expected blank description: %+v", desc)
	}
	if desc.AssetLine.String() != "" || desc.TotalPriceLine.String() != "" {
		t.Fatalf("blank lines should render empty")
	}
}

func TestValidity(t *testing.T) {
	if got := Validity(model.Valid(&model.SwapDescriptor{})); got != "Yes" {
		t.Fatalf("valid: %q", got)
	}
	if got := Validity(model.Invalid(model.FailureEmpty, "")); got != "No" {
		t.Fatalf("empty: %q", got)
	}
	if got := Validity(model.TimedOut()); got != "No - timed out validating partial transaction" {
		t.Fatalf("timeout: %q", got)
	}
}
