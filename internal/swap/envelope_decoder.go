package swap

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"swapexec/internal/model"
)

// AmountDecimals is the number of decimal places carried by envelope amounts.
const AmountDecimals = 8

const selectorLen = 4

var tradeTypeCodes = map[uint8]model.TradeType{
	0: model.TradeBuy,
	1: model.TradeSell,
	2: model.TradeAssets,
}

// EnvelopeDecoder decodes ABI-encoded swap envelopes carrying a partially
// signed UTXO transaction.
type EnvelopeDecoder struct {
	method abi.Method
}

// NewEnvelopeDecoder builds an envelope decoder.
func NewEnvelopeDecoder() (*EnvelopeDecoder, error) {
	parsed, err := EnvelopeABI()
	if err != nil {
		return nil, fmt.Errorf("parse envelope abi: %w", err)
	}
	method, ok := parsed.Methods[swapOrderMethod]
	if !ok {
		return nil, fmt.Errorf("envelope abi missing %s", swapOrderMethod)
	}
	return &EnvelopeDecoder{method: method}, nil
}

// Parse decodes and validates rawHex.
func (d *EnvelopeDecoder) Parse(ctx context.Context, rawHex string, wallet WalletContext) (*model.SwapDescriptor, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := decodeHex(rawHex)
	if err != nil {
		return nil, err
	}
	if len(data) < selectorLen {
		return nil, decodeErrorf(KindMalformed, "payload too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:selectorLen], d.method.ID) {
		return nil, decodeErrorf(KindEnvelope, "unknown envelope selector %s", hexutil.Encode(data[:selectorLen]))
	}

	values, err := d.method.Inputs.Unpack(data[selectorLen:])
	if err != nil {
		return nil, decodeErrorf(KindEnvelope, "unpack envelope: %v", err)
	}
	if len(values) != len(d.method.Inputs) {
		return nil, decodeErrorf(KindEnvelope, "unexpected envelope values: %d", len(values))
	}

	desc, err := descriptorFromValues(values)
	if err != nil {
		return nil, err
	}
	if err := validateTerms(desc, wallet); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txid, err := transactionID(desc.Transaction)
	if err != nil {
		return nil, err
	}
	desc.TxID = txid

	return desc, nil
}

func decodeHex(rawHex string) ([]byte, error) {
	text := strings.TrimSpace(rawHex)
	if text == "" {
		return nil, decodeErrorf(KindMalformed, "empty payload")
	}
	if !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
		text = "0x" + text
	}
	data, err := hexutil.Decode(text)
	if err != nil {
		return nil, decodeErrorf(KindMalformed, "invalid hex: %v", err)
	}
	return data, nil
}

func descriptorFromValues(values []interface{}) (*model.SwapDescriptor, error) {
	code, ok := values[0].(uint8)
	if !ok {
		return nil, decodeErrorf(KindEnvelope, "unsupported trade type value %T", values[0])
	}
	tradeType, ok := tradeTypeCodes[code]
	if !ok {
		return nil, decodeErrorf(KindTerms, "unknown trade type code %d", code)
	}

	strs := make([]string, 0, 4)
	for _, idx := range []int{1, 3, 6, 7} {
		s, ok := values[idx].(string)
		if !ok {
			return nil, decodeErrorf(KindEnvelope, "unsupported string value %T", values[idx])
		}
		strs = append(strs, strings.TrimSpace(s))
	}

	amounts := make([]decimal.Decimal, 0, 3)
	for _, idx := range []int{2, 4, 5} {
		v, ok := values[idx].(*big.Int)
		if !ok {
			return nil, decodeErrorf(KindEnvelope, "unsupported amount value %T", values[idx])
		}
		amounts = append(amounts, decimal.NewFromBigInt(v, -AmountDecimals))
	}

	tx, ok := values[8].([]byte)
	if !ok {
		return nil, decodeErrorf(KindEnvelope, "unsupported transaction value %T", values[8])
	}

	return &model.SwapDescriptor{
		TradeType:   tradeType,
		Asset:       strs[0],
		Quantity:    amounts[0],
		Currency:    strs[1],
		UnitPrice:   amounts[1],
		TotalPrice:  amounts[2],
		InType:      strs[2],
		OutType:     strs[3],
		Transaction: append([]byte(nil), tx...),
	}, nil
}

func validateTerms(d *model.SwapDescriptor, wallet WalletContext) error {
	switch {
	case d.Asset == "":
		return decodeErrorf(KindTerms, "missing asset")
	case d.Currency == "":
		return decodeErrorf(KindTerms, "missing currency")
	case d.InType == "" || d.OutType == "":
		return decodeErrorf(KindTerms, "missing in/out type")
	case !d.Quantity.IsPositive():
		return decodeErrorf(KindTerms, "quantity must be positive")
	}

	expected := d.Quantity.Mul(d.UnitPrice).Round(AmountDecimals)
	if !expected.Equal(d.TotalPrice) {
		return decodeErrorf(KindTerms, "total price %s does not match %s x %s", d.TotalPrice, d.Quantity, d.UnitPrice)
	}

	switch d.TradeType {
	case model.TradeBuy, model.TradeSell:
		if wallet.NativeAsset != "" && !strings.EqualFold(d.Currency, wallet.NativeAsset) {
			return decodeErrorf(KindTerms, "%s order must be priced in %s, got %s", d.TradeType, wallet.NativeAsset, d.Currency)
		}
		give, get := d.Currency, d.Asset
		if d.TradeType == model.TradeBuy {
			give, get = d.Asset, d.Currency
		}
		if !strings.EqualFold(d.InType, give) || !strings.EqualFold(d.OutType, get) {
			return decodeErrorf(KindTerms, "%s order exchanges %s for %s, got %s for %s", d.TradeType, give, get, d.InType, d.OutType)
		}
	case model.TradeAssets:
		forward := strings.EqualFold(d.InType, d.Currency) && strings.EqualFold(d.OutType, d.Asset)
		backward := strings.EqualFold(d.InType, d.Asset) && strings.EqualFold(d.OutType, d.Currency)
		if !forward && !backward {
			return decodeErrorf(KindTerms, "trade order must exchange %s and %s", d.Asset, d.Currency)
		}
	}
	return nil
}

func transactionID(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", decodeErrorf(KindTransaction, "missing transaction")
	}
	reader := bytes.NewReader(raw)
	var tx wire.MsgTx
	if err := tx.Deserialize(reader); err != nil {
		return "", decodeErrorf(KindTransaction, "deserialize transaction: %v", err)
	}
	if reader.Len() != 0 {
		return "", decodeErrorf(KindTransaction, "transaction has %d trailing bytes", reader.Len())
	}
	if len(tx.TxIn) == 0 || len(tx.TxOut) == 0 {
		return "", decodeErrorf(KindTransaction, "transaction needs inputs and outputs")
	}
	return tx.TxHash().String(), nil
}

// EncodeEnvelope packs a descriptor into envelope hex (0x-prefixed).
func EncodeEnvelope(d *model.SwapDescriptor) (string, error) {
	if d == nil {
		return "", fmt.Errorf("descriptor is nil")
	}
	parsed, err := EnvelopeABI()
	if err != nil {
		return "", fmt.Errorf("parse envelope abi: %w", err)
	}

	var code uint8
	found := false
	for c, tt := range tradeTypeCodes {
		if tt == d.TradeType {
			code, found = c, true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("unsupported trade type: %q", d.TradeType)
	}

	quantity, err := baseUnits(d.Quantity)
	if err != nil {
		return "", fmt.Errorf("quantity: %w", err)
	}
	unitPrice, err := baseUnits(d.UnitPrice)
	if err != nil {
		return "", fmt.Errorf("unit price: %w", err)
	}
	totalPrice, err := baseUnits(d.TotalPrice)
	if err != nil {
		return "", fmt.Errorf("total price: %w", err)
	}

	data, err := parsed.Pack(swapOrderMethod,
		code,
		d.Asset,
		quantity,
		d.Currency,
		unitPrice,
		totalPrice,
		d.InType,
		d.OutType,
		d.Transaction,
	)
	if err != nil {
		return "", fmt.Errorf("pack envelope: %w", err)
	}
	return hexutil.Encode(data), nil
}

func baseUnits(value decimal.Decimal) (*big.Int, error) {
	if value.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", value)
	}
	shifted := value.Shift(AmountDecimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %s exceeds %d decimals", value, AmountDecimals)
	}
	return shifted.BigInt(), nil
}
