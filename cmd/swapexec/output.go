package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"swapexec/internal/model"
	"swapexec/internal/present"
)

// readInput returns the payload from --hex, or from --in (a path, or - for stdin).
func readInput(stdin io.Reader, hexValue, inPath string) (string, error) {
	if strings.TrimSpace(hexValue) != "" {
		return hexValue, nil
	}
	switch inPath {
	case "":
		return "", fmt.Errorf("--hex or --in is required")
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(inPath)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(data), nil
	}
}

func printOutcome(w io.Writer, o model.Outcome, desc model.TradeDescription) {
	fmt.Fprintf(w, "Order:       %s\n", desc.OrderLabel)
	fmt.Fprintf(w, "Asset:       %s\n", desc.AssetLine)
	fmt.Fprintf(w, "Unit price:  %s\n", desc.UnitPriceLine)
	fmt.Fprintf(w, "Total price: %s\n", desc.TotalPriceLine)
	fmt.Fprintf(w, "Valid:       %s\n", present.Validity(o))
	if o.IsValid() {
		fmt.Fprintf(w, "Txid:        %s\n", o.Descriptor.TxID)
	}
}
