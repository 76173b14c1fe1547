package swap

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const swapOrderMethod = "swapOrder"

const swapEnvelopeABIJSON = `[
  {
    "inputs": [
      {"internalType": "uint8", "name": "tradeType", "type": "uint8"},
      {"internalType": "string", "name": "asset", "type": "string"},
      {"internalType": "uint256", "name": "quantity", "type": "uint256"},
      {"internalType": "string", "name": "currency", "type": "string"},
      {"internalType": "uint256", "name": "unitPrice", "type": "uint256"},
      {"internalType": "uint256", "name": "totalPrice", "type": "uint256"},
      {"internalType": "string", "name": "inType", "type": "string"},
      {"internalType": "string", "name": "outType", "type": "string"},
      {"internalType": "bytes", "name": "transaction", "type": "bytes"}
    ],
    "name": "swapOrder",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	swapEnvelopeABI     abi.ABI
	swapEnvelopeABIOnce sync.Once
	swapEnvelopeABIErr  error
)

// EnvelopeABI returns the parsed swap envelope ABI.
func EnvelopeABI() (abi.ABI, error) {
	swapEnvelopeABIOnce.Do(func() {
		swapEnvelopeABI, swapEnvelopeABIErr = abi.JSON(strings.NewReader(swapEnvelopeABIJSON))
	})
	return swapEnvelopeABI, swapEnvelopeABIErr
}
