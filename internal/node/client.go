// Package node talks to a UTXO node over JSON-RPC.
package node

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps a go-ethereum RPC client pointed at a node's JSON-RPC port.
type Client struct {
	rpcClient *rpc.Client
}

// NewClient dials rpcURL. user and password, when set, are sent as basic auth.
func NewClient(ctx context.Context, rpcURL, user, password string) (*Client, error) {
	if strings.TrimSpace(rpcURL) == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	var opts []rpc.ClientOption
	if user != "" || password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
		opts = append(opts, rpc.WithHeader("Authorization", "Basic "+token))
	}

	rpcClient, err := rpc.DialOptions(ctx, rpcURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Broadcast submits a signed raw transaction and returns the node's txid.
func (c *Client) Broadcast(ctx context.Context, rawHex string) (string, error) {
	var txid string
	if err := c.rpcClient.CallContext(ctx, &txid, "sendrawtransaction", rawHex); err != nil {
		return "", fmt.Errorf("sendrawtransaction: %w", nodeError(err))
	}
	if txid == "" {
		return "", fmt.Errorf("sendrawtransaction: empty txid")
	}
	return txid, nil
}

// BlockCount returns the node's current height.
func (c *Client) BlockCount(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.rpcClient.CallContext(ctx, &height, "getblockcount"); err != nil {
		return 0, fmt.Errorf("getblockcount: %w", nodeError(err))
	}
	return height, nil
}

// RPCError is a JSON-RPC error object the node sent with a non-200 status.
// It satisfies rpc.Error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func (e *RPCError) ErrorCode() int {
	return e.Code
}

// nodeError recovers the JSON-RPC error from an HTTP failure. bitcoind-style
// nodes answer rejected calls with status 500 and the error in the body.
func nodeError(err error) error {
	var httpErr rpc.HTTPError
	if !errors.As(err, &httpErr) || len(httpErr.Body) == 0 {
		return err
	}
	var body struct {
		Error *RPCError `json:"error"`
	}
	if jsonErr := json.Unmarshal(httpErr.Body, &body); jsonErr != nil || body.Error == nil {
		return err
	}
	return body.Error
}
