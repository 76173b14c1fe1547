// Package broadcast submits executed swaps to the network and records them.
package broadcast

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"swapexec/internal/event"
	"swapexec/internal/model"
)

const DefaultTopic = "swapexec.executions"

// ErrAlreadySubmitted is returned when a transaction was already broadcast.
var ErrAlreadySubmitted = errors.New("swap already submitted")

// Broadcaster sends a signed raw transaction and returns the network txid.
type Broadcaster interface {
	Broadcast(ctx context.Context, rawHex string) (string, error)
}

type Options struct {
	MaxRetries   int
	RetryBackoff time.Duration
	Topic        string
}

// Executor is the execution dispatcher: it broadcasts each armed swap once
// and records the result in the journal and on the event publisher.
type Executor struct {
	broadcaster Broadcaster
	journal     event.Publisher
	publisher   event.Publisher
	opts        Options
	logger      *zap.Logger
	now         func() time.Time

	mu        sync.Mutex
	submitted map[string]string
}

// NewExecutor builds an Executor. journal and publisher may be nil.
func NewExecutor(b Broadcaster, journal, publisher event.Publisher, opts Options, logger *zap.Logger) (*Executor, error) {
	if b == nil {
		return nil, fmt.Errorf("broadcaster is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = event.Nop{}
	}
	if publisher == nil {
		publisher = event.Nop{}
	}
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	return &Executor{
		broadcaster: b,
		journal:     journal,
		publisher:   publisher,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
		submitted:   make(map[string]string),
	}, nil
}

// Dispatch broadcasts d's transaction. A second dispatch of the same txid
// fails with ErrAlreadySubmitted unless the first broadcast failed.
func (e *Executor) Dispatch(ctx context.Context, d *model.SwapDescriptor) error {
	if d == nil {
		return fmt.Errorf("descriptor is nil")
	}
	if len(d.Transaction) == 0 {
		return fmt.Errorf("swap %s has no transaction", d.TxID)
	}
	if !e.reserve(d.TxID) {
		return fmt.Errorf("%w: %s", ErrAlreadySubmitted, d.TxID)
	}

	rawHex := hex.EncodeToString(d.Transaction)
	var nodeTxID string
	err := withRetry(ctx, e.opts.MaxRetries, e.opts.RetryBackoff, func(ctx context.Context) error {
		id, err := e.broadcaster.Broadcast(ctx, rawHex)
		if err != nil {
			e.logger.Warn("broadcast attempt failed", zap.String("txid", d.TxID), zap.Error(err))
			return err
		}
		nodeTxID = id
		return nil
	})
	if err != nil {
		e.release(d.TxID)
		return fmt.Errorf("broadcast %s: %w", d.TxID, err)
	}
	e.confirm(d.TxID, nodeTxID)

	if nodeTxID != d.TxID {
		e.logger.Warn("node txid differs from swap txid", zap.String("txid", d.TxID), zap.String("node_txid", nodeTxID))
	}

	e.record(ctx, newExecution(d, nodeTxID, e.now()))
	return nil
}

// Submitted returns the node txid recorded for txid, if any.
func (e *Executor) Submitted(txid string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	nodeTxID, ok := e.submitted[txid]
	return nodeTxID, ok && nodeTxID != ""
}

func (e *Executor) reserve(txid string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.submitted[txid]; ok {
		return false
	}
	e.submitted[txid] = ""
	return true
}

func (e *Executor) confirm(txid, nodeTxID string) {
	e.mu.Lock()
	e.submitted[txid] = nodeTxID
	e.mu.Unlock()
}

func (e *Executor) release(txid string) {
	e.mu.Lock()
	delete(e.submitted, txid)
	e.mu.Unlock()
}

func (e *Executor) record(ctx context.Context, exec model.Execution) {
	payload, err := json.Marshal(exec)
	if err != nil {
		e.logger.Error("marshal execution", zap.String("txid", exec.TxID), zap.Error(err))
		return
	}
	if err := e.journal.Publish(ctx, e.opts.Topic, exec.TxID, payload); err != nil {
		e.logger.Warn("journal execution failed", zap.String("txid", exec.TxID), zap.Error(err))
	}
	if err := e.publisher.Publish(ctx, e.opts.Topic, exec.TxID, payload); err != nil {
		e.logger.Warn("publish execution failed", zap.String("txid", exec.TxID), zap.Error(err))
	}
	e.logger.Info("swap broadcast",
		zap.String("txid", exec.TxID),
		zap.String("node_txid", exec.NodeTxID),
		zap.String("asset", exec.Asset),
	)
}

func newExecution(d *model.SwapDescriptor, nodeTxID string, at time.Time) model.Execution {
	return model.Execution{
		TxID:        d.TxID,
		NodeTxID:    nodeTxID,
		TradeType:   d.TradeType,
		Asset:       d.Asset,
		Quantity:    d.Quantity,
		Currency:    d.Currency,
		UnitPrice:   d.UnitPrice,
		TotalPrice:  d.TotalPrice,
		SubmittedAt: at.UTC().Format(time.RFC3339),
	}
}

// isPermanent reports whether the node rejected the transaction itself, as
// opposed to a transport failure worth retrying.
func isPermanent(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}
