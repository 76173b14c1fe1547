package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"swapexec/internal/metrics"
	"swapexec/internal/model"
)

// ErrNotArmed is returned by Execute when no valid swap is held.
var ErrNotArmed = errors.New("no valid swap armed for execution")

// Dispatcher receives the execution event for an armed swap.
type Dispatcher interface {
	Dispatch(ctx context.Context, d *model.SwapDescriptor) error
}

// Gate holds the latest valid descriptor and lets it be executed.
// It is Disarmed when held is nil.
type Gate struct {
	dispatcher Dispatcher
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu   sync.RWMutex
	held *model.SwapDescriptor
}

func New(dispatcher Dispatcher, logger *zap.Logger, m *metrics.Metrics) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{dispatcher: dispatcher, logger: logger, metrics: m}
}

// Apply arms on a valid outcome and disarms on anything else.
func (g *Gate) Apply(o model.Outcome) {
	g.mu.Lock()
	if o.IsValid() {
		g.held = o.Descriptor
	} else {
		g.held = nil
	}
	armed := g.held != nil
	g.mu.Unlock()

	g.metrics.SetArmed(armed)
}

// Clear disarms the gate.
func (g *Gate) Clear() {
	g.mu.Lock()
	g.held = nil
	g.mu.Unlock()

	g.metrics.SetArmed(false)
}

func (g *Gate) Armed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.held != nil
}

// Held returns the armed descriptor, or nil.
func (g *Gate) Held() *model.SwapDescriptor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.held
}

// Execute dispatches one execution event for the armed descriptor and
// returns it. The gate stays armed.
func (g *Gate) Execute(ctx context.Context) (*model.SwapDescriptor, error) {
	d := g.Held()
	if d == nil {
		g.metrics.ObserveExecution("not_armed")
		return nil, ErrNotArmed
	}

	if g.dispatcher != nil {
		if err := g.dispatcher.Dispatch(ctx, d); err != nil {
			g.metrics.ObserveExecution("failed")
			g.logger.Warn("swap dispatch failed", zap.String("txid", d.TxID), zap.Error(err))
			return nil, fmt.Errorf("dispatch swap: %w", err)
		}
	}

	g.metrics.ObserveExecution("ok")
	g.logger.Info("swap executed",
		zap.String("txid", d.TxID),
		zap.String("trade_type", string(d.TradeType)),
		zap.String("asset", d.Asset),
	)
	return d, nil
}
