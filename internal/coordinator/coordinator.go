package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"swapexec/internal/metrics"
	"swapexec/internal/model"
	"swapexec/internal/present"
	"swapexec/internal/swap"
)

const (
	DefaultDecodeTimeout = 5 * time.Second
	DefaultUpdateBuffer  = 16
)

// OutcomeSink receives every settled outcome in generation order.
type OutcomeSink interface {
	Apply(o model.Outcome)
	Armed() bool
}

// AssetSyncer is handed each newly settled valid descriptor.
type AssetSyncer interface {
	Sync(ctx context.Context, d *model.SwapDescriptor)
}

// Config holds coordinator tuning.
type Config struct {
	DecodeTimeout time.Duration
	UpdateBuffer  int
}

// Deps are the coordinator's collaborators. Gate, Syncer, Logger and Metrics
// are optional.
type Deps struct {
	Decoder swap.Decoder
	Wallet  swap.WalletContext
	Gate    OutcomeSink
	Syncer  AssetSyncer
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Coordinator validates raw swap input, one generation per text change.
// A result is applied only while its generation is the latest issued.
type Coordinator struct {
	cfg     Config
	decoder swap.Decoder
	wallet  swap.WalletContext
	gate    OutcomeSink
	syncer  AssetSyncer
	logger  *zap.Logger
	metrics *metrics.Metrics
	updates chan model.Update

	mu         sync.Mutex
	generation uint64
	text       string
	outcome    model.Outcome
	closed     bool
}

type decodeResult struct {
	desc *model.SwapDescriptor
	err  error
}

// New builds a Coordinator. The initial outcome is an empty Invalid.
func New(cfg Config, deps Deps) (*Coordinator, error) {
	if deps.Decoder == nil {
		return nil, fmt.Errorf("decoder is nil")
	}
	if cfg.DecodeTimeout <= 0 {
		cfg.DecodeTimeout = DefaultDecodeTimeout
	}
	if cfg.UpdateBuffer <= 0 {
		cfg.UpdateBuffer = DefaultUpdateBuffer
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{
		cfg:     cfg,
		decoder: deps.Decoder,
		wallet:  deps.Wallet,
		gate:    deps.Gate,
		syncer:  deps.Syncer,
		logger:  logger,
		metrics: deps.Metrics,
		updates: make(chan model.Update, cfg.UpdateBuffer),
		outcome: model.Invalid(model.FailureEmpty, ""),
	}, nil
}

// OnInputChanged records raw as the current input and validates it. It
// blocks for at most the decode timeout and returns the outcome now current.
func (c *Coordinator) OnInputChanged(ctx context.Context, raw string) model.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	text := strings.TrimSpace(raw)

	c.mu.Lock()
	if c.generation > 0 && text == c.text && c.outcome.Generation == c.generation && !c.outcome.Retryable() {
		current := c.outcome
		c.mu.Unlock()
		return current
	}
	c.generation++
	gen := c.generation
	c.text = text
	c.mu.Unlock()

	if text == "" {
		return c.settle(ctx, gen, model.Invalid(model.FailureEmpty, ""), 0)
	}

	start := time.Now()
	outcome := c.decode(ctx, text)
	return c.settle(ctx, gen, outcome, time.Since(start))
}

// Clear resets the input to empty.
func (c *Coordinator) Clear(ctx context.Context) model.Outcome {
	return c.OnInputChanged(ctx, "")
}

func (c *Coordinator) decode(ctx context.Context, text string) model.Outcome {
	results := make(chan decodeResult, 1)

	// The decode is not cancelled when superseded; a late result lands in
	// the buffered channel and is dropped with it.
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.DecodeTimeout)
	go func() {
		defer cancel()
		results <- c.runDecoder(taskCtx, text)
	}()

	timer := time.NewTimer(c.cfg.DecodeTimeout)
	defer timer.Stop()

	select {
	case res := <-results:
		switch {
		case errors.Is(res.err, context.DeadlineExceeded):
			return model.TimedOut()
		case res.err != nil:
			return model.Invalid(model.FailureDecode, res.err.Error())
		case res.desc == nil:
			return model.Invalid(model.FailureDecode, "decoder returned no swap")
		default:
			return model.Valid(res.desc)
		}
	case <-timer.C:
		return model.TimedOut()
	case <-ctx.Done():
		return model.Invalid(model.FailureCancelled, "validation cancelled")
	}
}

func (c *Coordinator) runDecoder(ctx context.Context, text string) (res decodeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = decodeResult{err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()
	desc, err := c.decoder.Parse(ctx, text, c.wallet)
	return decodeResult{desc: desc, err: err}
}

func (c *Coordinator) settle(ctx context.Context, gen uint64, outcome model.Outcome, elapsed time.Duration) model.Outcome {
	outcome = outcome.WithGeneration(gen)

	c.mu.Lock()
	if gen != c.generation {
		current := c.outcome
		latest := c.generation
		c.mu.Unlock()

		c.metrics.ObserveDecode(metrics.ResultStale, elapsed)
		c.logger.Debug("stale decode discarded", zap.Uint64("generation", gen), zap.Uint64("latest", latest))
		return current
	}

	c.outcome = outcome
	executeEnabled := outcome.IsValid()
	if c.gate != nil {
		c.gate.Apply(outcome)
		executeEnabled = c.gate.Armed()
	}
	c.publish(model.Update{
		Outcome:        outcome,
		Description:    present.DescribeOutcome(outcome),
		ExecuteEnabled: executeEnabled,
	})
	c.mu.Unlock()

	c.metrics.ObserveDecode(resultLabel(outcome), elapsed)
	if outcome.IsValid() {
		d := outcome.Descriptor
		c.logger.Info("swap validated",
			zap.Uint64("generation", gen),
			zap.String("txid", d.TxID),
			zap.String("trade_type", string(d.TradeType)),
			zap.String("asset", d.Asset),
			zap.Duration("elapsed", elapsed),
		)
		if c.syncer != nil {
			c.syncer.Sync(ctx, d)
		}
	} else if outcome.Kind != model.FailureEmpty {
		c.logger.Info("swap rejected",
			zap.Uint64("generation", gen),
			zap.String("kind", string(outcome.Kind)),
			zap.String("reason", outcome.Reason),
			zap.Duration("elapsed", elapsed),
		)
	}
	return outcome
}

// publish must be called with c.mu held so updates leave in generation order.
func (c *Coordinator) publish(u model.Update) {
	if c.closed {
		return
	}
	select {
	case c.updates <- u:
	default:
		c.logger.Warn("update dropped, consumer is behind", zap.Uint64("generation", u.Outcome.Generation))
	}
}

func resultLabel(o model.Outcome) string {
	switch {
	case o.IsValid():
		return metrics.ResultValid
	case o.IsTimeout():
		return metrics.ResultTimeout
	default:
		return metrics.ResultInvalid
	}
}

// Updates delivers one Update per settled outcome.
func (c *Coordinator) Updates() <-chan model.Update {
	return c.updates
}

// Current returns the latest settled outcome.
func (c *Coordinator) Current() model.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Description presents the current outcome.
func (c *Coordinator) Description() model.TradeDescription {
	return present.DescribeOutcome(c.Current())
}

func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// InFlight reports whether the latest generation is still being decoded.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome.Generation != c.generation
}

// Close stops update delivery. OnInputChanged keeps working afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.updates)
}
