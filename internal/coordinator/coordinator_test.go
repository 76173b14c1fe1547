package coordinator

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swapexec/internal/gate"
	"swapexec/internal/model"
	"swapexec/internal/present"
	"swapexec/internal/registry"
	"swapexec/internal/swap"
	"swapexec/internal/syncer"
)

var wallet = swap.WalletContext{NativeAsset: "rvn", Network: "mainnet"}

type step struct {
	desc    *model.SwapDescriptor
	err     error
	panics  bool
	started chan struct{}
	release chan struct{}
	done    chan struct{}
}

// scriptedDecoder answers each input from a fixed script and ignores ctx,
// like a decode that cannot be interrupted.
type scriptedDecoder struct {
	mu     sync.Mutex
	script map[string]*step
	calls  map[string]int
}

func newScriptedDecoder(script map[string]*step) *scriptedDecoder {
	return &scriptedDecoder{script: script, calls: make(map[string]int)}
}

func (d *scriptedDecoder) Parse(_ context.Context, rawHex string, _ swap.WalletContext) (*model.SwapDescriptor, error) {
	d.mu.Lock()
	d.calls[rawHex]++
	s, ok := d.script[rawHex]
	d.mu.Unlock()
	if !ok {
		return nil, errors.New("unexpected input")
	}

	if s.done != nil {
		defer close(s.done)
	}
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	if s.panics {
		panic("boom")
	}
	return s.desc, s.err
}

func (d *scriptedDecoder) Calls(input string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[input]
}

type countingSyncer struct {
	mu     sync.Mutex
	synced []*model.SwapDescriptor
}

func (s *countingSyncer) Sync(_ context.Context, d *model.SwapDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, d)
}

func (s *countingSyncer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.synced)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []*model.SwapDescriptor
}

func (r *recordingDispatcher) Dispatch(_ context.Context, d *model.SwapDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, d)
	return nil
}

func goldSell(txid string) *model.SwapDescriptor {
	return &model.SwapDescriptor{
		TradeType:  model.TradeSell,
		Asset:      "GOLD",
		Quantity:   decimal.NewFromInt(10),
		Currency:   "rvn",
		UnitPrice:  decimal.NewFromInt(2),
		TotalPrice: decimal.NewFromInt(20),
		InType:     "rvn",
		OutType:    "GOLD",
		TxID:       txid,
	}
}

func newCoordinator(t *testing.T, cfg Config, dec swap.Decoder, g OutcomeSink, s AssetSyncer) *Coordinator {
	t.Helper()
	c, err := New(cfg, Deps{
		Decoder: dec,
		Wallet:  wallet,
		Gate:    g,
		Syncer:  s,
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewRequiresDecoder(t *testing.T) {
	_, err := New(Config{}, Deps{})
	require.Error(t, err)
}

func TestInitialStateIsEmpty(t *testing.T) {
	c := newCoordinator(t, Config{}, newScriptedDecoder(nil), nil, nil)

	current := c.Current()
	require.Equal(t, model.StatusInvalid, current.Status)
	require.Equal(t, model.FailureEmpty, current.Kind)
	require.Empty(t, current.Reason)
	require.Zero(t, c.Generation())
	require.False(t, c.InFlight())
	require.True(t, c.Description().IsBlank())
}

func TestRejectedInputDisarms(t *testing.T) {
	dec := newScriptedDecoder(map[string]*step{
		"bad": {err: errors.New("bad payload")},
	})
	g := gate.New(nil, zap.NewNop(), nil)
	c := newCoordinator(t, Config{}, dec, g, nil)

	out := c.OnInputChanged(context.Background(), "bad")
	require.Equal(t, model.StatusInvalid, out.Status)
	require.Equal(t, model.FailureDecode, out.Kind)
	require.Equal(t, "bad payload", out.Reason)
	require.Equal(t, uint64(1), out.Generation)
	require.False(t, g.Armed())

	_, err := g.Execute(context.Background())
	require.ErrorIs(t, err, gate.ErrNotArmed)
	require.True(t, c.Description().IsBlank())
}

func TestAcceptedInputArmsAndExecutes(t *testing.T) {
	want := goldSell("tx-1")
	dec := newScriptedDecoder(map[string]*step{"good": {desc: want}})
	dispatcher := &recordingDispatcher{}
	g := gate.New(dispatcher, zap.NewNop(), nil)
	c := newCoordinator(t, Config{}, dec, g, nil)

	out := c.OnInputChanged(context.Background(), "good")
	require.True(t, out.IsValid())
	require.Same(t, want, out.Descriptor)
	require.True(t, g.Armed())

	got, err := g.Execute(context.Background())
	require.NoError(t, err)
	require.Same(t, want, got)
	require.Len(t, dispatcher.events, 1)
	require.True(t, g.Armed())

	desc := c.Description()
	require.Equal(t, present.LabelSell, desc.OrderLabel)
	require.Equal(t, "10x [GOLD]", desc.AssetLine.String())
}

func TestSupersededResultIsDiscarded(t *testing.T) {
	first := &step{
		desc:    goldSell("tx-old"),
		started: make(chan struct{}),
		release: make(chan struct{}),
		done:    make(chan struct{}),
	}
	latest := goldSell("tx-new")
	dec := newScriptedDecoder(map[string]*step{
		"e1": first,
		"e2": {desc: latest},
	})
	g := gate.New(nil, zap.NewNop(), nil)
	s := &countingSyncer{}
	c := newCoordinator(t, Config{DecodeTimeout: 5 * time.Second}, dec, g, s)

	e1 := make(chan model.Outcome, 1)
	go func() {
		e1 <- c.OnInputChanged(context.Background(), "e1")
	}()
	<-first.started
	require.True(t, c.InFlight())

	out := c.OnInputChanged(context.Background(), "e2")
	require.True(t, out.IsValid())
	require.Same(t, latest, out.Descriptor)
	require.Equal(t, uint64(2), out.Generation)

	close(first.release)
	<-first.done
	stale := <-e1

	require.Same(t, latest, stale.Descriptor)
	require.Same(t, latest, c.Current().Descriptor)
	require.Same(t, latest, g.Held())
	require.Equal(t, 1, s.Count())
	require.False(t, c.InFlight())
}

func TestSlowDecodeTimesOut(t *testing.T) {
	slow := &step{
		desc:    goldSell("tx-slow"),
		release: make(chan struct{}),
		done:    make(chan struct{}),
	}
	dec := newScriptedDecoder(map[string]*step{"slow": slow})
	g := gate.New(nil, zap.NewNop(), nil)
	s := &countingSyncer{}
	c := newCoordinator(t, Config{DecodeTimeout: 20 * time.Millisecond}, dec, g, s)

	out := c.OnInputChanged(context.Background(), "slow")
	require.True(t, out.IsTimeout())
	require.Equal(t, model.ReasonTimedOut, out.Reason)
	require.False(t, g.Armed())

	close(slow.release)
	<-slow.done

	require.True(t, c.Current().IsTimeout())
	require.False(t, g.Armed())
	require.Zero(t, s.Count())
}

func TestTimedOutInputIsRetried(t *testing.T) {
	release := make(chan struct{})
	dec := newScriptedDecoder(map[string]*step{
		"slow": {release: release, desc: goldSell("tx-slow")},
	})
	c := newCoordinator(t, Config{DecodeTimeout: 20 * time.Millisecond}, dec, nil, nil)

	require.True(t, c.OnInputChanged(context.Background(), "slow").IsTimeout())
	close(release)

	out := c.OnInputChanged(context.Background(), "slow")
	require.True(t, out.IsValid())
	require.Equal(t, 2, dec.Calls("slow"))
}

func TestIdenticalInputIsNotRedecoded(t *testing.T) {
	dec := newScriptedDecoder(map[string]*step{"good": {desc: goldSell("tx-1")}})
	s := &countingSyncer{}
	c := newCoordinator(t, Config{}, dec, nil, s)

	first := c.OnInputChanged(context.Background(), "good")
	second := c.OnInputChanged(context.Background(), "  good\n")

	require.Equal(t, first, second)
	require.Equal(t, 1, dec.Calls("good"))
	require.Equal(t, 1, s.Count())
	require.Equal(t, uint64(1), c.Generation())
}

func TestClearingInput(t *testing.T) {
	dec := newScriptedDecoder(map[string]*step{"good": {desc: goldSell("tx-1")}})
	g := gate.New(nil, zap.NewNop(), nil)
	c := newCoordinator(t, Config{}, dec, g, nil)

	require.True(t, c.OnInputChanged(context.Background(), "good").IsValid())
	require.True(t, g.Armed())

	out := c.Clear(context.Background())
	require.Equal(t, model.StatusInvalid, out.Status)
	require.Equal(t, model.FailureEmpty, out.Kind)
	require.Empty(t, out.Reason)
	require.False(t, g.Armed())
	require.True(t, c.Description().IsBlank())
	require.Zero(t, dec.Calls(""))
}

func TestDecoderPanicBecomesInvalid(t *testing.T) {
	dec := newScriptedDecoder(map[string]*step{"boom": {panics: true}})
	c := newCoordinator(t, Config{}, dec, nil, nil)

	out := c.OnInputChanged(context.Background(), "boom")
	require.Equal(t, model.FailureDecode, out.Kind)
	require.Contains(t, out.Reason, "panic")
}

func TestNilDescriptorIsInvalid(t *testing.T) {
	dec := newScriptedDecoder(map[string]*step{"nothing": {}})
	c := newCoordinator(t, Config{}, dec, nil, nil)

	out := c.OnInputChanged(context.Background(), "nothing")
	require.Equal(t, model.StatusInvalid, out.Status)
	require.Equal(t, model.FailureDecode, out.Kind)
}

func TestCallerCancellation(t *testing.T) {
	blocked := &step{release: make(chan struct{}), desc: goldSell("tx-1")}
	dec := newScriptedDecoder(map[string]*step{"blocked": blocked})
	c := newCoordinator(t, Config{}, dec, nil, nil)
	t.Cleanup(func() { close(blocked.release) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := c.OnInputChanged(ctx, "blocked")
	require.Equal(t, model.FailureCancelled, out.Kind)
}

func TestUpdatesFollowSettledOutcomes(t *testing.T) {
	dec := newScriptedDecoder(map[string]*step{
		"good": {desc: goldSell("tx-1")},
		"bad":  {err: errors.New("bad payload")},
	})
	g := gate.New(nil, zap.NewNop(), nil)
	c := newCoordinator(t, Config{}, dec, g, nil)

	c.OnInputChanged(context.Background(), "good")
	c.OnInputChanged(context.Background(), "bad")

	first := <-c.Updates()
	require.True(t, first.Outcome.IsValid())
	require.True(t, first.ExecuteEnabled)
	require.Equal(t, present.LabelSell, first.Description.OrderLabel)

	second := <-c.Updates()
	require.Equal(t, "bad payload", second.Outcome.Reason)
	require.False(t, second.ExecuteEnabled)
	require.True(t, second.Description.IsBlank())
}

func TestFullUpdateBufferDoesNotBlock(t *testing.T) {
	dec := newScriptedDecoder(map[string]*step{
		"a": {err: errors.New("a")},
		"b": {err: errors.New("b")},
	})
	c := newCoordinator(t, Config{UpdateBuffer: 1}, dec, nil, nil)

	c.OnInputChanged(context.Background(), "a")
	out := c.OnInputChanged(context.Background(), "b")
	require.Equal(t, "b", out.Reason)
	require.Len(t, c.Updates(), 1)
}

func TestSellEnvelopeEndToEnd(t *testing.T) {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{0x07}, 1), []byte{0x51}, nil))
	tx.AddTxOut(wire.NewTxOut(2000000000, []byte{0x76, 0xa9, 0x14}))
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	order := goldSell("")
	order.Transaction = buf.Bytes()
	payload, err := swap.EncodeEnvelope(order)
	require.NoError(t, err)

	dec, err := swap.NewEnvelopeDecoder()
	require.NoError(t, err)
	reg := registry.NewMemoryRegistry()
	g := gate.New(nil, zap.NewNop(), nil)
	c := newCoordinator(t, Config{}, dec, g, syncer.New(reg, "rvn", zap.NewNop(), nil))

	out := c.OnInputChanged(context.Background(), payload)
	require.True(t, out.IsValid(), out.Reason)
	require.Equal(t, tx.TxHash().String(), out.Descriptor.TxID)

	desc := c.Description()
	require.Equal(t, present.LabelSell, desc.OrderLabel)
	require.Equal(t, "10x [GOLD]", desc.AssetLine.String())
	require.Equal(t, "2x [RVN] per [GOLD]", desc.UnitPriceLine.String())
	require.Equal(t, "20x [RVN]", desc.TotalPriceLine.String())

	require.True(t, g.Armed())
	require.Equal(t, []string{"GOLD"}, reg.Assets())
}
