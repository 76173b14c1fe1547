package gate

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"swapexec/internal/model"
)

type recordingDispatcher struct {
	events []*model.SwapDescriptor
	err    error
}

func (r *recordingDispatcher) Dispatch(_ context.Context, d *model.SwapDescriptor) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, d)
	return nil
}

func TestExecuteDisarmed(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	g := New(dispatcher, zap.NewNop(), nil)

	if _, err := g.Execute(context.Background()); !errors.Is(err, ErrNotArmed) {
		t.Fatalf("expected ErrNotArmed, got %v", err)
	}
	if len(dispatcher.events) != 0 {
		t.Fatalf("no event may fire while disarmed")
	}
}

func TestApplyArmsAndExecuteReturnsHeld(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	g := New(dispatcher, zap.NewNop(), nil)
	d := &model.SwapDescriptor{TxID: "abc"}

	g.Apply(model.Valid(d))
	if !g.Armed() {
		t.Fatalf("expected armed")
	}

	got, err := g.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != d {
		t.Fatalf("execute returned a different descriptor")
	}
	if len(dispatcher.events) != 1 || dispatcher.events[0] != d {
		t.Fatalf("expected exactly one event for d, got %d", len(dispatcher.events))
	}
	if !g.Armed() {
		t.Fatalf("execute must not change state")
	}
}

func TestNonValidOutcomeDisarms(t *testing.T) {
	g := New(nil, nil, nil)
	g.Apply(model.Valid(&model.SwapDescriptor{}))
	g.Apply(model.TimedOut())

	if g.Armed() || g.Held() != nil {
		t.Fatalf("expected disarmed")
	}
	if _, err := g.Execute(context.Background()); !errors.Is(err, ErrNotArmed) {
		t.Fatalf("expected ErrNotArmed, got %v", err)
	}
}

func TestClearDisarms(t *testing.T) {
	g := New(nil, nil, nil)
	g.Apply(model.Valid(&model.SwapDescriptor{}))
	g.Clear()
	if g.Armed() {
		t.Fatalf("expected disarmed after clear")
	}
}

func TestExecuteDispatchFailure(t *testing.T) {
	boom := errors.New("node unreachable")
	g := New(&recordingDispatcher{err: boom}, zap.NewNop(), nil)
	g.Apply(model.Valid(&model.SwapDescriptor{}))

	if _, err := g.Execute(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped dispatch error, got %v", err)
	}
	if !g.Armed() {
		t.Fatalf("failed dispatch keeps the gate armed")
	}
}
