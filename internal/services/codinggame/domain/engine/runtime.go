package engine

import (
	"context"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
)

// Runtime is the concurrency-safe face of an Engine. Every call runs on the
// engine's loop, so one inbound trigger is fully dispatched before the next
// starts.
type Runtime struct {
	engine *Engine
	loop   *Loop
}

// NewRuntime pairs an engine with the loop that owns it. The loop must be
// running for calls to complete.
func NewRuntime(engine *Engine, loop *Loop) *Runtime {
	return &Runtime{engine: engine, loop: loop}
}

// call runs fn on the loop. Once fn starts it runs to completion even if the
// caller's context ends.
func (r *Runtime) call(ctx context.Context, fn func(context.Context) error) error {
	var err error
	if doErr := r.loop.Do(ctx, func() {
		err = fn(context.WithoutCancel(ctx))
	}); doErr != nil {
		return doErr
	}
	return err
}

// Start rebuilds state from the log. See Engine.Start.
func (r *Runtime) Start(ctx context.Context) error {
	return r.call(ctx, r.engine.Start)
}

// DispatchEventByName see Engine.DispatchEventByName.
func (r *Runtime) DispatchEventByName(ctx context.Context, name string) error {
	return r.call(ctx, func(ctx context.Context) error {
		return r.engine.DispatchEventByName(ctx, name)
	})
}

// FetchChatHistory see Engine.FetchChatHistory.
func (r *Runtime) FetchChatHistory(ctx context.Context, actor string) ([]eventlog.ChatRecord, error) {
	var history []eventlog.ChatRecord
	err := r.call(ctx, func(context.Context) error {
		history = r.engine.FetchChatHistory(actor)
		return nil
	})
	return history, err
}

// ReceiveChatResponse see Engine.ReceiveChatResponse.
func (r *Runtime) ReceiveChatResponse(ctx context.Context, id, text, responseKey string) error {
	return r.call(ctx, func(ctx context.Context) error {
		return r.engine.ReceiveChatResponse(ctx, id, text, responseKey)
	})
}

// ReceiveExternalEvent see Engine.ReceiveExternalEvent.
func (r *Runtime) ReceiveExternalEvent(ctx context.Context, id string) error {
	return r.call(ctx, func(ctx context.Context) error {
		return r.engine.ReceiveExternalEvent(ctx, id)
	})
}

// ReceiveOpenAttachment see Engine.ReceiveOpenAttachment.
func (r *Runtime) ReceiveOpenAttachment(ctx context.Context, id string) error {
	return r.call(ctx, func(ctx context.Context) error {
		return r.engine.ReceiveOpenAttachment(ctx, id)
	})
}

// ResetGame see Engine.ResetGame.
func (r *Runtime) ResetGame(ctx context.Context) error {
	return r.call(ctx, r.engine.ResetGame)
}

// State returns the published snapshot.
func (r *Runtime) State(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.call(ctx, func(context.Context) error {
		snap = r.engine.State()
		return nil
	})
	return snap, err
}
