package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

// dispatch runs one event through its handler and returns the handler's
// error. Re-entering an event that is already on the dispatch path fails
// with ErrCycle before the handler runs.
func (e *Engine) dispatch(ctx context.Context, ev timeline.Event) error {
	for _, name := range e.path {
		if name == ev.Name {
			chain := append(append([]string{}, e.path...), ev.Name)
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
		}
	}
	e.path = append(e.path, ev.Name)
	defer func() { e.path = e.path[:len(e.path)-1] }()

	ctx, span := e.tracer.Start(ctx, "codinggame.dispatch", trace.WithAttributes(
		attribute.String("event.name", ev.Name),
		attribute.String("event.type", string(ev.Type)),
		attribute.Int("dispatch.depth", len(e.path)),
	))
	defer span.End()

	if err := timeline.Visit(ctx, e, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// dispatchNested dispatches an event triggered by another event, a timer or
// a listener. Failures are logged and swallowed so siblings still run; only
// a cycle propagates and unwinds the whole chain.
func (e *Engine) dispatchNested(ctx context.Context, ev timeline.Event) error {
	err := e.dispatch(ctx, ev)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCycle) {
		return err
	}
	log.Printf("dispatch %s (%s): %v", ev.Name, ev.Type, err)
	return nil
}

// dispatchNames resolves names against the timeline and dispatches them in
// order. Every name must resolve before anything is dispatched.
func (e *Engine) dispatchNames(ctx context.Context, names []string) error {
	events, err := e.desc.Resolve(names)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := e.dispatchNested(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// dispatchInternal builds and dispatches an engine-generated marker event.
func (e *Engine) dispatchInternal(ctx context.Context, name string, eventType timeline.EventType, data any) error {
	ev, err := timeline.NewEvent(name, eventType, data)
	if err != nil {
		return err
	}
	return e.dispatchNested(ctx, ev)
}

// record appends ev to the log with the given payload.
func (e *Engine) record(ctx context.Context, ev timeline.Event, data json.RawMessage) eventlog.Entry {
	if data == nil {
		data = ev.Data
	}
	return e.log.Append(ctx, ev.Type, ev.Name, data)
}
