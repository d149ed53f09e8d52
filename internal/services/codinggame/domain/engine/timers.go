package engine

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

// arm schedules the completion of wait name after d.
func (e *Engine) arm(name string, wait timeline.WaitFor, d time.Duration) {
	if d < 0 {
		d = 0
	}
	e.scheduler.Schedule(name, d, func() {
		e.completeWait(context.Background(), name, wait)
	})
}

// completeWait marks the wait complete and dispatches its follow-ups. It
// runs from a timer, so failures are only logged.
func (e *Engine) completeWait(ctx context.Context, name string, wait timeline.WaitFor) {
	if err := e.dispatchInternal(ctx, name+"::completed", timeline.TypeWaitForComplete, timeline.NameRef{Name: name}); err != nil {
		log.Printf("complete wait %s: %v", name, err)
		return
	}
	if err := e.dispatchNames(ctx, wait.Then); err != nil {
		log.Printf("complete wait %s: %v", name, err)
	}
}

// cancelPending cancels every wait still pending in the log and records a
// cancellation marker for each, so a restart does not resume them. A wait
// the log holds as pending but the scheduler does not know is still marked
// cancelled, and reported as ErrNoTimer once every wait is handled.
func (e *Engine) cancelPending(ctx context.Context) error {
	pending := eventlog.PendingTimers(e.log.Entries())
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	var missing []error
	for _, name := range names {
		if err := e.scheduler.Cancel(name); err != nil {
			log.Printf("cancel wait %s: %v", name, err)
			missing = append(missing, err)
		}
		if err := e.dispatchInternal(ctx, name+"::cancelled", timeline.TypeWaitForCancelled, timeline.NameRef{Name: name}); err != nil {
			return err
		}
	}
	e.scheduler.CancelAll()
	return errors.Join(missing...)
}

// resumeTimers re-arms every pending wait for the time it still had left
// when the process stopped.
func (e *Engine) resumeTimers() {
	now := e.now()
	pending := eventlog.PendingTimers(e.log.Entries())
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := pending[name]
		elapsed := now.Sub(p.ArmedAt)
		remaining := time.Duration(p.Wait.Timeout)*time.Millisecond - elapsed
		e.arm(name, p.Wait, max(remaining, 0))
	}
}
