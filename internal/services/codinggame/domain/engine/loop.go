package engine

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned by Do after the loop has exited.
var ErrLoopStopped = errors.New("run loop stopped")

// Loop runs submitted functions one at a time on a single goroutine, each to
// completion before the next starts.
type Loop struct {
	jobs    chan func()
	stopped chan struct{}
	once    sync.Once
}

// NewLoop returns a loop that is not yet running.
func NewLoop() *Loop {
	return &Loop{
		jobs:    make(chan func()),
		stopped: make(chan struct{}),
	}
}

// Run executes jobs until ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.stopped) })
	for {
		select {
		case job := <-l.jobs:
			job()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Do runs fn on the loop and waits for it. It gives up only if fn has not
// started when ctx ends or the loop stops.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	job := func() {
		defer close(done)
		fn()
	}
	select {
	case l.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	<-done
	return nil
}

// Post queues fn without waiting. It is dropped if the loop stops first.
func (l *Loop) Post(fn func()) {
	go func() {
		select {
		case l.jobs <- fn:
		case <-l.stopped:
		}
	}()
}
