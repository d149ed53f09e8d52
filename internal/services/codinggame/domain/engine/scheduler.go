package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNoTimer is returned when cancelling a timer that is not armed.
var ErrNoTimer = errors.New("no such timer")

// Scheduler arms named one-shot timers. At most one timer exists per name.
type Scheduler interface {
	// Schedule arms fire to run after d, replacing any timer of that name.
	Schedule(name string, d time.Duration, fire func())
	// Cancel disarms the named timer and fails when none is armed.
	Cancel(name string) error
	// CancelAll disarms every timer.
	CancelAll()
}

// TimerScheduler arms real timers and hands their callbacks to post, which
// runs them on the engine's goroutine.
type TimerScheduler struct {
	post func(func())

	mu     sync.Mutex
	seq    uint64
	timers map[string]*timerHandle
}

type timerHandle struct {
	id    uint64
	timer *time.Timer
}

var _ Scheduler = (*TimerScheduler)(nil)

// NewTimerScheduler returns a scheduler that delivers fired timers to post.
func NewTimerScheduler(post func(func())) *TimerScheduler {
	return &TimerScheduler{post: post, timers: map[string]*timerHandle{}}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(name string, d time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.timer.Stop()
	}
	s.seq++
	h := &timerHandle{id: s.seq}
	h.timer = time.AfterFunc(d, func() {
		s.post(func() {
			if s.claim(name, h.id) {
				fire()
			}
		})
	})
	s.timers[name] = h
}

// claim removes the handle if it is still the live timer for name. A timer
// that was cancelled or replaced after it fired loses the claim.
func (s *TimerScheduler) claim(name string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.timers[name]
	if !ok || h.id != id {
		return false
	}
	delete(s.timers, name)
	return true
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.timers[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoTimer, name)
	}
	h.timer.Stop()
	delete(s.timers, name)
	return nil
}

// CancelAll implements Scheduler.
func (s *TimerScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, h := range s.timers {
		h.timer.Stop()
		delete(s.timers, name)
	}
}

// Pending lists the armed timer names.
func (s *TimerScheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.timers))
	for name := range s.timers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
