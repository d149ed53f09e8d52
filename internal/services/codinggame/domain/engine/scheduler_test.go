package engine

import (
	"errors"
	"testing"
	"time"
)

func inline(fn func()) { fn() }

func TestTimerSchedulerFiresOnce(t *testing.T) {
	s := NewTimerScheduler(inline)
	fired := make(chan string, 2)
	s.Schedule("a", time.Millisecond, func() { fired <- "a" })

	select {
	case got := <-fired:
		if got != "a" {
			t.Fatalf("expected a, got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	if pending := s.Pending(); len(pending) != 0 {
		t.Fatalf("expected no pending timers, got %v", pending)
	}
	if err := s.Cancel("a"); !errors.Is(err, ErrNoTimer) {
		t.Fatalf("expected no timer after firing, got %v", err)
	}
}

func TestTimerSchedulerCancel(t *testing.T) {
	s := NewTimerScheduler(inline)
	fired := make(chan struct{}, 1)
	s.Schedule("a", 20*time.Millisecond, func() { fired <- struct{}{} })

	if err := s.Cancel("a"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := s.Cancel("a"); !errors.Is(err, ErrNoTimer) {
		t.Fatalf("expected ErrNoTimer, got %v", err)
	}
	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestTimerSchedulerReplacesByName(t *testing.T) {
	s := NewTimerScheduler(inline)
	fired := make(chan string, 2)
	s.Schedule("a", time.Hour, func() { fired <- "old" })
	s.Schedule("a", time.Millisecond, func() { fired <- "new" })

	select {
	case got := <-fired:
		if got != "new" {
			t.Fatalf("expected replacement to fire, got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	if len(s.Pending()) != 0 {
		t.Fatalf("expected old timer gone, got %v", s.Pending())
	}
}

func TestTimerSchedulerDropsStaleDelivery(t *testing.T) {
	posted := make(chan func(), 1)
	s := NewTimerScheduler(func(fn func()) { posted <- fn })
	fired := false
	s.Schedule("a", 0, func() { fired = true })

	var deliver func()
	select {
	case deliver = <-posted:
	case <-time.After(2 * time.Second):
		t.Fatal("timer was not posted")
	}
	// Cancelled after the timer fired but before the loop ran it.
	if err := s.Cancel("a"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	deliver()
	if fired {
		t.Fatal("expected stale delivery to be dropped")
	}
}

func TestTimerSchedulerCancelAll(t *testing.T) {
	s := NewTimerScheduler(inline)
	s.Schedule("a", time.Hour, func() {})
	s.Schedule("b", time.Hour, func() {})
	if got := s.Pending(); !equalStrings(got, []string{"a", "b"}) {
		t.Fatalf("expected a and b pending, got %v", got)
	}
	s.CancelAll()
	if got := s.Pending(); len(got) != 0 {
		t.Fatalf("expected nothing pending, got %v", got)
	}
}
