// Package eventlog holds the append-only record of every dispatched event.
// The log is the only durable game state; everything else is derived from it
// by the pure view functions in views.go.
package eventlog

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

// Entry is one immutable record of a dispatched event.
type Entry struct {
	Type      timeline.EventType `json:"type"`
	Name      string             `json:"name"`
	Data      json.RawMessage    `json:"data,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Decode unmarshals the entry payload into target.
func (e Entry) Decode(target any) error {
	return timeline.Decode(timeline.Event{Name: e.Name, Type: e.Type, Data: e.Data}, target)
}

// Store persists the full entry sequence.
type Store interface {
	// Load returns the persisted sequence. A store that was never written
	// returns an empty sequence and no error.
	Load(ctx context.Context) ([]Entry, error)
	// Save persists entries, which always extends what was last saved.
	Save(ctx context.Context, entries []Entry) error
	// Reset removes every persisted entry.
	Reset(ctx context.Context) error
}

// Log is the in-memory sequence backed by a Store. It is not safe for
// concurrent use; the engine's run loop owns it.
type Log struct {
	store   Store
	entries []Entry
	now     func() time.Time
}

// Open loads the persisted sequence. When the store cannot be read the log
// starts empty and the load error is returned alongside the usable log.
func Open(ctx context.Context, store Store, now func() time.Time) (*Log, error) {
	if now == nil {
		now = time.Now
	}
	l := &Log{store: store, now: now}
	if store == nil {
		return l, nil
	}
	entries, err := store.Load(ctx)
	if err != nil {
		return l, err
	}
	l.entries = entries
	return l, nil
}

// Append stamps and records an entry, then persists the whole sequence. A
// persistence failure is logged; the in-memory append stands regardless.
func (l *Log) Append(ctx context.Context, eventType timeline.EventType, name string, data json.RawMessage) Entry {
	entry := Entry{
		Type:      eventType,
		Name:      name,
		Data:      data,
		Timestamp: l.now().UTC(),
	}
	l.entries = append(l.entries, entry)
	if l.store != nil {
		if err := l.store.Save(ctx, l.Entries()); err != nil {
			log.Printf("persist event log: %v", err)
		}
	}
	return entry
}

// Entries returns the current sequence. The returned slice must not be
// modified; later appends never alias it.
func (l *Log) Entries() []Entry {
	return l.entries[:len(l.entries):len(l.entries)]
}

// Len reports the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Reset truncates the log to empty, in memory and in the store.
func (l *Log) Reset(ctx context.Context) error {
	l.entries = nil
	if l.store == nil {
		return nil
	}
	return l.store.Reset(ctx)
}
