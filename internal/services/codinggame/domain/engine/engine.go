// Package engine runs the timeline: it dispatches events through the
// per-type handlers, records them in the event log, drives the outside-world
// collaborators, and rebuilds timers and listeners from the log on startup.
//
// An Engine is single threaded. Every method must be called from one
// goroutine at a time; Runtime serializes callers through a Loop.
package engine

import (
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/mission"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
	"github.com/louisbranch/codinggame/internal/services/codinggame/effects"
)

const tracerName = "github.com/louisbranch/codinggame/engine"

var (
	// ErrCycle aborts a dispatch chain that re-enters an event already being
	// dispatched.
	ErrCycle = errors.New("dispatch cycle")
	// ErrMissingCollaborator is returned when a handler needs a collaborator
	// that was not configured.
	ErrMissingCollaborator = errors.New("collaborator not configured")
	// ErrBadAction is returned for modify-app-grid events with an unknown action.
	ErrBadAction = errors.New("bad app grid action")
	// ErrUnknownSettingType is returned for symbolic setting values of an
	// unknown type.
	ErrUnknownSettingType = errors.New("unknown setting value type")
)

// Snapshot is the published game state. A new value replaces the old one on
// every change.
type Snapshot struct {
	Mission      *mission.State `json:"mission,omitempty"`
	ListeningFor []string       `json:"listening_for"`
}

// Publisher is notified with every new snapshot.
type Publisher interface {
	Publish(Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Snapshot)

// Publish calls f.
func (f PublisherFunc) Publish(s Snapshot) { f(s) }

// Deps wires an Engine.
type Deps struct {
	Descriptor *timeline.Descriptor
	Log        *eventlog.Log
	Scheduler  Scheduler

	Chat      effects.Chat
	Settings  effects.Settings
	AppGrid   effects.AppGrid
	Desktop   effects.DesktopLocator
	Files     effects.Files
	Publisher Publisher

	// FilesDir holds internal files referenced by internal-file-uri settings.
	FilesDir string
	// ConfigDir receives attachments copied from FilesDir.
	ConfigDir string
	// HomeDir expands a leading ~ in attachment paths.
	HomeDir string

	// DebugEnabled allows dispatching arbitrary events by name.
	DebugEnabled bool

	Now    func() time.Time
	Tracer trace.Tracer
}

// Engine executes timeline events against the event log.
type Engine struct {
	desc      *timeline.Descriptor
	log       *eventlog.Log
	scheduler Scheduler

	chat      effects.Chat
	settings  effects.Settings
	appGrid   effects.AppGrid
	desktop   effects.DesktopLocator
	files     effects.Files
	publisher Publisher

	filesDir  string
	configDir string
	homeDir   string
	debug     bool

	now    func() time.Time
	tracer trace.Tracer

	// path holds the names of the events currently being dispatched,
	// outermost first.
	path     []string
	snapshot Snapshot
}

// New builds an Engine. Descriptor, Log and Scheduler are required.
func New(deps Deps) (*Engine, error) {
	if deps.Descriptor == nil {
		return nil, errors.New("descriptor is required")
	}
	if deps.Log == nil {
		return nil, errors.New("event log is required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Engine{
		desc:      deps.Descriptor,
		log:       deps.Log,
		scheduler: deps.Scheduler,
		chat:      deps.Chat,
		settings:  deps.Settings,
		appGrid:   deps.AppGrid,
		desktop:   deps.Desktop,
		files:     deps.Files,
		publisher: deps.Publisher,
		filesDir:  deps.FilesDir,
		configDir: deps.ConfigDir,
		homeDir:   deps.HomeDir,
		debug:     deps.DebugEnabled,
		now:       now,
		tracer:    tracer,
		snapshot:  Snapshot{ListeningFor: []string{}},
	}, nil
}

// State returns the last published snapshot.
func (e *Engine) State() Snapshot {
	return e.snapshot
}

// Entries exposes the current log for read-only inspection.
func (e *Engine) Entries() []eventlog.Entry {
	return e.log.Entries()
}

// publish recomputes the snapshot from the log and announces it.
func (e *Engine) publish() error {
	entries := e.log.Entries()
	next := Snapshot{ListeningFor: listening(entries)}

	var err error
	if name, ok := eventlog.ActiveMission(entries); ok {
		state, stateErr := mission.StateFor(name, e.desc, entries)
		if stateErr != nil {
			err = stateErr
		} else {
			next.Mission = &state
		}
	}

	e.snapshot = next
	if e.publisher != nil {
		e.publisher.Publish(next)
	}
	return err
}

func listening(entries []eventlog.Entry) []string {
	registry := eventlog.ListeningRegistry(entries)
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
