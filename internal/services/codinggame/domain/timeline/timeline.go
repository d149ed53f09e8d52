// Package timeline models the declarative script that drives the game: the
// events that can be dispatched, the missions they belong to, and the event
// the game starts from.
package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType tags the behavior of an event descriptor. The set is closed.
type EventType string

const (
	TypeChatActor                  EventType = "chat-actor"
	TypeChatUser                   EventType = "chat-user"
	TypeInputUser                  EventType = "input-user"
	TypeChatActorAttachment        EventType = "chat-actor-attachment"
	TypeChatActorDesktopAttachment EventType = "chat-actor-desktop-attachment"
	TypeStartMission               EventType = "start-mission"
	TypeRegisterArtifact           EventType = "register-artifact"
	TypeChangeSetting              EventType = "change-setting"
	TypeListenEvent                EventType = "listen-event"
	TypeReceiveEvent               EventType = "receive-event"
	TypeCopyFile                   EventType = "copy-file"
	TypeWaitFor                    EventType = "wait-for"
	TypeWaitForComplete            EventType = "wait-for-complete"
	TypeWaitForCancelled           EventType = "wait-for-cancelled"
	TypeModifyAppGrid              EventType = "modify-app-grid"
	TypeUserOpenedAttachment       EventType = "user-opened-attachment"
)

// EventTypes lists every known event type.
var EventTypes = []EventType{
	TypeChatActor,
	TypeChatUser,
	TypeInputUser,
	TypeChatActorAttachment,
	TypeChatActorDesktopAttachment,
	TypeStartMission,
	TypeRegisterArtifact,
	TypeChangeSetting,
	TypeListenEvent,
	TypeReceiveEvent,
	TypeCopyFile,
	TypeWaitFor,
	TypeWaitForComplete,
	TypeWaitForCancelled,
	TypeModifyAppGrid,
	TypeUserOpenedAttachment,
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsChat reports whether entries of this type carry a chat message that
// belongs in an actor's history.
func (t EventType) IsChat() bool {
	switch t {
	case TypeChatActor, TypeChatUser, TypeInputUser, TypeChatActorAttachment, TypeChatActorDesktopAttachment:
		return true
	default:
		return false
	}
}

var (
	// ErrUndefinedEvent indicates a referenced event name has no descriptor.
	ErrUndefinedEvent = errors.New("undefined event")
	// ErrUndefinedMission indicates a referenced mission has no descriptor.
	ErrUndefinedMission = errors.New("undefined mission")
)

// Event is a named, typed unit of the timeline. Data holds the type-specific
// payload and is decoded on dispatch.
type Event struct {
	Name string          `json:"name"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an event whose payload is the JSON encoding of data.
func NewEvent(name string, eventType EventType, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s data: %w", eventType, err)
	}
	return Event{Name: name, Type: eventType, Data: raw}, nil
}

// Artifact is a scorable achievement of a mission.
type Artifact struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Mission is a named stage of the game.
type Mission struct {
	Name        string     `json:"name"`
	ShortDesc   string     `json:"short_desc"`
	LongDesc    string     `json:"long_desc"`
	Hint        string     `json:"hint,omitempty"`
	StartEvents []string   `json:"start_events"`
	Artifacts   []Artifact `json:"artifacts"`
}

// TotalPoints returns the sum of the mission's artifact points.
func (m Mission) TotalPoints() int {
	total := 0
	for _, a := range m.Artifacts {
		total += a.Points
	}
	return total
}

// Artifact finds an artifact of the mission by name.
func (m Mission) Artifact(name string) (Artifact, bool) {
	for _, a := range m.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// Start points at the event dispatched when the game begins.
type Start struct {
	InitialEvent string `json:"initial_event"`
}

// Descriptor is the whole loaded timeline. It is never mutated after load.
type Descriptor struct {
	Events   []Event   `json:"events"`
	Missions []Mission `json:"missions"`
	Start    Start     `json:"start"`
	// Warnings collects non-fatal problems found while loading.
	Warnings []string `json:"-"`
}

// Event finds an event descriptor by name.
func (d *Descriptor) Event(name string) (Event, bool) {
	for _, ev := range d.Events {
		if ev.Name == name {
			return ev, true
		}
	}
	return Event{}, false
}

// Mission finds a mission descriptor by name and returns its 1-based stage
// number alongside it.
func (d *Descriptor) Mission(name string) (Mission, int, bool) {
	for i, m := range d.Missions {
		if m.Name == name {
			return m, i + 1, true
		}
	}
	return Mission{}, 0, false
}

// ArtifactOwner finds the mission declaring an artifact name.
func (d *Descriptor) ArtifactOwner(name string) (Mission, int, Artifact, bool) {
	for i, m := range d.Missions {
		if a, ok := m.Artifact(name); ok {
			return m, i + 1, a, true
		}
	}
	return Mission{}, 0, Artifact{}, false
}

// Resolve maps names to their descriptors, preserving order. It fails on the
// first name that has no descriptor.
func (d *Descriptor) Resolve(names []string) ([]Event, error) {
	events := make([]Event, 0, len(names))
	for _, name := range names {
		ev, ok := d.Event(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUndefinedEvent, name)
		}
		events = append(events, ev)
	}
	return events, nil
}

// InitialEvent returns the descriptor the game starts from.
func (d *Descriptor) InitialEvent() (Event, error) {
	ev, ok := d.Event(d.Start.InitialEvent)
	if !ok {
		return Event{}, fmt.Errorf("%w: initial event %q", ErrUndefinedEvent, d.Start.InitialEvent)
	}
	return ev, nil
}
