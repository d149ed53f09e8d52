package eventlog

import (
	"encoding/json"
	"time"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

// ActiveMission returns the mission named by the last start-mission entry.
func ActiveMission(entries []Entry) (string, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Type != timeline.TypeStartMission {
			continue
		}
		var ref timeline.MissionRef
		if entries[i].Decode(&ref) == nil {
			return ref.Name, true
		}
	}
	return "", false
}

// ArtifactStatus maps each name to its latest register-artifact entry, or
// nil when the artifact was never registered.
func ArtifactStatus(entries []Entry, names []string) map[string]*Entry {
	status := make(map[string]*Entry, len(names))
	for _, name := range names {
		status[name] = nil
	}
	for i := range entries {
		if entries[i].Type != timeline.TypeRegisterArtifact {
			continue
		}
		var ref timeline.ArtifactRef
		if entries[i].Decode(&ref) != nil {
			continue
		}
		if _, wanted := status[ref.Name]; wanted {
			entry := entries[i]
			status[ref.Name] = &entry
		}
	}
	return status
}

// EarnedArtifacts returns the first register-artifact entry of every
// distinct artifact, in the order they were earned.
func EarnedArtifacts(entries []Entry) []Entry {
	seen := map[string]bool{}
	var out []Entry
	for _, e := range entries {
		if e.Type != timeline.TypeRegisterArtifact {
			continue
		}
		var ref timeline.ArtifactRef
		if e.Decode(&ref) != nil || seen[ref.Name] {
			continue
		}
		seen[ref.Name] = true
		out = append(out, e)
	}
	return out
}

// Listener is a currently awaited external event.
type Listener struct {
	// Event is the listen-event entry that armed the listener.
	Event    Entry
	Received []string
}

// ListeningRegistry folds listen-event and receive-event entries into the
// set of external event names currently awaited.
func ListeningRegistry(entries []Entry) map[string]Listener {
	registry := map[string]Listener{}
	for _, e := range entries {
		switch e.Type {
		case timeline.TypeListenEvent:
			var listen timeline.Listen
			if e.Decode(&listen) == nil {
				registry[listen.Name] = Listener{Event: e, Received: listen.Received}
			}
		case timeline.TypeReceiveEvent:
			var ref timeline.NameRef
			if e.Decode(&ref) == nil {
				delete(registry, ref.Name)
			}
		}
	}
	return registry
}

// PendingTimer is a wait-for that has neither completed nor been cancelled.
type PendingTimer struct {
	Name    string
	ArmedAt time.Time
	Wait    timeline.WaitFor
}

// PendingTimers folds wait-for entries against their completion and
// cancellation markers.
func PendingTimers(entries []Entry) map[string]PendingTimer {
	pending := map[string]PendingTimer{}
	for _, e := range entries {
		switch e.Type {
		case timeline.TypeWaitFor:
			var wait timeline.WaitFor
			if e.Decode(&wait) == nil {
				pending[e.Name] = PendingTimer{Name: e.Name, ArmedAt: e.Timestamp, Wait: wait}
			}
		case timeline.TypeWaitForComplete, timeline.TypeWaitForCancelled:
			var ref timeline.NameRef
			if e.Decode(&ref) == nil {
				delete(pending, ref.Name)
			}
		}
	}
	return pending
}

// ChatRecord is the serialized form of a chat-bearing entry.
type ChatRecord struct {
	Timestamp  time.Time           `json:"timestamp"`
	Actor      string              `json:"actor"`
	Message    string              `json:"message,omitempty"`
	Attachment timeline.Attachment `json:"attachment,omitempty"`
	Name       string              `json:"name"`
	Input      json.RawMessage     `json:"input,omitempty"`
	Styles     []string            `json:"styles,omitempty"`
	Type       timeline.EventType  `json:"type"`
}

type chatFields struct {
	Actor      string              `json:"actor"`
	Message    string              `json:"message"`
	Attachment timeline.Attachment `json:"attachment"`
	Input      json.RawMessage     `json:"input"`
	Styles     []string            `json:"styles"`
}

// ChatHistory returns the chat-bearing entries of actor in log order.
func ChatHistory(entries []Entry, actor string) []ChatRecord {
	var out []ChatRecord
	for _, e := range entries {
		if !e.Type.IsChat() {
			continue
		}
		var fields chatFields
		if e.Decode(&fields) != nil || fields.Actor != actor {
			continue
		}
		out = append(out, ChatRecord{
			Timestamp:  e.Timestamp,
			Actor:      fields.Actor,
			Message:    fields.Message,
			Attachment: fields.Attachment,
			Name:       e.Name,
			Input:      fields.Input,
			Styles:     fields.Styles,
			Type:       e.Type,
		})
	}
	return out
}

// EventHasOccurred reports whether any entry carries name.
func EventHasOccurred(entries []Entry, name string) bool {
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// SettingChange identifies a setting changed during the run together with
// the value it held before the first change.
type SettingChange struct {
	Schema   string
	Key      string
	Previous json.RawMessage
}

// ChangedSettings lists every distinct setting touched by change-setting
// entries, in first-change order.
func ChangedSettings(entries []Entry) []SettingChange {
	type settingKey struct{ schema, key string }
	seen := map[settingKey]bool{}
	var out []SettingChange
	for _, e := range entries {
		if e.Type != timeline.TypeChangeSetting {
			continue
		}
		var setting timeline.Setting
		if e.Decode(&setting) != nil {
			continue
		}
		k := settingKey{setting.Schema, setting.Key}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, SettingChange{Schema: setting.Schema, Key: setting.Key, Previous: setting.Previous})
	}
	return out
}

// CopiedFiles returns the targets of copy-file entries, last first.
func CopiedFiles(entries []Entry) []string {
	var out []string
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Type != timeline.TypeCopyFile {
			continue
		}
		var cp timeline.CopyFile
		if entries[i].Decode(&cp) == nil && cp.Target != "" {
			out = append(out, cp.Target)
		}
	}
	return out
}

// AppGridModifications returns modify-app-grid payloads, last first.
func AppGridModifications(entries []Entry) []timeline.AppGrid {
	var out []timeline.AppGrid
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Type != timeline.TypeModifyAppGrid {
			continue
		}
		var grid timeline.AppGrid
		if entries[i].Decode(&grid) == nil {
			out = append(out, grid)
		}
	}
	return out
}
