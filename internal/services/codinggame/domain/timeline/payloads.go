package timeline

import (
	"encoding/json"
	"fmt"
)

// Chat is the payload of chat-actor, chat-user and input-user events.
type Chat struct {
	// Name is set on user turns and points at the event being answered.
	Name      string              `json:"name,omitempty"`
	Actor     string              `json:"actor"`
	Message   string              `json:"message,omitempty"`
	Input     json.RawMessage     `json:"input,omitempty"`
	Styles    []string            `json:"styles,omitempty"`
	Responses map[string][]string `json:"responses,omitempty"`
}

// Attachment is the free-form attachment object of an attachment event.
// Unknown keys are carried through to the chat transport untouched.
type Attachment map[string]any

// Path returns the attachment's path, if any.
func (a Attachment) Path() string { return a.str("path") }

// App returns the application id of a desktop attachment.
func (a Attachment) App() string { return a.str("app") }

// OpenEvents returns the optional events dispatched when the user opens the
// attachment.
func (a Attachment) OpenEvents() []string {
	raw, ok := a["open_event"].([]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names
}

// WithPath returns a copy of the attachment with its path replaced.
func (a Attachment) WithPath(path string) Attachment {
	out := make(Attachment, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out["path"] = path
	return out
}

func (a Attachment) str(key string) string {
	s, _ := a[key].(string)
	return s
}

// AttachmentChat is the payload of the attachment event types.
type AttachmentChat struct {
	Actor      string     `json:"actor"`
	Styles     []string   `json:"styles,omitempty"`
	Attachment Attachment `json:"attachment"`
}

// MissionRef is the payload of start-mission.
type MissionRef struct {
	Name string `json:"name"`
}

// ArtifactRef is the payload of register-artifact.
type ArtifactRef struct {
	Name string `json:"name"`
}

// Setting is the payload of change-setting. Value is either a literal or a
// symbolic object `{type, value}` resolved against the current value.
type Setting struct {
	Schema      string          `json:"schema"`
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	VariantType string          `json:"variant_type,omitempty"`
	// Previous is recorded on the log entry with the value read before the
	// change was applied.
	Previous json.RawMessage `json:"previous,omitempty"`
}

// Listen is the payload of listen-event.
type Listen struct {
	Name     string   `json:"name"`
	Received []string `json:"received"`
}

// NameRef is the payload of the marker events (receive-event,
// wait-for-complete, wait-for-cancelled, user-opened-attachment).
type NameRef struct {
	Name  string `json:"name"`
	Actor string `json:"actor,omitempty"`
}

// CopyFile is the payload of copy-file.
type CopyFile struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// WaitFor is the payload of wait-for. Timeout is in milliseconds.
type WaitFor struct {
	Timeout int64    `json:"timeout"`
	Then    []string `json:"then"`
}

// App grid actions.
const (
	AppGridAdd    = "add-app"
	AppGridRemove = "remove-app"
)

// AppGrid is the payload of modify-app-grid.
type AppGrid struct {
	Action string `json:"action"`
	App    string `json:"app"`
}

// Decode unmarshals an event's payload into target.
func Decode(ev Event, target any) error {
	if len(ev.Data) == 0 {
		return fmt.Errorf("event %q (%s) has no data", ev.Name, ev.Type)
	}
	if err := json.Unmarshal(ev.Data, target); err != nil {
		return fmt.Errorf("decode %s data of %q: %w", ev.Type, ev.Name, err)
	}
	return nil
}
