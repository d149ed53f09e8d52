// Package effects defines the outside-world collaborators the engine drives
// and provides local implementations of them.
package effects

import (
	"context"
	"encoding/json"
	"time"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

// ChatMessage is what the chat transport renders for the user.
type ChatMessage struct {
	Timestamp  time.Time           `json:"timestamp"`
	Actor      string              `json:"actor"`
	Message    string              `json:"message,omitempty"`
	Input      json.RawMessage     `json:"input,omitempty"`
	Attachment timeline.Attachment `json:"attachment,omitempty"`
	Name       string              `json:"name"`
	Styles     []string            `json:"styles"`
}

// Chat delivers messages to the chat front end.
type Chat interface {
	SendChatMessage(ctx context.Context, msg ChatMessage) error
}

// Settings reads and writes desktop settings. Values are JSON encoded; a
// setting holding its default reads as JSON null.
type Settings interface {
	Setting(ctx context.Context, schema, key string) (json.RawMessage, error)
	SetSetting(ctx context.Context, schema, key string, value json.RawMessage) error
	ResetSetting(ctx context.Context, schema, key string) error
}

// AppGrid adds and removes application shortcuts.
type AppGrid interface {
	AddApplication(ctx context.Context, app string) error
	RemoveApplication(ctx context.Context, app string) error
}

// DesktopLocator finds the desktop entry file of an application.
type DesktopLocator interface {
	DesktopFile(app string) (string, error)
}

// Files copies internal game files into user locations and removes them.
type Files interface {
	Copy(ctx context.Context, source, target string) error
	Remove(ctx context.Context, path string) error
}
