package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
	"github.com/louisbranch/codinggame/internal/services/codinggame/effects"
)

var _ timeline.Handler = (*Engine)(nil)

func (e *Engine) sendChat(ctx context.Context, entry eventlog.Entry, msg effects.ChatMessage) {
	if e.chat == nil {
		log.Printf("send chat %s: %v", entry.Name, ErrMissingCollaborator)
		return
	}
	msg.Timestamp = entry.Timestamp
	msg.Name = entry.Name
	if msg.Styles == nil {
		msg.Styles = []string{}
	}
	if err := e.chat.SendChatMessage(ctx, msg); err != nil {
		log.Printf("send chat %s: %v", entry.Name, err)
	}
}

// ChatActor records the line and shows it to the user.
func (e *Engine) ChatActor(ctx context.Context, ev timeline.Event, data timeline.Chat) error {
	entry := e.record(ctx, ev, nil)
	e.sendChat(ctx, entry, effects.ChatMessage{Actor: data.Actor, Message: data.Message, Styles: data.Styles})
	return nil
}

// ChatUser records the user's own turn.
func (e *Engine) ChatUser(ctx context.Context, ev timeline.Event, _ timeline.Chat) error {
	e.record(ctx, ev, nil)
	return nil
}

// InputUser records the prompt and asks the chat front end for input.
func (e *Engine) InputUser(ctx context.Context, ev timeline.Event, data timeline.Chat) error {
	entry := e.record(ctx, ev, nil)
	e.sendChat(ctx, entry, effects.ChatMessage{Actor: data.Actor, Input: data.Input, Styles: data.Styles})
	return nil
}

// ChatActorAttachment resolves the attachment path, records it and sends it.
func (e *Engine) ChatActorAttachment(ctx context.Context, ev timeline.Event, data timeline.AttachmentChat) error {
	return e.sendAttachment(ctx, ev, data, data.Attachment.Path())
}

// ChatActorDesktopAttachment sends an application's desktop entry. Without
// an explicit path the entry is located from the app id; when that fails the
// event is recorded with the attachment unresolved and nothing is sent.
func (e *Engine) ChatActorDesktopAttachment(ctx context.Context, ev timeline.Event, data timeline.AttachmentChat) error {
	path := data.Attachment.Path()
	if path == "" {
		if e.desktop == nil {
			return fmt.Errorf("locate desktop file: %w", ErrMissingCollaborator)
		}
		found, err := e.desktop.DesktopFile(data.Attachment.App())
		if err != nil {
			log.Printf("locate desktop file %s: %v", data.Attachment.App(), err)
			e.record(ctx, ev, nil)
			return nil
		}
		path = found
	}
	return e.sendAttachment(ctx, ev, data, path)
}

func (e *Engine) sendAttachment(ctx context.Context, ev timeline.Event, data timeline.AttachmentChat, path string) error {
	resolved, err := e.resolvePath(ctx, path)
	if err != nil {
		return err
	}
	data.Attachment = data.Attachment.WithPath(resolved)
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode attachment of %q: %w", ev.Name, err)
	}
	entry := e.record(ctx, ev, raw)
	e.sendChat(ctx, entry, effects.ChatMessage{Actor: data.Actor, Attachment: data.Attachment, Styles: data.Styles})
	return nil
}

// StartMission records the start, cancels timers left by the previous
// mission, publishes the new mission state and dispatches the mission's
// start events that have not happened yet.
func (e *Engine) StartMission(ctx context.Context, ev timeline.Event, data timeline.MissionRef) error {
	m, _, ok := e.desc.Mission(data.Name)
	if !ok {
		return fmt.Errorf("%w: %q", timeline.ErrUndefinedMission, data.Name)
	}
	e.record(ctx, ev, nil)

	if err := e.cancelPending(ctx); err != nil {
		return err
	}
	if err := e.publish(); err != nil {
		return err
	}

	for _, name := range m.StartEvents {
		if eventlog.EventHasOccurred(e.log.Entries(), name) {
			continue
		}
		start, ok := e.desc.Event(name)
		if !ok {
			return fmt.Errorf("%w: %q, cannot start mission %q", timeline.ErrUndefinedEvent, name, m.Name)
		}
		if err := e.dispatchNested(ctx, start); err != nil {
			return err
		}
	}
	return nil
}

// RegisterArtifact records the artifact and republishes the mission score.
func (e *Engine) RegisterArtifact(ctx context.Context, ev timeline.Event, _ timeline.ArtifactRef) error {
	e.record(ctx, ev, nil)
	if e.snapshot.Mission == nil {
		return nil
	}
	return e.publish()
}

// ChangeSetting resolves the value against the current one, records the
// change with the previous value, then applies it. When the current value
// cannot be read the change is still recorded, with a null previous value,
// unless resolving the new value needs it.
func (e *Engine) ChangeSetting(ctx context.Context, ev timeline.Event, data timeline.Setting) error {
	if e.settings == nil {
		return fmt.Errorf("change setting: %w", ErrMissingCollaborator)
	}
	current, err := e.settings.Setting(ctx, data.Schema, data.Key)
	if err != nil {
		if dependsOnCurrent(data.Value) {
			return fmt.Errorf("read setting %s %s: %w", data.Schema, data.Key, err)
		}
		log.Printf("read setting %s %s: %v", data.Schema, data.Key, err)
		current = json.RawMessage("null")
	}
	value, err := e.resolveSettingValue(data.Value, current)
	if err != nil {
		return fmt.Errorf("change setting %q: %w", ev.Name, err)
	}

	data.Previous = current
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode setting of %q: %w", ev.Name, err)
	}
	e.record(ctx, ev, raw)

	if err := e.settings.SetSetting(ctx, data.Schema, data.Key, value); err != nil {
		log.Printf("set setting %s %s: %v", data.Schema, data.Key, err)
	}
	return nil
}

// ListenEvent records the listener and republishes the listening set.
func (e *Engine) ListenEvent(ctx context.Context, ev timeline.Event, _ timeline.Listen) error {
	e.record(ctx, ev, nil)
	return e.publish()
}

// ReceiveEvent records the reception, which ends the listener.
func (e *Engine) ReceiveEvent(ctx context.Context, ev timeline.Event, _ timeline.NameRef) error {
	e.record(ctx, ev, nil)
	return e.publish()
}

// CopyFile records the copy and performs it.
func (e *Engine) CopyFile(ctx context.Context, ev timeline.Event, data timeline.CopyFile) error {
	if e.files == nil {
		return fmt.Errorf("copy file: %w", ErrMissingCollaborator)
	}
	e.record(ctx, ev, nil)
	if err := e.files.Copy(ctx, data.Source, data.Target); err != nil {
		log.Printf("copy %s to %s: %v", data.Source, data.Target, err)
	}
	return nil
}

// WaitFor records the wait and arms its timer.
func (e *Engine) WaitFor(ctx context.Context, ev timeline.Event, data timeline.WaitFor) error {
	e.record(ctx, ev, nil)
	e.arm(ev.Name, data, time.Duration(data.Timeout)*time.Millisecond)
	return nil
}

// WaitForComplete records a timer completion marker.
func (e *Engine) WaitForComplete(ctx context.Context, ev timeline.Event, _ timeline.NameRef) error {
	e.record(ctx, ev, nil)
	return nil
}

// WaitForCancelled records a timer cancellation marker.
func (e *Engine) WaitForCancelled(ctx context.Context, ev timeline.Event, _ timeline.NameRef) error {
	e.record(ctx, ev, nil)
	return nil
}

// ModifyAppGrid records the change and applies it to the app grid.
func (e *Engine) ModifyAppGrid(ctx context.Context, ev timeline.Event, data timeline.AppGrid) error {
	if e.appGrid == nil {
		return fmt.Errorf("modify app grid: %w", ErrMissingCollaborator)
	}
	if data.Action != timeline.AppGridAdd && data.Action != timeline.AppGridRemove {
		return fmt.Errorf("%w %q for app %q", ErrBadAction, data.Action, data.App)
	}
	e.record(ctx, ev, nil)
	if err := e.applyAppGrid(ctx, data.Action, data.App); err != nil {
		log.Printf("modify app grid %s %s: %v", data.Action, data.App, err)
	}
	return nil
}

// UserOpenedAttachment records that the user opened an attachment.
func (e *Engine) UserOpenedAttachment(ctx context.Context, ev timeline.Event, _ timeline.NameRef) error {
	e.record(ctx, ev, nil)
	return nil
}

func (e *Engine) applyAppGrid(ctx context.Context, action, app string) error {
	switch action {
	case timeline.AppGridAdd:
		return e.appGrid.AddApplication(ctx, app)
	case timeline.AppGridRemove:
		return e.appGrid.RemoveApplication(ctx, app)
	default:
		return fmt.Errorf("%w %q", ErrBadAction, action)
	}
}
