package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	apperrors "github.com/louisbranch/codinggame/internal/platform/errors"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

func noSuchEvent(name string) error {
	return apperrors.WithMetadata(apperrors.CodeNoSuchEvent,
		fmt.Sprintf("No such event %q", name),
		map[string]string{apperrors.MetadataName: name})
}

func internal(err error) error {
	if err == nil {
		return nil
	}
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return apperrors.Wrap(apperrors.CodeInternal, err.Error(), err)
}

// Start rebuilds in-flight state from the log: it publishes the listeners
// and the active mission once, re-arms pending waits for their remaining
// time, and dispatches the initial event when no mission has started yet.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.publish(); err != nil {
		log.Printf("publish resumed state: %v", err)
	}
	e.resumeTimers()

	if _, ok := eventlog.ActiveMission(e.log.Entries()); ok {
		return nil
	}
	return e.startFirstMission(ctx)
}

func (e *Engine) startFirstMission(ctx context.Context) error {
	ev, err := e.desc.InitialEvent()
	if err != nil {
		return internal(err)
	}
	if err := e.dispatch(ctx, ev); err != nil {
		log.Printf("dispatch initial event %s: %v", ev.Name, err)
		return internal(err)
	}
	return nil
}

// DispatchEventByName dispatches any timeline event. It is a debugging aid
// and fails with FORBIDDEN unless debug mode is enabled.
func (e *Engine) DispatchEventByName(ctx context.Context, name string) error {
	if !e.debug {
		return apperrors.New(apperrors.CodeForbidden, "Not allowed to dispatch events at will")
	}
	ev, ok := e.desc.Event(name)
	if !ok {
		return noSuchEvent(name)
	}
	if err := e.dispatch(ctx, ev); err != nil {
		log.Printf("dispatch %s: %v", name, err)
		return internal(err)
	}
	return nil
}

// FetchChatHistory returns the chat records of actor in log order.
func (e *Engine) FetchChatHistory(actor string) []eventlog.ChatRecord {
	return eventlog.ChatHistory(e.log.Entries(), actor)
}

// ReceiveChatResponse records the user's answer to a chat or input event and
// dispatches the events bound to the chosen response.
func (e *Engine) ReceiveChatResponse(ctx context.Context, id, text, responseKey string) error {
	ev, ok := e.desc.Event(id)
	if !ok || (ev.Type != timeline.TypeChatActor && ev.Type != timeline.TypeInputUser) {
		return noSuchEvent(id)
	}
	var chat timeline.Chat
	if err := timeline.Decode(ev, &chat); err != nil {
		return internal(err)
	}
	next, ok := chat.Responses[responseKey]
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeNoSuchResponse,
			fmt.Sprintf("No such response %q for event %q", responseKey, id),
			map[string]string{apperrors.MetadataName: responseKey})
	}

	turn := timeline.Chat{Name: id, Actor: chat.Actor, Message: text, Styles: chat.Styles}
	if err := e.dispatchInternal(ctx, id+"::response", timeline.TypeChatUser, turn); err != nil {
		return internal(err)
	}
	return internal(e.dispatchNames(ctx, next))
}

// ReceiveExternalEvent ends the listener for id and dispatches the events it
// was waiting to trigger. It fails with IRRELEVANT_EVENT, recording nothing,
// when nothing listens for id.
func (e *Engine) ReceiveExternalEvent(ctx context.Context, id string) error {
	listener, ok := eventlog.ListeningRegistry(e.log.Entries())[id]
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeIrrelevantEvent,
			fmt.Sprintf("Not listening for event %q", id),
			map[string]string{apperrors.MetadataName: id})
	}
	if err := e.dispatchInternal(ctx, listener.Event.Name+"::receive", timeline.TypeReceiveEvent, timeline.NameRef{Name: id}); err != nil {
		return internal(err)
	}
	return internal(e.dispatchNames(ctx, listener.Received))
}

// ReceiveOpenAttachment records that the user opened the attachment of event
// id and dispatches the attachment's open events, if any.
func (e *Engine) ReceiveOpenAttachment(ctx context.Context, id string) error {
	ev, ok := e.desc.Event(id)
	if !ok || ev.Type != timeline.TypeChatActorAttachment {
		return noSuchEvent(id)
	}
	var att timeline.AttachmentChat
	if err := timeline.Decode(ev, &att); err != nil {
		return internal(err)
	}
	if err := e.dispatchInternal(ctx, id+"::opened", timeline.TypeUserOpenedAttachment, timeline.NameRef{Name: id, Actor: att.Actor}); err != nil {
		return internal(err)
	}
	return internal(e.dispatchNames(ctx, att.Attachment.OpenEvents()))
}

// ResetGame returns the game and the desktop to their initial state and
// starts over from the initial event.
func (e *Engine) ResetGame(ctx context.Context) error {
	if err := e.cancelPending(ctx); err != nil {
		return internal(err)
	}

	entries := e.log.Entries()
	settings := eventlog.ChangedSettings(entries)
	copied := eventlog.CopiedFiles(entries)
	grid := eventlog.AppGridModifications(entries)

	if err := e.log.Reset(ctx); err != nil {
		log.Printf("reset event log: %v", err)
	}

	for _, s := range settings {
		e.restoreSetting(ctx, s)
	}
	for _, path := range copied {
		if e.files == nil {
			break
		}
		if err := e.files.Remove(ctx, path); err != nil {
			log.Printf("remove copied file %s: %v", path, err)
		}
	}
	for _, op := range grid {
		if e.appGrid == nil {
			break
		}
		reverse := timeline.AppGridAdd
		if op.Action == timeline.AppGridAdd {
			reverse = timeline.AppGridRemove
		}
		if err := e.applyAppGrid(ctx, reverse, op.App); err != nil {
			log.Printf("revert app grid %s %s: %v", op.Action, op.App, err)
		}
	}

	if err := e.publish(); err != nil {
		log.Printf("publish after reset: %v", err)
	}
	return e.startFirstMission(ctx)
}

func (e *Engine) restoreSetting(ctx context.Context, s eventlog.SettingChange) {
	if e.settings == nil {
		return
	}
	var err error
	if len(s.Previous) == 0 || string(s.Previous) == "null" {
		err = e.settings.ResetSetting(ctx, s.Schema, s.Key)
	} else {
		err = e.settings.SetSetting(ctx, s.Schema, s.Key, json.RawMessage(s.Previous))
	}
	if err != nil {
		log.Printf("restore setting %s %s: %v", s.Schema, s.Key, err)
	}
}
