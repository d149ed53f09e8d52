package timeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownType is returned when an event carries a type outside the
// closed set.
var ErrUnknownType = errors.New("unknown event type")

// Handler receives one decoded event per type. Implementations must handle
// every type; adding a type to the set breaks every implementation until it
// is handled.
type Handler interface {
	ChatActor(ctx context.Context, ev Event, data Chat) error
	ChatUser(ctx context.Context, ev Event, data Chat) error
	InputUser(ctx context.Context, ev Event, data Chat) error
	ChatActorAttachment(ctx context.Context, ev Event, data AttachmentChat) error
	ChatActorDesktopAttachment(ctx context.Context, ev Event, data AttachmentChat) error
	StartMission(ctx context.Context, ev Event, data MissionRef) error
	RegisterArtifact(ctx context.Context, ev Event, data ArtifactRef) error
	ChangeSetting(ctx context.Context, ev Event, data Setting) error
	ListenEvent(ctx context.Context, ev Event, data Listen) error
	ReceiveEvent(ctx context.Context, ev Event, data NameRef) error
	CopyFile(ctx context.Context, ev Event, data CopyFile) error
	WaitFor(ctx context.Context, ev Event, data WaitFor) error
	WaitForComplete(ctx context.Context, ev Event, data NameRef) error
	WaitForCancelled(ctx context.Context, ev Event, data NameRef) error
	ModifyAppGrid(ctx context.Context, ev Event, data AppGrid) error
	UserOpenedAttachment(ctx context.Context, ev Event, data NameRef) error
}

// Visit decodes ev's payload for its type and calls the matching method of h.
func Visit(ctx context.Context, h Handler, ev Event) error {
	switch ev.Type {
	case TypeChatActor:
		return visitWith(ctx, ev, h.ChatActor)
	case TypeChatUser:
		return visitWith(ctx, ev, h.ChatUser)
	case TypeInputUser:
		return visitWith(ctx, ev, h.InputUser)
	case TypeChatActorAttachment:
		return visitWith(ctx, ev, h.ChatActorAttachment)
	case TypeChatActorDesktopAttachment:
		return visitWith(ctx, ev, h.ChatActorDesktopAttachment)
	case TypeStartMission:
		return visitWith(ctx, ev, h.StartMission)
	case TypeRegisterArtifact:
		return visitWith(ctx, ev, h.RegisterArtifact)
	case TypeChangeSetting:
		return visitWith(ctx, ev, h.ChangeSetting)
	case TypeListenEvent:
		return visitWith(ctx, ev, h.ListenEvent)
	case TypeReceiveEvent:
		return visitWith(ctx, ev, h.ReceiveEvent)
	case TypeCopyFile:
		return visitWith(ctx, ev, h.CopyFile)
	case TypeWaitFor:
		return visitWith(ctx, ev, h.WaitFor)
	case TypeWaitForComplete:
		return visitWith(ctx, ev, h.WaitForComplete)
	case TypeWaitForCancelled:
		return visitWith(ctx, ev, h.WaitForCancelled)
	case TypeModifyAppGrid:
		return visitWith(ctx, ev, h.ModifyAppGrid)
	case TypeUserOpenedAttachment:
		return visitWith(ctx, ev, h.UserOpenedAttachment)
	default:
		return fmt.Errorf("%w %q on event %q", ErrUnknownType, ev.Type, ev.Name)
	}
}

func visitWith[T any](ctx context.Context, ev Event, fn func(context.Context, Event, T) error) error {
	var data T
	if err := Decode(ev, &data); err != nil {
		return err
	}
	return fn(ctx, ev, data)
}
