package codinggame

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/louisbranch/codinggame/internal/platform/errors"
	"github.com/louisbranch/codinggame/internal/platform/errors/i18n"
	grpcmeta "github.com/louisbranch/codinggame/internal/services/codinggame/api/grpc/metadata"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/engine"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/effects"
)

// Runtime is the game runtime the service forwards to.
type Runtime interface {
	DispatchEventByName(ctx context.Context, name string) error
	FetchChatHistory(ctx context.Context, actor string) ([]eventlog.ChatRecord, error)
	ReceiveChatResponse(ctx context.Context, id, text, responseKey string) error
	ReceiveExternalEvent(ctx context.Context, id string) error
	ReceiveOpenAttachment(ctx context.Context, id string) error
	ResetGame(ctx context.Context) error
	State(ctx context.Context) (engine.Snapshot, error)
}

// ChatSource streams the chat messages the engine sends.
type ChatSource interface {
	Subscribe(ctx context.Context) <-chan effects.ChatMessage
}

// Service implements CodingGameServiceServer.
type Service struct {
	runtime Runtime
	chat    ChatSource
}

var _ CodingGameServiceServer = (*Service)(nil)

// NewService creates the gRPC service. chat may be nil, in which case
// SubscribeChat is unimplemented.
func NewService(runtime Runtime, chat ChatSource) *Service {
	return &Service{runtime: runtime, chat: chat}
}

// DispatchEventByName dispatches a timeline event by name. Debug mode only.
func (s *Service) DispatchEventByName(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.runtime.DispatchEventByName(ctx, in.GetValue()); err != nil {
		return nil, handleError(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

// FetchChatHistory returns the chat records of an actor.
func (s *Service) FetchChatHistory(ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error) {
	history, err := s.runtime.FetchChatHistory(ctx, in.GetValue())
	if err != nil {
		return nil, handleError(ctx, err)
	}
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(history))}
	for _, record := range history {
		st, err := toStruct(record)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		list.Values = append(list.Values, structpb.NewStructValue(st))
	}
	return list, nil
}

// ReceiveChatResponse records the user's answer to a chat event.
func (s *Service) ReceiveChatResponse(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	id, err := stringField(in, "id")
	if err != nil {
		return nil, err
	}
	text, err := stringField(in, "text")
	if err != nil {
		return nil, err
	}
	response, err := stringField(in, "response")
	if err != nil {
		return nil, err
	}
	if err := s.runtime.ReceiveChatResponse(ctx, id, text, response); err != nil {
		return nil, handleError(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

// ReceiveExternalEvent delivers an external event to its listener.
func (s *Service) ReceiveExternalEvent(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.runtime.ReceiveExternalEvent(ctx, in.GetValue()); err != nil {
		return nil, handleError(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

// ReceiveOpenAttachment reports that the user opened an attachment.
func (s *Service) ReceiveOpenAttachment(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.runtime.ReceiveOpenAttachment(ctx, in.GetValue()); err != nil {
		return nil, handleError(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

// ResetGame starts the game over.
func (s *Service) ResetGame(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.runtime.ResetGame(ctx); err != nil {
		return nil, handleError(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

// GetGameState returns the current mission snapshot and listeners.
func (s *Service) GetGameState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snapshot, err := s.runtime.State(ctx)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	st, err := toStruct(snapshot)
	if err != nil {
		return nil, handleError(ctx, err)
	}
	return st, nil
}

// SubscribeChat streams every chat message sent after the call starts.
func (s *Service) SubscribeChat(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	if s.chat == nil {
		return status.Error(codes.Unimplemented, "chat streaming is not enabled")
	}
	ctx := stream.Context()
	for msg := range s.chat.Subscribe(ctx) {
		st, err := toStruct(msg)
		if err != nil {
			return handleError(ctx, err)
		}
		if err := stream.Send(st); err != nil {
			return err
		}
	}
	return nil
}

// handleError converts a runtime error into a gRPC status with a message
// localized for the caller.
func handleError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	appErr := apperrors.As(err)
	locale, message := i18n.Default.Localize(grpcmeta.AcceptLanguageFromContext(ctx), string(appErr.Code), appErr.Metadata)
	return appErr.ToGRPCStatus(locale, message)
}

func stringField(in *structpb.Struct, key string) (string, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", key)
	}
	return s.StringValue, nil
}

// toStruct converts a JSON-tagged value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return structpb.NewStruct(fields)
}
