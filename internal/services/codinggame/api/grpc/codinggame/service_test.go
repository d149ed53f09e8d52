package codinggame

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/louisbranch/codinggame/internal/platform/errors"
	grpcmeta "github.com/louisbranch/codinggame/internal/services/codinggame/api/grpc/metadata"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/engine"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/mission"
	"github.com/louisbranch/codinggame/internal/services/codinggame/effects"
)

type fakeRuntime struct {
	dispatched []string
	responses  [][3]string
	received   []string
	opened     []string
	resets     int
	err        error
	history    []eventlog.ChatRecord
	snapshot   engine.Snapshot
}

func (f *fakeRuntime) DispatchEventByName(_ context.Context, name string) error {
	f.dispatched = append(f.dispatched, name)
	return f.err
}

func (f *fakeRuntime) FetchChatHistory(context.Context, string) ([]eventlog.ChatRecord, error) {
	return f.history, f.err
}

func (f *fakeRuntime) ReceiveChatResponse(_ context.Context, id, text, key string) error {
	f.responses = append(f.responses, [3]string{id, text, key})
	return f.err
}

func (f *fakeRuntime) ReceiveExternalEvent(_ context.Context, id string) error {
	f.received = append(f.received, id)
	return f.err
}

func (f *fakeRuntime) ReceiveOpenAttachment(_ context.Context, id string) error {
	f.opened = append(f.opened, id)
	return f.err
}

func (f *fakeRuntime) ResetGame(context.Context) error {
	f.resets++
	return f.err
}

func (f *fakeRuntime) State(context.Context) (engine.Snapshot, error) {
	return f.snapshot, f.err
}

func newTestClient(t *testing.T, runtime Runtime, chat ChatSource) CodingGameServiceClient {
	t.Helper()
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcmeta.UnaryServerInterceptor(nil)),
		grpc.ChainStreamInterceptor(grpcmeta.StreamServerInterceptor(nil)),
	)
	RegisterCodingGameServiceServer(server, NewService(runtime, chat))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewCodingGameServiceClient(conn)
}

func TestDispatchEventByNameForwards(t *testing.T) {
	runtime := &fakeRuntime{}
	client := newTestClient(t, runtime, nil)

	var header metadata.MD
	_, err := client.DispatchEventByName(context.Background(), wrapperspb.String("intro"), grpc.Header(&header))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(runtime.dispatched) != 1 || runtime.dispatched[0] != "intro" {
		t.Fatalf("expected intro dispatched, got %v", runtime.dispatched)
	}
	if len(header.Get(grpcmeta.RequestIDHeader)) != 1 {
		t.Fatalf("expected request id header, got %v", header)
	}
}

func TestErrorsCarryCodeAndLocalizedMessage(t *testing.T) {
	runtime := &fakeRuntime{err: apperrors.WithMetadata(apperrors.CodeIrrelevantEvent,
		`Not listening for event "x"`, map[string]string{apperrors.MetadataName: "x"})}
	client := newTestClient(t, runtime, nil)

	ctx := metadata.AppendToOutgoingContext(context.Background(), grpcmeta.AcceptLanguageHeader, "pt-BR")
	_, err := client.ReceiveExternalEvent(ctx, wrapperspb.String("x"))
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.FailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", err)
	}
	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.Reason != string(apperrors.CodeIrrelevantEvent) {
		t.Fatalf("unexpected error info %v", info)
	}
	if localized == nil || localized.Locale != "pt-BR" || localized.Message != `Nenhum ouvinte para o evento "x"` {
		t.Fatalf("unexpected localized message %v", localized)
	}
}

func TestUncodedErrorsAreInternal(t *testing.T) {
	runtime := &fakeRuntime{err: engine.ErrLoopStopped}
	client := newTestClient(t, runtime, nil)

	_, err := client.ResetGame(context.Background(), &emptypb.Empty{})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected internal, got %v", err)
	}
}

func TestFetchChatHistory(t *testing.T) {
	runtime := &fakeRuntime{history: []eventlog.ChatRecord{
		{Actor: "ada", Message: "hi", Name: "hello", Type: "chat-actor", Timestamp: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		{Actor: "ada", Message: "yes", Name: "hello::response", Type: "chat-user"},
	}}
	client := newTestClient(t, runtime, nil)

	list, err := client.FetchChatHistory(context.Background(), wrapperspb.String("ada"))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(list.GetValues()) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list.GetValues()))
	}
	first := list.GetValues()[0].GetStructValue().GetFields()
	if first["name"].GetStringValue() != "hello" || first["message"].GetStringValue() != "hi" {
		t.Fatalf("unexpected record %v", first)
	}
	if first["timestamp"].GetStringValue() != "2026-05-01T09:00:00Z" {
		t.Fatalf("unexpected timestamp %v", first["timestamp"])
	}
}

func TestReceiveChatResponse(t *testing.T) {
	runtime := &fakeRuntime{}
	client := newTestClient(t, runtime, nil)

	req, err := structpb.NewStruct(map[string]any{"id": "hello", "text": "yes", "response": "ok"})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if _, err := client.ReceiveChatResponse(context.Background(), req); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if len(runtime.responses) != 1 || runtime.responses[0] != [3]string{"hello", "yes", "ok"} {
		t.Fatalf("unexpected responses %v", runtime.responses)
	}

	bad, _ := structpb.NewStruct(map[string]any{"id": "hello", "text": 3})
	if _, err := client.ReceiveChatResponse(context.Background(), bad); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestOpenAttachmentAndReset(t *testing.T) {
	runtime := &fakeRuntime{}
	client := newTestClient(t, runtime, nil)

	if _, err := client.ReceiveOpenAttachment(context.Background(), wrapperspb.String("doc")); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := client.ResetGame(context.Background(), &emptypb.Empty{}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(runtime.opened) != 1 || runtime.resets != 1 {
		t.Fatalf("expected open and reset forwarded, got %v %d", runtime.opened, runtime.resets)
	}
}

func TestGetGameState(t *testing.T) {
	runtime := &fakeRuntime{snapshot: engine.Snapshot{
		Mission:      &mission.State{Mission: "m1", PointsAvailable: 15, EarnedArtifacts: []mission.EarnedArtifact{}},
		ListeningFor: []string{"app-opened"},
	}}
	client := newTestClient(t, runtime, nil)

	st, err := client.GetGameState(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	m := st.GetFields()["mission"].GetStructValue().GetFields()
	if m["current_mission"].GetStringValue() != "m1" || m["current_mission_available_points"].GetNumberValue() != 15 {
		t.Fatalf("unexpected mission %v", m)
	}
	listening := st.GetFields()["listening_for"].GetListValue().GetValues()
	if len(listening) != 1 || listening[0].GetStringValue() != "app-opened" {
		t.Fatalf("unexpected listeners %v", listening)
	}
}

func TestSubscribeChat(t *testing.T) {
	hub := effects.NewChatHub()
	client := newTestClient(t, &fakeRuntime{}, hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := client.SubscribeChat(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := hub.SendChatMessage(ctx, effects.ChatMessage{Actor: "ada", Message: "hi", Name: "hello", Styles: []string{}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	msg, err := stream.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if msg.GetFields()["message"].GetStringValue() != "hi" || msg.GetFields()["actor"].GetStringValue() != "ada" {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestSubscribeChatWithoutSource(t *testing.T) {
	client := newTestClient(t, &fakeRuntime{}, nil)
	stream, err := client.SubscribeChat(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := stream.Recv(); status.Code(err) != codes.Unimplemented {
		t.Fatalf("expected unimplemented, got %v", err)
	}
}

func TestHandleErrorContext(t *testing.T) {
	err := handleError(context.Background(), errors.Join(context.DeadlineExceeded))
	if status.Code(err) != codes.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if handleError(context.Background(), nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
