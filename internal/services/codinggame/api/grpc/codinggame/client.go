package codinggame

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CodingGameServiceClient is the client API of the coding game service.
type CodingGameServiceClient interface {
	DispatchEventByName(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	FetchChatHistory(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
	ReceiveChatResponse(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ReceiveExternalEvent(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ReceiveOpenAttachment(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ResetGame(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetGameState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	SubscribeChat(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
}

type codingGameServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCodingGameServiceClient returns a client bound to cc.
func NewCodingGameServiceClient(cc grpc.ClientConnInterface) CodingGameServiceClient {
	return &codingGameServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *codingGameServiceClient) DispatchEventByName(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, CodingGameService_DispatchEventByName_FullMethodName, in, opts)
}

func (c *codingGameServiceClient) FetchChatHistory(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, CodingGameService_FetchChatHistory_FullMethodName, in, opts)
}

func (c *codingGameServiceClient) ReceiveChatResponse(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, CodingGameService_ReceiveChatResponse_FullMethodName, in, opts)
}

func (c *codingGameServiceClient) ReceiveExternalEvent(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, CodingGameService_ReceiveExternalEvent_FullMethodName, in, opts)
}

func (c *codingGameServiceClient) ReceiveOpenAttachment(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, CodingGameService_ReceiveOpenAttachment_FullMethodName, in, opts)
}

func (c *codingGameServiceClient) ResetGame(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, CodingGameService_ResetGame_FullMethodName, in, opts)
}

func (c *codingGameServiceClient) GetGameState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, CodingGameService_GetGameState_FullMethodName, in, opts)
}

func (c *codingGameServiceClient) SubscribeChat(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &CodingGameService_ServiceDesc.Streams[0], CodingGameService_SubscribeChat_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
