package codinggame

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "codinggame.v1.CodingGameService"

const (
	CodingGameService_DispatchEventByName_FullMethodName   = "/" + ServiceName + "/DispatchEventByName"
	CodingGameService_FetchChatHistory_FullMethodName      = "/" + ServiceName + "/FetchChatHistory"
	CodingGameService_ReceiveChatResponse_FullMethodName   = "/" + ServiceName + "/ReceiveChatResponse"
	CodingGameService_ReceiveExternalEvent_FullMethodName  = "/" + ServiceName + "/ReceiveExternalEvent"
	CodingGameService_ReceiveOpenAttachment_FullMethodName = "/" + ServiceName + "/ReceiveOpenAttachment"
	CodingGameService_ResetGame_FullMethodName             = "/" + ServiceName + "/ResetGame"
	CodingGameService_GetGameState_FullMethodName          = "/" + ServiceName + "/GetGameState"
	CodingGameService_SubscribeChat_FullMethodName         = "/" + ServiceName + "/SubscribeChat"
)

// CodingGameServiceServer is the server API of the coding game service.
//
// Requests and responses use protobuf well-known types:
//   - event and actor names travel as StringValue;
//   - a chat response is a Struct with string fields id, text and response;
//   - chat records, chat messages and the game state are Structs mirroring
//     their JSON form.
type CodingGameServiceServer interface {
	DispatchEventByName(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	FetchChatHistory(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	ReceiveChatResponse(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ReceiveExternalEvent(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ReceiveOpenAttachment(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ResetGame(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetGameState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SubscribeChat(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterCodingGameServiceServer registers srv on s.
func RegisterCodingGameServiceServer(s grpc.ServiceRegistrar, srv CodingGameServiceServer) {
	s.RegisterService(&CodingGameService_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler.
func unaryHandler[Req, Resp proto.Message](fullMethod string, newReq func() Req, call func(CodingGameServiceServer, context.Context, Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(CodingGameServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func newEmpty() *emptypb.Empty            { return new(emptypb.Empty) }
func newStruct() *structpb.Struct         { return new(structpb.Struct) }

func subscribeChatHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CodingGameServiceServer).SubscribeChat(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// CodingGameService_ServiceDesc describes the service for grpc.Server.
var CodingGameService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CodingGameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "DispatchEventByName",
			Handler: unaryHandler(CodingGameService_DispatchEventByName_FullMethodName, newString,
				CodingGameServiceServer.DispatchEventByName),
		},
		{
			MethodName: "FetchChatHistory",
			Handler: unaryHandler(CodingGameService_FetchChatHistory_FullMethodName, newString,
				CodingGameServiceServer.FetchChatHistory),
		},
		{
			MethodName: "ReceiveChatResponse",
			Handler: unaryHandler(CodingGameService_ReceiveChatResponse_FullMethodName, newStruct,
				CodingGameServiceServer.ReceiveChatResponse),
		},
		{
			MethodName: "ReceiveExternalEvent",
			Handler: unaryHandler(CodingGameService_ReceiveExternalEvent_FullMethodName, newString,
				CodingGameServiceServer.ReceiveExternalEvent),
		},
		{
			MethodName: "ReceiveOpenAttachment",
			Handler: unaryHandler(CodingGameService_ReceiveOpenAttachment_FullMethodName, newString,
				CodingGameServiceServer.ReceiveOpenAttachment),
		},
		{
			MethodName: "ResetGame",
			Handler: unaryHandler(CodingGameService_ResetGame_FullMethodName, newEmpty,
				CodingGameServiceServer.ResetGame),
		},
		{
			MethodName: "GetGameState",
			Handler: unaryHandler(CodingGameService_GetGameState_FullMethodName, newEmpty,
				CodingGameServiceServer.GetGameState),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SubscribeChat",
			Handler:       subscribeChatHandler,
			ServerStreams: true,
		},
	},
	Metadata: "codinggame/v1/service.proto",
}
