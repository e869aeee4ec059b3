package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "huddle.v1.Huddle"

// HuddleServer is the server side of huddle.v1.Huddle.
type HuddleServer interface {
	GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error)
	ListChats(context.Context, *ListChatsRequest) (*ListChatsResponse, error)
	GetConversation(context.Context, *GetConversationRequest) (*GetConversationResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	OpenConversation(context.Context, *OpenConversationRequest) (*OpenConversationResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	JoinConversation(context.Context, *JoinConversationRequest) (*JoinConversationResponse, error)
	WatchEvents(*WatchEventsRequest, EventStream) error
}

// EventStream is the server half of WatchEvents.
type EventStream interface {
	Send(*EventEnvelope) error
	Context() context.Context
}

// RegisterHuddleServer registers srv on s.
func RegisterHuddleServer(s grpc.ServiceRegistrar, srv HuddleServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HuddleServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetStatus", HuddleServer.GetStatus),
		unary("ListChats", HuddleServer.ListChats),
		unary("GetConversation", HuddleServer.GetConversation),
		unary("ListMessages", HuddleServer.ListMessages),
		unary("OpenConversation", HuddleServer.OpenConversation),
		unary("SendMessage", HuddleServer.SendMessage),
		unary("JoinConversation", HuddleServer.JoinConversation),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "huddle/v1/huddle",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(HuddleServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(HuddleServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(HuddleServer).WatchEvents(in, &eventServerStream{stream})
}

type eventServerStream struct {
	grpc.ServerStream
}

func (s *eventServerStream) Send(e *EventEnvelope) error {
	return s.ServerStream.SendMsg(e)
}
