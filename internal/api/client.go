package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client talks to a daemon over its unix socket.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon listening on socketPath. The connection is
// established lazily on the first call.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) GetStatus(ctx context.Context) (*GetStatusResponse, error) {
	return invoke[GetStatusResponse](ctx, c.conn, "GetStatus", &GetStatusRequest{})
}

func (c *Client) ListChats(ctx context.Context, limit int) (*ListChatsResponse, error) {
	return invoke[ListChatsResponse](ctx, c.conn, "ListChats", &ListChatsRequest{Limit: limit})
}

func (c *Client) GetConversation(ctx context.Context, id string) (*GetConversationResponse, error) {
	return invoke[GetConversationResponse](ctx, c.conn, "GetConversation", &GetConversationRequest{ConversationID: id})
}

// ListMessages returns a conversation's history. Unlike OpenConversation it
// leaves the unread count alone.
func (c *Client) ListMessages(ctx context.Context, id string) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.conn, "ListMessages", &ListMessagesRequest{ConversationID: id})
}

func (c *Client) OpenConversation(ctx context.Context, id string) (*OpenConversationResponse, error) {
	return invoke[OpenConversationResponse](ctx, c.conn, "OpenConversation", &OpenConversationRequest{ConversationID: id})
}

// SendMessage sends text to a conversation. A nil sender sends as the
// daemon's configured identity.
func (c *Client) SendMessage(ctx context.Context, id, text string, sender *Sender) (*SendMessageResponse, error) {
	req := &SendMessageRequest{ConversationID: id, Text: text, Sender: sender}
	return invoke[SendMessageResponse](ctx, c.conn, "SendMessage", req)
}

func (c *Client) JoinConversation(ctx context.Context, id string) error {
	_, err := invoke[JoinConversationResponse](ctx, c.conn, "JoinConversation", &JoinConversationRequest{ConversationID: id})
	return err
}

func invoke[Resp any](ctx context.Context, conn *grpc.ClientConn, method string, req any) (*Resp, error) {
	out := new(Resp)
	if err := conn.Invoke(ctx, fullMethod(method), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchEvents streams daemon events whose kind starts with namespace until
// ctx is cancelled.
func (c *Client) WatchEvents(ctx context.Context, namespace string) (*EventReceiver, error) {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], fullMethod("WatchEvents"))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&WatchEventsRequest{Namespace: namespace}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventReceiver{stream: stream}, nil
}

// EventReceiver is the client half of WatchEvents.
type EventReceiver struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event.
func (r *EventReceiver) Recv() (*EventEnvelope, error) {
	evt := new(EventEnvelope)
	if err := r.stream.RecvMsg(evt); err != nil {
		return nil, err
	}
	return evt, nil
}
