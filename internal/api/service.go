package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/catalog"
	"github.com/matheus3301/huddle/internal/chatlist"
	"github.com/matheus3301/huddle/internal/readstate"
	"github.com/matheus3301/huddle/internal/status"
	"github.com/matheus3301/huddle/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Service implements huddle.v1.Huddle over the conversation store.
type Service struct {
	profile    string
	startedAt  time.Time
	machine    *status.Machine
	catalog    *catalog.Catalog
	store      *store.Store
	builder    *chatlist.Builder
	controller *readstate.Controller
	bus        *bus.Bus
	logger     *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewService creates the service. logger may be nil.
func NewService(
	profile string,
	machine *status.Machine,
	cat *catalog.Catalog,
	st *store.Store,
	builder *chatlist.Builder,
	controller *readstate.Controller,
	b *bus.Bus,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		profile:    profile,
		startedAt:  time.Now(),
		machine:    machine,
		catalog:    cat,
		store:      st,
		builder:    builder,
		controller: controller,
		bus:        b,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Close ends open event streams so a graceful server stop does not wait on
// them. Unary calls keep working.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Service) GetStatus(_ context.Context, _ *GetStatusRequest) (*GetStatusResponse, error) {
	current := s.machine.Current()
	resp := &GetStatusResponse{
		Profile:           s.profile,
		Status:            string(current),
		Reason:            s.machine.Reason(),
		UptimeMs:          time.Since(s.startedAt).Milliseconds(),
		Identity:          s.controller.Identity().Name,
		ConversationCount: len(s.catalog.Conversations),
	}
	var failed int
	for _, c := range s.catalog.Conversations {
		n, err := s.store.MessageCount(c.ID)
		if err != nil {
			failed++
			s.logger.Warn("message count unavailable", zap.String("conversation_id", c.ID), zap.Error(err))
			continue
		}
		resp.MessageCount += n
	}
	if failed > 0 {
		note := fmt.Sprintf("message count incomplete: %d of %d conversations unreadable", failed, len(s.catalog.Conversations))
		if resp.Reason != "" {
			note = resp.Reason + "; " + note
		}
		resp.Reason = note
	}
	return resp, nil
}

func (s *Service) ListChats(_ context.Context, req *ListChatsRequest) (*ListChatsResponse, error) {
	entries, err := s.builder.Build(s.catalog.Candidates())
	if err != nil {
		return nil, s.toStatus("list chats", err)
	}
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	chats := make([]Chat, 0, len(entries))
	for _, e := range entries {
		chats = append(chats, chatFromEntry(e))
	}
	return &ListChatsResponse{Chats: chats}, nil
}

func (s *Service) GetConversation(_ context.Context, req *GetConversationRequest) (*GetConversationResponse, error) {
	conv, err := s.lookup(req.ConversationID)
	if err != nil {
		return nil, err
	}
	st, err := s.store.Get(conv.ID)
	if err != nil {
		return nil, s.toStatus("get conversation", err)
	}
	n, err := s.store.MessageCount(conv.ID)
	if err != nil {
		return nil, s.toStatus("get conversation", err)
	}
	return &GetConversationResponse{Conversation: Conversation{
		ID:               conv.ID,
		Title:            conv.Title,
		ParticipantCount: conv.Participants,
		LastMessageText:  st.LastMessageText,
		LastMessageAtMs:  st.LastMessageAt.UnixMilli(),
		UnreadCount:      st.UnreadCount,
		IsMember:         st.IsMember,
		MessageCount:     n,
	}}, nil
}

func (s *Service) ListMessages(_ context.Context, req *ListMessagesRequest) (*ListMessagesResponse, error) {
	conv, err := s.lookup(req.ConversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.LoadAll(conv.ID)
	if err != nil {
		return nil, s.toStatus("list messages", err)
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageFromStore(m))
	}
	return &ListMessagesResponse{Messages: out}, nil
}

func (s *Service) OpenConversation(_ context.Context, req *OpenConversationRequest) (*OpenConversationResponse, error) {
	if _, err := s.lookup(req.ConversationID); err != nil {
		return nil, err
	}
	msgs, err := s.controller.OnOpenConversation(req.ConversationID)
	if err != nil {
		return nil, s.toStatus("open conversation", err)
	}
	s.recovered()
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageFromStore(m))
	}
	return &OpenConversationResponse{Messages: out}, nil
}

func (s *Service) SendMessage(_ context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	if _, err := s.lookup(req.ConversationID); err != nil {
		return nil, err
	}
	var (
		m   store.Message
		err error
	)
	if req.Sender == nil {
		m, err = s.controller.SendAsCurrentUser(req.ConversationID, req.Text)
	} else {
		m, err = s.controller.OnSend(req.ConversationID, req.Text, readstate.Sender{
			ID:            req.Sender.ID,
			Name:          req.Sender.Name,
			Avatar:        req.Sender.Avatar,
			IsCurrentUser: req.Sender.ID == s.controller.Identity().ID,
		})
	}
	if err != nil {
		return nil, s.toStatus("send message", err)
	}
	s.recovered()
	return &SendMessageResponse{Message: messageFromStore(m)}, nil
}

func (s *Service) JoinConversation(_ context.Context, req *JoinConversationRequest) (*JoinConversationResponse, error) {
	if _, err := s.lookup(req.ConversationID); err != nil {
		return nil, err
	}
	if err := s.controller.OnJoinConversation(req.ConversationID); err != nil {
		return nil, s.toStatus("join conversation", err)
	}
	s.recovered()
	return &JoinConversationResponse{}, nil
}

func (s *Service) WatchEvents(req *WatchEventsRequest, stream EventStream) error {
	ch, unsub := s.bus.Subscribe(req.Namespace, 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			if err := stream.Send(s.envelope(evt)); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		case <-s.done:
			return nil
		}
	}
}

func (s *Service) envelope(evt bus.Event) *EventEnvelope {
	env := &EventEnvelope{
		EventID:      evt.ID,
		Profile:      s.profile,
		Kind:         evt.Kind,
		OccurredAtMs: evt.Timestamp.UnixMilli(),
	}
	switch p := evt.Payload.(type) {
	case readstate.Change:
		env.ConversationID = p.ConversationID
		env.MessageID = p.MessageID
	case status.StatusChange:
		env.From = string(p.From)
		env.To = string(p.To)
	}
	return env
}

func (s *Service) lookup(id string) (catalog.Conversation, error) {
	if id == "" {
		return catalog.Conversation{}, grpcstatus.Error(codes.InvalidArgument, "conversation_id is required")
	}
	conv, ok := s.catalog.Lookup(id)
	if !ok {
		return catalog.Conversation{}, grpcstatus.Errorf(codes.NotFound, "conversation %q not found", id)
	}
	return conv, nil
}

// toStatus maps store errors to gRPC codes. A persistence fault also marks
// the daemon degraded until the next successful write.
func (s *Service) toStatus(op string, err error) error {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		return grpcstatus.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	}
	var perr *store.PersistenceError
	if errors.As(err, &perr) && s.machine.Current() == status.Ready {
		if terr := s.machine.TransitionWithReason(status.Degraded, perr.Error()); terr != nil {
			s.logger.Warn("status transition failed", zap.Error(terr))
		}
	}
	return grpcstatus.Errorf(codes.Internal, "%s: %v", op, err)
}

func (s *Service) recovered() {
	if s.machine.Current() != status.Degraded {
		return
	}
	if err := s.machine.Transition(status.Ready); err == nil {
		s.logger.Info("store recovered")
	}
}

func chatFromEntry(e chatlist.Entry) Chat {
	return Chat{
		ConversationID:   e.ConversationID,
		Title:            e.Title,
		LastMessageText:  e.LastMessageText,
		LastMessageAtMs:  e.LastMessageAt.UnixMilli(),
		ParticipantCount: e.ParticipantCount,
		UnreadCount:      e.UnreadCount,
	}
}

func messageFromStore(m store.Message) Message {
	return Message{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		SenderID:        m.SenderID,
		SenderName:      m.SenderName,
		SenderAvatar:    m.SenderAvatar,
		Text:            m.Text,
		SentAtMs:        m.SentAt.UnixMilli(),
		FromCurrentUser: m.FromCurrentUser,
	}
}
