package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"dogwalk/internal/domain"
	"dogwalk/internal/observability"
	"dogwalk/internal/realtime"
	"dogwalk/internal/repository"
)

// MessageService handles owner/walker chat.
type MessageService struct {
	conversationRepo repository.ConversationRepository
	ownerRepo        repository.OwnerRepository
	walkerRepo       repository.WalkerRepository
	feed             realtime.Feed
	logger           *slog.Logger
}

// NewMessageService creates a new MessageService. feed may be nil, in which
// case messages are stored but not pushed.
func NewMessageService(
	conversationRepo repository.ConversationRepository,
	ownerRepo repository.OwnerRepository,
	walkerRepo repository.WalkerRepository,
	feed realtime.Feed,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		conversationRepo: conversationRepo,
		ownerRepo:        ownerRepo,
		walkerRepo:       walkerRepo,
		feed:             feed,
		logger:           logger,
	}
}

// OpenConversation returns the owner's conversation with the walker,
// creating it on first contact.
func (s *MessageService) OpenConversation(ctx context.Context, ownerID, walkerID string) (*domain.Conversation, error) {
	if ownerID == "" {
		return nil, ErrInvalidOwnerID
	}
	if walkerID == "" {
		return nil, ErrInvalidWalkerID
	}

	c, err := s.conversationRepo.GetByParticipants(ctx, ownerID, walkerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if _, err := s.ownerRepo.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	if _, err := s.walkerRepo.GetByID(ctx, walkerID); err != nil {
		return nil, err
	}

	now := time.Now()
	c = &domain.Conversation{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		WalkerID:  walkerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversationRepo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with the other side opening the same pair
			return s.conversationRepo.GetByParticipants(ctx, ownerID, walkerID)
		}
		return nil, err
	}
	return c, nil
}

// ListConversations returns the user's conversations, most recent first.
func (s *MessageService) ListConversations(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.conversationRepo.ListByUser(ctx, userID)
}

// ListMessages returns the conversation history for a participant.
func (s *MessageService) ListMessages(ctx context.Context, conversationID, userID string) ([]*domain.Message, error) {
	if _, err := s.participant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.conversationRepo.ListMessages(ctx, conversationID)
}

// SendMessage stores a message from senderID to the other participant and
// pushes it to live subscribers.
func (s *MessageService) SendMessage(ctx context.Context, conversationID, senderID, text string) (*domain.Message, error) {
	c, err := s.participant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > domain.MaxMessageLength {
		return nil, ErrInvalidMessage
	}

	m := &domain.Message{
		ID:             uuid.New().String(),
		ConversationID: c.ID,
		SenderID:       senderID,
		ReceiverID:     c.Counterpart(senderID),
		Text:           text,
		CreatedAt:      time.Now(),
	}
	if err := s.conversationRepo.AppendMessage(ctx, m); err != nil {
		return nil, err
	}
	observability.MessagesSentTotal.Inc()

	if s.feed != nil {
		e, err := realtime.NewMessageInsert(m)
		if err == nil {
			err = s.feed.Publish(ctx, e)
		}
		if err != nil {
			s.logger.Warn("publish message",
				slog.String("conversation_id", c.ID),
				slog.String("message_id", m.ID),
				slog.String("error", err.Error()))
		}
	}
	return m, nil
}

// Follow subscribes a participant to new messages of the conversation.
func (s *MessageService) Follow(ctx context.Context, conversationID, userID string) (*realtime.Subscription, error) {
	c, err := s.participant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if s.feed == nil {
		return nil, errors.New("message feed not configured")
	}
	return s.feed.Subscribe(ctx, realtime.Topic{Kind: realtime.KindMessageInserted, Key: c.ID})
}

func (s *MessageService) participant(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	c, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return c, nil
}
