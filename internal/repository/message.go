package repository

import (
	"context"

	"dogwalk/internal/domain"
)

// ConversationRepository defines the persistence operations for chat threads
// and their messages.
type ConversationRepository interface {
	// Create adds a conversation. ErrDuplicate is returned when the
	// owner and walker already share one.
	Create(ctx context.Context, c *domain.Conversation) error

	// GetByID retrieves a conversation by ID.
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)

	// GetByParticipants retrieves the conversation of an owner and a walker.
	GetByParticipants(ctx context.Context, ownerID, walkerID string) (*domain.Conversation, error)

	// ListByUser returns the conversations userID takes part in, most
	// recently active first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Conversation, error)

	// AppendMessage stores m and bumps the conversation's UpdatedAt to
	// m.CreatedAt.
	AppendMessage(ctx context.Context, m *domain.Message) error

	// ListMessages returns the messages of a conversation, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]*domain.Message, error)
}
