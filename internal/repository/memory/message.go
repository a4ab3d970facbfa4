package memory

import (
	"context"
	"sort"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// ConversationRepository is an in-memory repository.ConversationRepository.
type ConversationRepository struct {
	v view
}

var _ repository.ConversationRepository = (*ConversationRepository)(nil)

func (r *ConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.conversations[c.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, existing := range st.conversations {
			if existing.OwnerID == c.OwnerID && existing.WalkerID == c.WalkerID {
				return repository.ErrDuplicate
			}
		}
		st.conversations[c.ID] = *c
		return nil
	})
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var out *domain.Conversation
	err := r.v.do(func(st *state) error {
		c, ok := st.conversations[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *ConversationRepository) GetByParticipants(ctx context.Context, ownerID, walkerID string) (*domain.Conversation, error) {
	var out *domain.Conversation
	err := r.v.do(func(st *state) error {
		for _, c := range st.conversations {
			if c.OwnerID == ownerID && c.WalkerID == walkerID {
				out = &c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *ConversationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	var out []*domain.Conversation
	err := r.v.do(func(st *state) error {
		for _, c := range st.conversations {
			if c.HasParticipant(userID) {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, err
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, m *domain.Message) error {
	return r.v.do(func(st *state) error {
		c, ok := st.conversations[m.ConversationID]
		if !ok {
			return repository.ErrNotFound
		}
		st.messages[m.ConversationID] = append(st.messages[m.ConversationID], *m)
		c.UpdatedAt = m.CreatedAt
		st.conversations[c.ID] = c
		return nil
	})
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	var out []*domain.Message
	err := r.v.do(func(st *state) error {
		for _, m := range st.messages[conversationID] {
			m := m
			out = append(out, &m)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}
