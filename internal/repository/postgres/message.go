package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// ConversationRepository is a PostgreSQL implementation of repository.ConversationRepository.
type ConversationRepository struct {
	q Querier
}

var _ repository.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new PostgreSQL conversation repository.
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{q: db}
}

const conversationColumns = `id, owner_id, walker_id, created_at, updated_at`

// Create adds a conversation. The (owner_id, walker_id) pair is unique.
func (r *ConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	query := `INSERT INTO conversations (` + conversationColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, c.ID, c.OwnerID, c.WalkerID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return errors.Wrap(err, "insert conversation")
	}
	return nil
}

// GetByID retrieves a conversation by ID.
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByParticipants retrieves the conversation of an owner and a walker.
func (r *ConversationRepository) GetByParticipants(ctx context.Context, ownerID, walkerID string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE owner_id = $1 AND walker_id = $2`
	return r.getOne(ctx, query, ownerID, walkerID)
}

func (r *ConversationRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.OwnerID, &c.WalkerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrap(err, "select conversation")
	}
	return &c, nil
}

// ListByUser retrieves the user's conversations, most recently active first.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE owner_id = $1 OR walker_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "select conversations")
	}
	defer rows.Close()

	var out []*domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.WalkerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan conversation")
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// AppendMessage inserts the message and bumps the conversation in one
// statement.
func (r *ConversationRepository) AppendMessage(ctx context.Context, m *domain.Message) error {
	query := `
		WITH inserted AS (
			INSERT INTO messages (id, conversation_id, sender_id, receiver_id, message_text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING conversation_id
		)
		UPDATE conversations SET updated_at = $6
		WHERE id = (SELECT conversation_id FROM inserted)
	`

	result, err := r.q.ExecContext(ctx, query, m.ID, m.ConversationID, m.SenderID, m.ReceiverID, m.Text, m.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return repository.ErrNotFound
		}
		return errors.Wrap(err, "insert message")
	}
	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

// ListMessages retrieves a conversation's messages, oldest first.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, message_text, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "select messages")
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Text, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
