package domain

import "time"

// MaxMessageLength bounds a chat message in characters.
const MaxMessageLength = 2000

// Conversation is the chat thread between one owner and one walker.
type Conversation struct {
	ID        string
	OwnerID   string
	WalkerID  string
	CreatedAt time.Time
	UpdatedAt time.Time // Bumped on every message
}

// HasParticipant reports whether userID is the owner or the walker.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.OwnerID || userID == c.WalkerID)
}

// Counterpart returns the other participant.
func (c *Conversation) Counterpart(userID string) string {
	if userID == c.OwnerID {
		return c.WalkerID
	}
	return c.OwnerID
}

// Message is one chat line.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	ReceiverID     string
	Text           string
	CreatedAt      time.Time
}
