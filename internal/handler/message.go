package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"dogwalk/internal/domain"
	"dogwalk/internal/observability"
	"dogwalk/internal/realtime"
	"dogwalk/internal/service"
)

// MessageHandler handles owner/walker chat.
type MessageHandler struct {
	messageService *service.MessageService
	logger         *slog.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, logger: logger}
}

// OpenConversationRequest is the HTTP request body for starting a chat.
type OpenConversationRequest struct {
	OwnerID  string `json:"owner_id"`
	WalkerID string `json:"walker_id"`
}

// SendMessageRequest is the HTTP request body for a chat message.
type SendMessageRequest struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

// OpenConversation handles POST /v1/conversations
func (h *MessageHandler) OpenConversation(c *gin.Context) {
	var req OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	conv, err := h.messageService.OpenConversation(c.Request.Context(), req.OwnerID, req.WalkerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toConversationResponse(conv))
}

// ListConversations handles GET /v1/conversations?user_id=
func (h *MessageHandler) ListConversations(c *gin.Context) {
	convs, err := h.messageService.ListConversations(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		out = append(out, toConversationResponse(conv))
	}
	respondJSON(c, http.StatusOK, out)
}

// ListMessages handles GET /v1/conversations/:id/messages?user_id=
func (h *MessageHandler) ListMessages(c *gin.Context) {
	msgs, err := h.messageService.ListMessages(c.Request.Context(), c.Param("id"), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	respondJSON(c, http.StatusOK, out)
}

// SendMessage handles POST /v1/conversations/:id/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	m, err := h.messageService.SendMessage(c.Request.Context(), c.Param("id"), req.SenderID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toMessageResponse(m))
}

// Live handles GET /v1/conversations/:id/live?user_id=
//
// Every message stored in the conversation after the socket opens is sent as
// a MessageResponse frame. The socket is read-only; messages are sent over
// POST.
func (h *MessageHandler) Live(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := h.messageService.Follow(ctx, c.Param("id"), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer sub.Close()

	conn, err := upgrade(c)
	if err != nil {
		return
	}
	defer conn.Close()

	// reads only detect the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-sub.C:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
				return
			}
			m, err := realtime.DecodeMessageInsert(e)
			if err != nil {
				observability.MalformedEventsTotal.Inc()
				h.logger.Warn("dropping chat event", slog.String("conversation_id", e.Key), slog.String("error", err.Error()))
				continue
			}
			if err := conn.WriteJSON(toMessageResponse(&domain.Message{
				ID:             m.ID,
				ConversationID: m.ConversationID,
				SenderID:       m.SenderID,
				ReceiverID:     m.ReceiverID,
				Text:           m.Text,
				CreatedAt:      m.CreatedAt,
			})); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
