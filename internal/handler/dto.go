package handler

import (
	"time"

	"dogwalk/internal/domain"
	"dogwalk/internal/service"
)

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID            string  `json:"id"`
	OwnerID       string  `json:"owner_id"`
	WalkerID      string  `json:"walker_id,omitempty"`
	Address       string  `json:"address"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	ScheduledDate string  `json:"scheduled_date"`
	ScheduledTime string  `json:"scheduled_time"`
	Duration      string  `json:"duration"`
	TotalPrice    int64   `json:"total_price"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	Rating        int     `json:"rating,omitempty"`
	ReviewText    string  `json:"review_text,omitempty"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		OwnerID:       b.OwnerID,
		WalkerID:      b.WalkerID,
		Address:       b.Address,
		Lat:           b.Lat,
		Lng:           b.Lng,
		ScheduledDate: b.ScheduledDate,
		ScheduledTime: b.ScheduledTime,
		Duration:      string(b.Duration),
		TotalPrice:    b.TotalPrice,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
		Rating:        b.Rating,
		ReviewText:    b.ReviewText,
	}
}

func toBookingResponses(bookings []*domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

// WalkerResponse is the public walker profile.
type WalkerResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PhotoURL     string  `json:"photo_url,omitempty"`
	Rating       float64 `json:"rating"`
	Reviews      int     `json:"reviews"`
	Verification string  `json:"verification"`
	Online       bool    `json:"online"`
}

func toWalkerResponse(w *domain.WalkerProfile) WalkerResponse {
	return WalkerResponse{
		ID:           w.ID,
		Name:         w.Name,
		PhotoURL:     w.PhotoURL,
		Rating:       w.Rating,
		Reviews:      w.Reviews,
		Verification: string(w.Verification),
	}
}

// TransactionResponse is the money side of a booking.
type TransactionResponse struct {
	ID          string `json:"id"`
	BookingID   string `json:"booking_id"`
	Amount      int64  `json:"amount"`
	GatewayFee  int64  `json:"gateway_fee"`
	PlatformFee int64  `json:"platform_fee"`
	NetEarning  int64  `json:"net_earning"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		BookingID:   t.BookingID,
		Amount:      t.Amount,
		GatewayFee:  t.GatewayFee,
		PlatformFee: t.PlatformFee,
		NetEarning:  t.NetEarning,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// BalanceResponse is a walker's wallet.
type BalanceResponse struct {
	WalkerID    string                `json:"walker_id"`
	Balance     int64                 `json:"balance"`
	TotalEarned int64                 `json:"total_earned"`
	Earnings    []TransactionResponse `json:"earnings"`
}

func toBalanceResponse(s *service.BalanceSummary) BalanceResponse {
	resp := BalanceResponse{
		WalkerID:    s.WalkerID,
		Balance:     s.Balance,
		TotalEarned: s.TotalEarned,
		Earnings:    make([]TransactionResponse, 0, len(s.Earnings)),
	}
	for _, t := range s.Earnings {
		resp.Earnings = append(resp.Earnings, toTransactionResponse(t))
	}
	return resp
}

// LocationResponse is one GPS fix.
type LocationResponse struct {
	ID         string  `json:"id"`
	BookingID  string  `json:"booking_id"`
	WalkerID   string  `json:"walker_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	CapturedAt string  `json:"captured_at"`
}

func toLocationResponse(f *domain.LocationFix) LocationResponse {
	return LocationResponse{
		ID:         f.ID,
		BookingID:  f.BookingID,
		WalkerID:   f.WalkerID,
		Lat:        f.Lat,
		Lng:        f.Lng,
		CapturedAt: f.CapturedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ConversationResponse is a chat thread.
type ConversationResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	WalkerID  string `json:"walker_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toConversationResponse(c *domain.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		WalkerID:  c.WalkerID,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// MessageResponse is one chat line.
type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Text           string `json:"text"`
	CreatedAt      string `json:"created_at"`
}

func toMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Text:           m.Text,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
