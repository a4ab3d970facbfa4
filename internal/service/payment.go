package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dogwalk/internal/domain"
	"dogwalk/internal/repository"
)

// ChargeRequest describes a payment hold for one booking.
type ChargeRequest struct {
	Amount         int64
	IdempotencyKey string
	PaymentMethod  string // Provider payment method token
	Customer       string // Optional provider customer id
}

// PSP is the interface for a Payment Service Provider. Bookings are paid in
// two steps: a hold when the owner reserves and a capture when the walk
// finishes.
type PSP interface {
	// Charge places a hold and returns the provider reference. Calls
	// sharing an idempotency key hold at most once.
	Charge(ctx context.Context, req ChargeRequest) (string, error)
	// Capture collects a held payment.
	Capture(ctx context.Context, paymentRef, idempotencyKey string) error
	// Cancel releases a hold that will never be captured.
	Cancel(ctx context.Context, paymentRef string) error
}

// MockPSP is a mock implementation of PSP for testing.
type MockPSP struct {
	mu       sync.Mutex
	captures []string
	cancels  []string
}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

// Charge simulates a payment hold. Always succeeds.
func (p *MockPSP) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	return "mock_" + req.IdempotencyKey, nil
}

// Capture records the captured reference.
func (p *MockPSP) Capture(ctx context.Context, paymentRef, idempotencyKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captures = append(p.captures, paymentRef)
	return nil
}

// Cancel records the released reference.
func (p *MockPSP) Cancel(ctx context.Context, paymentRef string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancels = append(p.cancels, paymentRef)
	return nil
}

// Captures returns the references captured so far.
func (p *MockPSP) Captures() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.captures...)
}

// Cancels returns the references released so far.
func (p *MockPSP) Cancels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.cancels...)
}

// PaymentService handles payment operations.
type PaymentService struct {
	psp PSP
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(psp PSP) *PaymentService {
	return &PaymentService{psp: psp}
}

// idempotencyKey derives the PSP key for a booking.
func idempotencyKey(bookingID string) string {
	return fmt.Sprintf("booking:%s", bookingID)
}

// ChargeBooking places the hold for a booking and records the pending
// transaction through txns. A booking is charged at most once.
func (s *PaymentService) ChargeBooking(ctx context.Context, txns repository.TransactionRepository, b *domain.Booking, paymentMethod string) (*domain.Transaction, error) {
	if b.ID == "" {
		return nil, ErrInvalidBookingID
	}
	if b.TotalPrice <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	// Check for existing transaction (idempotency).
	existing, err := txns.GetByBookingID(ctx, b.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	ref, err := s.psp.Charge(ctx, ChargeRequest{
		Amount:         b.TotalPrice,
		IdempotencyKey: idempotencyKey(b.ID),
		PaymentMethod:  paymentMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	txn := &domain.Transaction{
		ID:         uuid.New().String(),
		BookingID:  b.ID,
		OwnerID:    b.OwnerID,
		Amount:     b.TotalPrice,
		Status:     domain.TransactionStatusPending,
		PaymentRef: ref,
		CreatedAt:  time.Now(),
	}
	if err := txns.Create(ctx, txn); err != nil {
		if rerr := s.psp.Cancel(ctx, ref); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return nil, err
	}
	return txn, nil
}

// Cancel releases the hold behind txn.
func (s *PaymentService) Cancel(ctx context.Context, txn *domain.Transaction) error {
	if txn == nil || txn.PaymentRef == "" {
		return nil
	}
	return s.psp.Cancel(ctx, txn.PaymentRef)
}

// Capture collects the hold behind txn. Transactions settled without a
// provider payment have nothing to capture.
func (s *PaymentService) Capture(ctx context.Context, txn *domain.Transaction) error {
	if txn == nil || txn.PaymentRef == "" {
		return nil
	}
	if err := s.psp.Capture(ctx, txn.PaymentRef, "capture:"+idempotencyKey(txn.BookingID)); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	return nil
}
