package domain

import "time"

// TransactionStatus represents the settlement state of a booking payment.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// Transaction records the money side of a booking. It is created when the
// owner pays and completed by the commission step when the walk finishes.
type Transaction struct {
	ID          string
	BookingID   string
	OwnerID     string
	WalkerID    string
	Amount      int64
	GatewayFee  int64
	PlatformFee int64
	NetEarning  int64
	Status      TransactionStatus
	PaymentRef  string
	CreatedAt   time.Time
}
