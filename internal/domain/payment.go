package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetadataCartID is the metadata key linking a payment transaction back to its cart.
const MetadataCartID = "cart_id"

// SessionStatus is the provider's lifecycle tag for a checkout session.
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusOpen     SessionStatus = "open"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusExpired  SessionStatus = "expired"
)

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusComplete || s == SessionStatusExpired
}

// String representation (for logging)
func (s SessionStatus) String() string {
	return string(s)
}

// PaymentStatus is tracked separately from SessionStatus: a session can be
// complete while its payment is still settling.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusUnpaid            PaymentStatus = "unpaid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusNoPaymentRequired PaymentStatus = "no_payment_required"
)

func (s PaymentStatus) IsPaid() bool {
	return s == PaymentStatusPaid
}

func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an observed payment status may replace the
// stored one. Paid is terminal: a late "unpaid" observation never downgrades it.
func CanTransitionTo(from, to PaymentStatus) bool {
	if from.IsPaid() {
		return to.IsPaid()
	}
	return to != ""
}

// PaymentTransaction is the local record of one checkout session.
type PaymentTransaction struct {
	ID            string            `json:"id"`
	SessionID     string            `json:"session_id"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Status        SessionStatus     `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CartID returns the originating cart, or "" when the metadata carries none.
func (t *PaymentTransaction) CartID() string {
	if t == nil || t.Metadata == nil {
		return ""
	}
	return t.Metadata[MetadataCartID]
}

type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// CheckoutStatus is the provider's current view of a session as returned to
// the polling client. AmountTotal is in minor units.
type CheckoutStatus struct {
	Status        SessionStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	AmountTotal   int64         `json:"amount_total"`
	Currency      string        `json:"currency"`
}
