package provider

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Tijndh/Mallow/internal/domain"
)

// CheckoutProvider hides a hosted-checkout payment service.
//
// Implementations translate their own failures into the domain taxonomy:
// unknown sessions are domain.ErrNotFound, bad webhook payloads or signatures
// are domain.ErrInvalidWebhook, everything transport related is
// domain.ErrUpstream.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*domain.CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// SessionRequest describes a single-line checkout for an already priced cart.
type SessionRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
	// WebhookURL is informational for providers whose endpoints are
	// registered out of band.
	WebhookURL string
	Metadata   map[string]string
}

// SessionInfo is the provider's current view of a session.
type SessionInfo struct {
	ID            string
	Status        domain.SessionStatus
	PaymentStatus domain.PaymentStatus
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// WebhookEvent is a verified, decoded provider callback. SessionID is empty
// for events that do not concern a checkout session.
type WebhookEvent struct {
	ID            string
	Type          string
	SessionID     string
	Status        domain.SessionStatus
	PaymentStatus domain.PaymentStatus
	Metadata      map[string]string
}

// minorUnits converts a two-decimal amount into cents.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
