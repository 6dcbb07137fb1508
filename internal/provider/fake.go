package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Tijndh/Mallow/internal/domain"
)

const fakeSignaturePrefix = "sha256="

// Outcome decides how an open fake session settles when it is first polled.
type Outcome interface {
	Settle() domain.PaymentStatus
}

// RandomOutcome pays most sessions and fails or abandons the rest.
type RandomOutcome struct{}

func (RandomOutcome) Settle() domain.PaymentStatus {
	return settleStatus(rand.Intn(100))
}

// settleStatus maps n in [0, 100) to an outcome.
func settleStatus(n int) domain.PaymentStatus {
	switch {
	case n < 95:
		return domain.PaymentStatusPaid
	case n == 95:
		return domain.PaymentStatusFailed
	default:
		return domain.PaymentStatusUnpaid
	}
}

// AlwaysPaid settles every session as paid.
type AlwaysPaid struct{}

func (AlwaysPaid) Settle() domain.PaymentStatus { return domain.PaymentStatusPaid }

// Fake is an in-memory CheckoutProvider for local development and tests.
// Its hosted page is the success URL itself and its webhooks are JSON signed
// with HMAC-SHA256.
type Fake struct {
	mu       sync.Mutex
	sessions map[string]*SessionInfo
	secret   string
	outcome  Outcome
}

// NewFake returns a fake provider. With a nil outcome sessions stay open
// until Complete or Expire is called.
func NewFake(secret string, outcome Outcome) *Fake {
	return &Fake{
		sessions: make(map[string]*SessionInfo),
		secret:   secret,
		outcome:  outcome,
	}
}

func (f *Fake) CreateSession(_ context.Context, req SessionRequest) (*domain.CheckoutSession, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("fake checkout: amount %s: %w", req.Amount, domain.ErrInvalidArgument)
	}

	id := "cs_fake_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	metadata := make(map[string]string, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	f.mu.Lock()
	f.sessions[id] = &SessionInfo{
		ID:            id,
		Status:        domain.SessionStatusOpen,
		PaymentStatus: domain.PaymentStatusUnpaid,
		AmountTotal:   minorUnits(req.Amount),
		Currency:      strings.ToLower(req.Currency),
		Metadata:      metadata,
	}
	f.mu.Unlock()

	return &domain.CheckoutSession{
		URL:       strings.ReplaceAll(req.SuccessURL, "{CHECKOUT_SESSION_ID}", id),
		SessionID: id,
	}, nil
}

func (f *Fake) GetSession(_ context.Context, sessionID string) (*SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("fake checkout session %s: %w", sessionID, domain.ErrNotFound)
	}
	if s.Status == domain.SessionStatusOpen && f.outcome != nil {
		s.Status = domain.SessionStatusComplete
		s.PaymentStatus = f.outcome.Settle()
	}

	info := *s
	return &info, nil
}

// Complete marks a session as paid.
func (f *Fake) Complete(sessionID string) error {
	return f.settle(sessionID, domain.SessionStatusComplete, domain.PaymentStatusPaid)
}

// Expire abandons a session without payment.
func (f *Fake) Expire(sessionID string) error {
	return f.settle(sessionID, domain.SessionStatusExpired, domain.PaymentStatusUnpaid)
}

func (f *Fake) settle(sessionID string, status domain.SessionStatus, payment domain.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[sessionID]
	if !ok {
		return fmt.Errorf("fake checkout session %s: %w", sessionID, domain.ErrNotFound)
	}
	s.Status = status
	s.PaymentStatus = payment
	return nil
}

type fakeEvent struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	SessionID     string            `json:"session_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Event renders the current state of a session as a signed webhook
// delivery, returning the body and the signature header value.
func (f *Fake) Event(eventType, sessionID string) ([]byte, string, error) {
	f.mu.Lock()
	s, ok := f.sessions[sessionID]
	var evt fakeEvent
	if ok {
		evt = fakeEvent{
			ID:            "evt_fake_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			Type:          eventType,
			SessionID:     s.ID,
			Status:        string(s.Status),
			PaymentStatus: string(s.PaymentStatus),
			Metadata:      s.Metadata,
		}
	}
	f.mu.Unlock()

	if !ok {
		return nil, "", fmt.Errorf("fake checkout session %s: %w", sessionID, domain.ErrNotFound)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, "", fmt.Errorf("marshal fake event: %w", err)
	}
	return payload, f.Sign(payload), nil
}

func (f *Fake) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(f.secret))
	mac.Write(payload)
	return fakeSignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func (f *Fake) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", domain.ErrInvalidWebhook)
	}
	if !hmac.Equal([]byte(signature), []byte(f.Sign(payload))) {
		return nil, fmt.Errorf("%w: signature mismatch", domain.ErrInvalidWebhook)
	}

	var evt fakeEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	return &WebhookEvent{
		ID:            evt.ID,
		Type:          evt.Type,
		SessionID:     evt.SessionID,
		Status:        domain.SessionStatus(evt.Status),
		PaymentStatus: domain.PaymentStatus(evt.PaymentStatus),
		Metadata:      evt.Metadata,
	}, nil
}
