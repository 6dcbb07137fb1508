package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tijndh/Mallow/internal/cache"
	"github.com/Tijndh/Mallow/internal/domain"
	"github.com/Tijndh/Mallow/internal/provider"
	"github.com/Tijndh/Mallow/internal/publisher"
	"github.com/Tijndh/Mallow/internal/repository"
)

const webhookPath = "/api/webhook/stripe"

type CheckoutConfig struct {
	Currency string
	// PublicBaseURL is where the provider reaches our webhook. When empty the
	// caller's base URL is used.
	PublicBaseURL string
	// Description is the line item name shown on the hosted payment page.
	Description string
}

// PaymentObserver is told about every status observation applied, with its
// source ("poll" or "webhook").
type PaymentObserver interface {
	ObservePayment(source, paymentStatus string)
}

type noopObserver struct{}

func (noopObserver) ObservePayment(string, string) {}

type CheckoutService struct {
	carts     *CartService
	payments  repository.PaymentRepository
	provider  provider.CheckoutProvider
	dedup     cache.EventDeduper
	publisher publisher.Publisher
	cfg       CheckoutConfig
	observer  PaymentObserver

	now   func() time.Time
	newID func() string
}

func NewCheckoutService(
	carts *CartService,
	payments repository.PaymentRepository,
	checkoutProvider provider.CheckoutProvider,
	dedup cache.EventDeduper,
	pub publisher.Publisher,
	cfg CheckoutConfig,
) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	return &CheckoutService{
		carts:     carts,
		payments:  payments,
		provider:  checkoutProvider,
		dedup:     dedup,
		publisher: pub,
		cfg:       cfg,
		observer:  noopObserver{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithObserver sets the observer notified of applied payment statuses.
func (s *CheckoutService) WithObserver(o PaymentObserver) *CheckoutService {
	if o != nil {
		s.observer = o
	}
	return s
}

// CreateCheckout prices the stored cart, opens a hosted checkout session for
// that amount and records a pending transaction for it.
func (s *CheckoutService) CreateCheckout(ctx context.Context, cartID, originURL, requestBaseURL string) (*domain.CheckoutSession, error) {
	origin := strings.TrimRight(strings.TrimSpace(originURL), "/")
	if origin == "" {
		return nil, fmt.Errorf("origin_url is required: %w", domain.ErrInvalidArgument)
	}

	total, lines, err := s.carts.Total(ctx, cartID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("cart %s: %w", cartID, ErrEmptyCart)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to price cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !total.IsPositive() {
		return nil, ErrNonPositiveCart
	}

	metadata := map[string]string{domain.MetadataCartID: cartID}

	session, err := s.provider.CreateSession(ctx, provider.SessionRequest{
		Amount:      total,
		Currency:    s.cfg.Currency,
		Description: s.cfg.Description,
		SuccessURL:  origin + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   origin + "/cart",
		WebhookURL:  s.webhookURL(requestBaseURL),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	now := s.now().UTC()
	tx := &domain.PaymentTransaction{
		ID:            s.newID(),
		SessionID:     session.SessionID,
		Amount:        total,
		Currency:      s.cfg.Currency,
		Status:        domain.SessionStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.payments.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record payment transaction: %w", err)
	}

	log.Printf("checkout session created: session=%s cart=%s amount=%s %s",
		session.SessionID, cartID, total.StringFixed(2), s.cfg.Currency)

	return session, nil
}

func (s *CheckoutService) webhookURL(requestBaseURL string) string {
	base := s.cfg.PublicBaseURL
	if base == "" {
		base = requestBaseURL
	}
	return strings.TrimRight(base, "/") + webhookPath
}
