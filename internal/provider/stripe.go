package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Tijndh/Mallow/internal/domain"
)

type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	// Backend overrides the API backend, mainly for tests.
	Backend stripe.Backend
}

// Stripe is a CheckoutProvider backed by Stripe Checkout.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(cfg StripeConfig) *Stripe {
	var backends *stripe.Backends
	if cfg.Backend != nil {
		backends = &stripe.Backends{API: cfg.Backend, Connect: cfg.Backend, Uploads: cfg.Backend}
	}

	return &Stripe{
		api:           client.New(cfg.APIKey, backends),
		webhookSecret: cfg.WebhookSecret,
	}
}

func (s *Stripe) CreateSession(ctx context.Context, req SessionRequest) (*domain.CheckoutSession, error) {
	description := req.Description
	if description == "" {
		description = "Order"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(minorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, stripeError("create checkout session", err)
	}

	return &domain.CheckoutSession{URL: cs.URL, SessionID: cs.ID}, nil
}

func (s *Stripe) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, stripeError("get checkout session "+sessionID, err)
	}

	return &SessionInfo{
		ID:            cs.ID,
		Status:        sessionStatus(cs.Status),
		PaymentStatus: paymentStatus(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		Metadata:      cs.Metadata,
	}, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") {
		return out, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", domain.ErrInvalidWebhook, event.ID)
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", domain.ErrInvalidWebhook, err)
	}

	out.SessionID = cs.ID
	out.Metadata = cs.Metadata
	out.Status, out.PaymentStatus = webhookStatus(event.Type, &cs)
	return out, nil
}

// webhookStatus prefers the session object's own status and falls back to
// what the event type implies.
func webhookStatus(eventType stripe.EventType, cs *stripe.CheckoutSession) (domain.SessionStatus, domain.PaymentStatus) {
	status := sessionStatus(cs.Status)
	if cs.Status == "" {
		switch eventType {
		case stripe.EventTypeCheckoutSessionCompleted,
			stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
			stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
			status = domain.SessionStatusComplete
		case stripe.EventTypeCheckoutSessionExpired:
			status = domain.SessionStatusExpired
		}
	}

	payment := paymentStatus(cs.PaymentStatus)
	if eventType == stripe.EventTypeCheckoutSessionAsyncPaymentFailed {
		payment = domain.PaymentStatusFailed
	}
	return status, payment
}

func sessionStatus(s stripe.CheckoutSessionStatus) domain.SessionStatus {
	switch s {
	case stripe.CheckoutSessionStatusOpen:
		return domain.SessionStatusOpen
	case stripe.CheckoutSessionStatusComplete:
		return domain.SessionStatusComplete
	case stripe.CheckoutSessionStatusExpired:
		return domain.SessionStatusExpired
	default:
		return domain.SessionStatusPending
	}
}

func paymentStatus(s stripe.CheckoutSessionPaymentStatus) domain.PaymentStatus {
	switch s {
	case stripe.CheckoutSessionPaymentStatusPaid:
		return domain.PaymentStatusPaid
	case stripe.CheckoutSessionPaymentStatusUnpaid:
		return domain.PaymentStatusUnpaid
	case stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return domain.PaymentStatusNoPaymentRequired
	default:
		return domain.PaymentStatusPending
	}
}

func stripeError(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		switch {
		case se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrNotFound, se.Msg)
		case se.HTTPStatusCode == http.StatusBadRequest:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidArgument, se.Msg)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
}
