package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Tijndh/Mallow/internal/domain"
)

const testWebhookSecret = "whsec_test"

func newTestStripe(t *testing.T, handler http.HandlerFunc) *Stripe {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	return NewStripe(StripeConfig{
		APIKey:        "sk_test_123",
		WebhookSecret: testWebhookSecret,
		Backend:       backend,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestStripe_CreateSession(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "https://shop.example/success?session_id={CHECKOUT_SESSION_ID}", r.PostForm.Get("success_url"))
		assert.Equal(t, "https://shop.example/cart", r.PostForm.Get("cancel_url"))
		assert.Equal(t, "2495", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "eur", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "cart-1", r.PostForm.Get("metadata[cart_id]"))

		writeJSON(w, http.StatusOK, map[string]any{
			"id":     "cs_test_1",
			"object": "checkout.session",
			"url":    "https://checkout.stripe.com/c/pay/cs_test_1",
		})
	})

	session, err := s.CreateSession(context.Background(), SessionRequest{
		Amount:     decimal.RequireFromString("24.95"),
		Currency:   "EUR",
		SuccessURL: "https://shop.example/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.example/cart",
		Metadata:   map[string]string{domain.MetadataCartID: "cart-1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.URL)
}

func TestStripe_GetSession(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"id":             "cs_test_1",
			"object":         "checkout.session",
			"status":         "complete",
			"payment_status": "paid",
			"amount_total":   2495,
			"currency":       "eur",
			"metadata":       map[string]string{"cart_id": "cart-1"},
		})
	})

	info, err := s.GetSession(context.Background(), "cs_test_1")

	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusComplete, info.Status)
	assert.Equal(t, domain.PaymentStatusPaid, info.PaymentStatus)
	assert.Equal(t, int64(2495), info.AmountTotal)
	assert.Equal(t, "eur", info.Currency)
	assert.Equal(t, "cart-1", info.Metadata["cart_id"])
}

func TestStripe_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    map[string]any
		wantErr error
	}{
		{
			name:   "missing session",
			status: http.StatusNotFound,
			body: map[string]any{"error": map[string]any{
				"type": "invalid_request_error", "code": "resource_missing", "message": "No such checkout.session",
			}},
			wantErr: domain.ErrNotFound,
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body: map[string]any{"error": map[string]any{
				"type": "invalid_request_error", "message": "Invalid currency",
			}},
			wantErr: domain.ErrInvalidArgument,
		},
		{
			name:   "provider outage",
			status: http.StatusInternalServerError,
			body: map[string]any{"error": map[string]any{
				"type": "api_error", "message": "Something went wrong",
			}},
			wantErr: domain.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := s.GetSession(context.Background(), "cs_missing")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func signedEvent(t *testing.T, event map[string]any) ([]byte, string) {
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testWebhookSecret,
	})
	return signed.Payload, signed.Header
}

func TestStripe_ParseWebhook(t *testing.T) {
	s := NewStripe(StripeConfig{APIKey: "sk_test_123", WebhookSecret: testWebhookSecret})

	t.Run("checkout session completed", func(t *testing.T) {
		payload, header := signedEvent(t, map[string]any{
			"id":          "evt_1",
			"object":      "event",
			"type":        "checkout.session.completed",
			"api_version": "2020-08-27",
			"data": map[string]any{"object": map[string]any{
				"id":             "cs_test_1",
				"object":         "checkout.session",
				"status":         "complete",
				"payment_status": "paid",
				"metadata":       map[string]string{"cart_id": "cart-1"},
			}},
		})

		evt, err := s.ParseWebhook(payload, header)

		require.NoError(t, err)
		assert.Equal(t, "evt_1", evt.ID)
		assert.Equal(t, "cs_test_1", evt.SessionID)
		assert.Equal(t, domain.SessionStatusComplete, evt.Status)
		assert.Equal(t, domain.PaymentStatusPaid, evt.PaymentStatus)
		assert.Equal(t, "cart-1", evt.Metadata["cart_id"])
	})

	t.Run("status derived from event type", func(t *testing.T) {
		payload, header := signedEvent(t, map[string]any{
			"id":     "evt_2",
			"object": "event",
			"type":   "checkout.session.async_payment_failed",
			"data": map[string]any{"object": map[string]any{
				"id":     "cs_test_2",
				"object": "checkout.session",
			}},
		})

		evt, err := s.ParseWebhook(payload, header)

		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusComplete, evt.Status)
		assert.Equal(t, domain.PaymentStatusFailed, evt.PaymentStatus)
	})

	t.Run("unrelated event", func(t *testing.T) {
		payload, header := signedEvent(t, map[string]any{
			"id":     "evt_3",
			"object": "event",
			"type":   "customer.created",
			"data":   map[string]any{"object": map[string]any{"id": "cus_1"}},
		})

		evt, err := s.ParseWebhook(payload, header)

		require.NoError(t, err)
		assert.Equal(t, "customer.created", evt.Type)
		assert.Empty(t, evt.SessionID)
	})

	t.Run("bad signature", func(t *testing.T) {
		payload, _ := signedEvent(t, map[string]any{"id": "evt_4", "type": "checkout.session.completed"})

		_, err := s.ParseWebhook(payload, "t=1,v1=deadbeef")

		assert.ErrorIs(t, err, domain.ErrInvalidWebhook)
	})

	t.Run("missing signature", func(t *testing.T) {
		_, err := s.ParseWebhook([]byte(`{}`), "")
		assert.ErrorIs(t, err, domain.ErrInvalidWebhook)
	})
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2495), minorUnits(decimal.RequireFromString("24.95")))
	assert.Equal(t, int64(7585), minorUnits(decimal.RequireFromString("75.85")))
	assert.Equal(t, int64(100), minorUnits(decimal.RequireFromString("0.995")))
	assert.Equal(t, int64(0), minorUnits(decimal.Zero))
}
