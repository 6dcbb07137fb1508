package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tijndh/Mallow/internal/domain"
)

const stripeSignatureHeader = "Stripe-Signature"

type CheckoutService interface {
	CreateCheckout(ctx context.Context, cartID, originURL, requestBaseURL string) (*domain.CheckoutSession, error)
	GetCheckoutStatus(ctx context.Context, sessionID string) (*domain.CheckoutStatus, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	CartID    string `json:"cart_id"`
	OriginURL string `json:"origin_url"`
}

type CheckoutResponseDTO struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type CheckoutStatusDTO struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

// POST /checkout
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.CartID == "" {
		respondError(w, http.StatusBadRequest, "invalid_cart_id", "cart_id is required")
		return
	}

	session, err := h.checkout.CreateCheckout(ctx, req.CartID, req.OriginURL, baseURL(r))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		URL:       session.URL,
		SessionID: session.SessionID,
	})
}

// GET /checkout/status/{session_id}
func (h *CheckoutHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status, err := h.checkout.GetCheckoutStatus(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutStatusDTO{
		Status:        status.Status.String(),
		PaymentStatus: status.PaymentStatus.String(),
		AmountTotal:   status.AmountTotal,
		Currency:      status.Currency,
	})
}

// POST /webhook/stripe
//
// The body is read raw: the signature covers the exact bytes sent.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read body")
		return
	}

	if err := h.checkout.HandleWebhook(ctx, payload, r.Header.Get(stripeSignatureHeader)); err != nil {
		log.Printf("webhook error: %v", err)
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
