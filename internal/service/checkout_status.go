package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Tijndh/Mallow/internal/domain"
	"github.com/Tijndh/Mallow/internal/publisher"
	"github.com/Tijndh/Mallow/internal/repository"
)

// statusUpdate is one observation of a session, from a poll or a webhook.
type statusUpdate struct {
	Source        string
	SessionID     string
	Status        domain.SessionStatus
	PaymentStatus domain.PaymentStatus
	Metadata      map[string]string
}

// GetCheckoutStatus polls the provider and records what it reports.
func (s *CheckoutService) GetCheckoutStatus(ctx context.Context, sessionID string) (*domain.CheckoutStatus, error) {
	info, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	err = s.applyStatus(ctx, statusUpdate{
		Source:        "poll",
		SessionID:     sessionID,
		Status:        info.Status,
		PaymentStatus: info.PaymentStatus,
		Metadata:      info.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutStatus{
		Status:        info.Status,
		PaymentStatus: info.PaymentStatus,
		AmountTotal:   info.AmountTotal,
		Currency:      info.Currency,
	}, nil
}

// applyStatus is shared by polling and webhooks. Every step is idempotent, so
// observations may arrive in any order and any number of times.
func (s *CheckoutService) applyStatus(ctx context.Context, u statusUpdate) error {
	before, err := s.payments.UpdateStatus(ctx, u.SessionID, u.Status, u.PaymentStatus)
	switch {
	case errors.Is(err, repository.ErrTransactionNotFound):
		log.Printf("status update for unknown session %s (%s/%s), no transaction recorded",
			u.SessionID, u.Status, u.PaymentStatus)
		before = nil
	case err != nil:
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	s.observer.ObservePayment(u.Source, u.PaymentStatus.String())

	if !u.PaymentStatus.IsPaid() {
		return nil
	}

	cartID := before.CartID()
	if cartID == "" {
		cartID = u.Metadata[domain.MetadataCartID]
	}
	if cartID == "" {
		log.Printf("session %s paid but no cart is linked to it", u.SessionID)
	} else if err := s.carts.ClearItems(ctx, cartID); err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}

	if before != nil && !before.PaymentStatus.IsPaid() {
		s.publishPaid(ctx, before, cartID)
	}
	return nil
}

func (s *CheckoutService) publishPaid(ctx context.Context, tx *domain.PaymentTransaction, cartID string) {
	err := s.publisher.PublishPaymentPaid(ctx, publisher.PaymentPaidEvent{
		SessionID: tx.SessionID,
		CartID:    cartID,
		Amount:    tx.Amount.StringFixed(2),
		Currency:  tx.Currency,
		PaidAt:    s.now().UTC(),
	})
	if err != nil {
		log.Printf("failed to publish payment event for session %s: %v", tx.SessionID, err)
		return
	}
	log.Printf("payment confirmed: session=%s cart=%s", tx.SessionID, cartID)
}
