package service

import (
	"context"
	"log"
)

// HandleWebhook verifies a provider callback and applies the status it
// carries. Events already applied are acknowledged without side effects.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		log.Printf("webhook rejected: %v", err)
		return err
	}

	if evt.SessionID == "" {
		log.Printf("webhook event %s (%s) ignored", evt.ID, evt.Type)
		return nil
	}

	if evt.ID != "" {
		seen, err := s.dedup.Seen(ctx, evt.ID)
		if err != nil {
			log.Printf("webhook dedup lookup failed for %s: %v", evt.ID, err) // apply anyway
		}
		if seen {
			log.Printf("webhook event %s already applied", evt.ID)
			return nil
		}
	}

	err = s.applyStatus(ctx, statusUpdate{
		Source:        "webhook",
		SessionID:     evt.SessionID,
		Status:        evt.Status,
		PaymentStatus: evt.PaymentStatus,
		Metadata:      evt.Metadata,
	})
	if err != nil {
		return err
	}

	if evt.ID != "" {
		if err := s.dedup.Mark(ctx, evt.ID); err != nil {
			log.Printf("webhook dedup mark failed for %s: %v", evt.ID, err)
		}
	}
	return nil
}
