package repository

import (
	"context"
	"fmt"

	"github.com/Tijndh/Mallow/internal/domain"
)

var (
	ErrCartNotFound        = fmt.Errorf("cart %w", domain.ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("payment transaction %w", domain.ErrNotFound)
)

// CartRepository stores carts as single documents keyed by cart id.
// Every method is a single-document operation.
type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error
	Get(ctx context.Context, id string) (*domain.Cart, error)
	// Save replaces the items of an existing cart and stamps updated_at.
	Save(ctx context.Context, cart *domain.Cart) error
	// ClearItems empties the cart. It reports false when the cart was
	// already empty.
	ClearItems(ctx context.Context, id string) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *domain.PaymentTransaction) error
	GetBySessionID(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error)
	// UpdateStatus writes an observed status onto the transaction and returns
	// the document as it was before the write. A stored paid payment status
	// is never replaced by a non-paid one.
	UpdateStatus(ctx context.Context, sessionID string, status domain.SessionStatus, paymentStatus domain.PaymentStatus) (*domain.PaymentTransaction, error)
}

type ContactRepository interface {
	Create(ctx context.Context, msg *domain.ContactMessage) error
}
