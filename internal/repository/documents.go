package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tijndh/Mallow/internal/domain"
)

// Stored document shapes. Money is kept as a decimal string.

type cartDocument struct {
	ID        string             `bson:"_id"`
	Items     []cartItemDocument `bson:"items"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type cartItemDocument struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

func newCartDocument(c *domain.Cart) cartDocument {
	return cartDocument{
		ID:        c.ID,
		Items:     itemDocuments(c.Items),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func itemDocuments(items []domain.CartItem) []cartItemDocument {
	docs := make([]cartItemDocument, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		docs = append(docs, cartItemDocument{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return docs
}

func (d cartDocument) toDomain() *domain.Cart {
	items := make([]domain.CartItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return &domain.Cart{
		ID:        d.ID,
		Items:     items,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type transactionDocument struct {
	ID            string            `bson:"_id"`
	SessionID     string            `bson:"session_id"`
	Amount        string            `bson:"amount"`
	Currency      string            `bson:"currency"`
	Status        string            `bson:"status"`
	PaymentStatus string            `bson:"payment_status"`
	Metadata      map[string]string `bson:"metadata"`
	CreatedAt     time.Time         `bson:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at"`
}

func newTransactionDocument(tx *domain.PaymentTransaction) transactionDocument {
	return transactionDocument{
		ID:            tx.ID,
		SessionID:     tx.SessionID,
		Amount:        tx.Amount.StringFixed(2),
		Currency:      tx.Currency,
		Status:        string(tx.Status),
		PaymentStatus: string(tx.PaymentStatus),
		Metadata:      tx.Metadata,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

func (d transactionDocument) toDomain() (*domain.PaymentTransaction, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q on transaction %s: %w", d.Amount, d.SessionID, err)
	}
	return &domain.PaymentTransaction{
		ID:            d.ID,
		SessionID:     d.SessionID,
		Amount:        amount,
		Currency:      d.Currency,
		Status:        domain.SessionStatus(d.Status),
		PaymentStatus: domain.PaymentStatus(d.PaymentStatus),
		Metadata:      d.Metadata,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

type contactDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Subject   string    `bson:"subject"`
	Message   string    `bson:"message"`
	CreatedAt time.Time `bson:"created_at"`
}
