package http

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Tijndh/Mallow/internal/domain"
)

type CartServiceMock struct {
	view *domain.CartView
	err  error

	// last call arguments
	cartID    string
	productID string
	quantity  int
}

func (m *CartServiceMock) CreateCart(context.Context) (*domain.CartView, error) {
	return m.view, m.err
}

func (m *CartServiceMock) GetCart(_ context.Context, cartID string) (*domain.CartView, error) {
	m.cartID = cartID
	return m.view, m.err
}

func (m *CartServiceMock) AddItem(_ context.Context, cartID, productID string, quantity int) (*domain.CartView, error) {
	m.cartID, m.productID, m.quantity = cartID, productID, quantity
	return m.view, m.err
}

func (m *CartServiceMock) UpdateItemQuantity(_ context.Context, cartID, productID string, quantity int) (*domain.CartView, error) {
	m.cartID, m.productID, m.quantity = cartID, productID, quantity
	return m.view, m.err
}

func (m *CartServiceMock) RemoveItem(_ context.Context, cartID, productID string) (*domain.CartView, error) {
	m.cartID, m.productID = cartID, productID
	return m.view, m.err
}

type CheckoutServiceMock struct {
	session *domain.CheckoutSession
	status  *domain.CheckoutStatus
	err     error

	cartID    string
	originURL string
	baseURL   string
	sessionID string
	payload   []byte
	signature string
}

func (m *CheckoutServiceMock) CreateCheckout(_ context.Context, cartID, originURL, requestBaseURL string) (*domain.CheckoutSession, error) {
	m.cartID, m.originURL, m.baseURL = cartID, originURL, requestBaseURL
	return m.session, m.err
}

func (m *CheckoutServiceMock) GetCheckoutStatus(_ context.Context, sessionID string) (*domain.CheckoutStatus, error) {
	m.sessionID = sessionID
	return m.status, m.err
}

func (m *CheckoutServiceMock) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	m.payload, m.signature = payload, signature
	return m.err
}

type ContactServiceMock struct {
	err  error
	last *domain.ContactMessage
}

func (m *ContactServiceMock) SubmitMessage(_ context.Context, name, email, subject, message string) (*domain.ContactMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.last = &domain.ContactMessage{
		ID:      "msg-1",
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
	}
	return m.last, nil
}

var balsem = domain.Product{
	ID:          "puur-twellow-balsem",
	Name:        "Puur Twellow Balsem",
	Price:       decimal.RequireFromString("24.95"),
	Ingredients: []string{"Bijenwas"},
	InStock:     true,
}

func balsemView() *domain.CartView {
	return &domain.CartView{
		ID: "cart-1",
		Items: []domain.CartLine{{
			ProductID: balsem.ID,
			Quantity:  1,
			Product:   balsem,
			ItemTotal: balsem.Price,
		}},
		Total:     balsem.Price,
		ItemCount: 1,
	}
}
