package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Tijndh/Mallow/internal/cache"
	"github.com/Tijndh/Mallow/internal/catalog"
	"github.com/Tijndh/Mallow/internal/domain"
	"github.com/Tijndh/Mallow/internal/provider"
	"github.com/Tijndh/Mallow/internal/publisher"
	"github.com/Tijndh/Mallow/internal/repository"
)

// mockCartRepository keeps carts in memory and hands out copies, like a
// real store would.
type mockCartRepository struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	err   error
	saves int
}

func newMockCartRepository(carts ...*domain.Cart) *mockCartRepository {
	r := &mockCartRepository{carts: make(map[string]*domain.Cart)}
	for _, c := range carts {
		r.carts[c.ID] = copyCart(c)
	}
	return r
}

func copyCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem{}, c.Items...)
	return &out
}

func (m *mockCartRepository) Create(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[c.ID] = copyCart(c)
	return nil
}

func (m *mockCartRepository) Get(_ context.Context, id string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return copyCart(c), nil
}

func (m *mockCartRepository) Save(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[c.ID]; !ok {
		return repository.ErrCartNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	m.carts[c.ID] = copyCart(c)
	m.saves++
	return nil
}

func (m *mockCartRepository) ClearItems(_ context.Context, id string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	c, ok := m.carts[id]
	if !ok {
		return false, repository.ErrCartNotFound
	}
	if len(c.Items) == 0 {
		return false, nil
	}
	c.Items = []domain.CartItem{}
	return true, nil
}

func (m *mockCartRepository) items(id string) []domain.CartItem {
	m.m.RLock()
	defer m.m.RUnlock()
	c, ok := m.carts[id]
	if !ok {
		return nil
	}
	return append([]domain.CartItem{}, c.Items...)
}

func (m *mockCartRepository) saveCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.saves
}

// mockPaymentRepository mirrors the store's rule that paid is never
// overwritten by a non-paid status.
type mockPaymentRepository struct {
	m         sync.Mutex
	txs       map[string]*domain.PaymentTransaction
	createErr error
	updateErr error
	updates   int
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{txs: make(map[string]*domain.PaymentTransaction)}
}

func copyTx(tx *domain.PaymentTransaction) *domain.PaymentTransaction {
	out := *tx
	out.Metadata = make(map[string]string, len(tx.Metadata))
	for k, v := range tx.Metadata {
		out.Metadata[k] = v
	}
	return &out
}

func (m *mockPaymentRepository) Create(_ context.Context, tx *domain.PaymentTransaction) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, dup := m.txs[tx.SessionID]; dup {
		return domain.ErrInvalidState
	}
	m.txs[tx.SessionID] = copyTx(tx)
	return nil
}

func (m *mockPaymentRepository) GetBySessionID(_ context.Context, sessionID string) (*domain.PaymentTransaction, error) {
	m.m.Lock()
	defer m.m.Unlock()
	tx, ok := m.txs[sessionID]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return copyTx(tx), nil
}

func (m *mockPaymentRepository) UpdateStatus(_ context.Context, sessionID string, status domain.SessionStatus, paymentStatus domain.PaymentStatus) (*domain.PaymentTransaction, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	tx, ok := m.txs[sessionID]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	m.updates++
	before := copyTx(tx)
	if !domain.CanTransitionTo(tx.PaymentStatus, paymentStatus) {
		tx.UpdatedAt = time.Now().UTC()
		return before, nil
	}
	tx.Status = status
	tx.PaymentStatus = paymentStatus
	tx.UpdatedAt = time.Now().UTC()
	return before, nil
}

func (m *mockPaymentRepository) get(sessionID string) *domain.PaymentTransaction {
	m.m.Lock()
	defer m.m.Unlock()
	tx, ok := m.txs[sessionID]
	if !ok {
		return nil
	}
	return copyTx(tx)
}

func (m *mockPaymentRepository) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.txs)
}

type mockContactRepository struct {
	m        sync.Mutex
	messages []*domain.ContactMessage
	err      error
}

func (m *mockContactRepository) Create(_ context.Context, msg *domain.ContactMessage) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c := *msg
	m.messages = append(m.messages, &c)
	return nil
}

type mockCache struct {
	m           sync.RWMutex
	carts       map[string]*domain.Cart
	invalidated map[string]bool
	err         error
	beforeSet   func() // runs once, between the repo read and the fill
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[string]*domain.Cart), invalidated: make(map[string]bool)}
}

func (m *mockCache) Get(_ context.Context, cartID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[cartID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return copyCart(c), nil
}

func (m *mockCache) SetIfAbsent(_ context.Context, cart *domain.Cart) (bool, error) {
	m.m.Lock()
	hook := m.beforeSet
	m.beforeSet = nil
	m.m.Unlock()
	if hook != nil {
		hook()
	}

	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.carts[cart.ID]; ok || m.invalidated[cart.ID] {
		return false, nil
	}
	m.carts[cart.ID] = copyCart(cart)
	return true, nil
}

func (m *mockCache) Invalidate(_ context.Context, cartID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, cartID)
	m.invalidated[cartID] = true
	return m.err
}

func (m *mockCache) has(cartID string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.carts[cartID]
	return ok
}

type mockDeduper struct {
	m       sync.Mutex
	seen    map[string]bool
	seenErr error
	markErr error
}

func newMockDeduper() *mockDeduper {
	return &mockDeduper{seen: make(map[string]bool)}
}

func (m *mockDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.seenErr != nil {
		return false, m.seenErr
	}
	return m.seen[eventID], nil
}

func (m *mockDeduper) Mark(_ context.Context, eventID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.seen[eventID] = true
	return nil
}

type mockPublisher struct {
	m      sync.Mutex
	events []publisher.PaymentPaidEvent
	err    error
}

func (m *mockPublisher) PublishPaymentPaid(_ context.Context, event publisher.PaymentPaidEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) published() []publisher.PaymentPaidEvent {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]publisher.PaymentPaidEvent{}, m.events...)
}

// failingProvider fails every provider call with err.
type failingProvider struct {
	err error
}

func (f failingProvider) CreateSession(context.Context, provider.SessionRequest) (*domain.CheckoutSession, error) {
	return nil, f.err
}

func (f failingProvider) GetSession(context.Context, string) (*provider.SessionInfo, error) {
	return nil, f.err
}

func (f failingProvider) ParseWebhook([]byte, string) (*provider.WebhookEvent, error) {
	return nil, f.err
}

type mockNotifier struct {
	m    sync.Mutex
	sent []*domain.ContactMessage
	err  error
}

func (m *mockNotifier) NotifyContact(_ context.Context, msg *domain.ContactMessage) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

var errDatabase = errors.New("database error")

// checkoutFixture wires a checkout service against in-memory collaborators
// and the fake provider.
type checkoutFixture struct {
	carts    *mockCartRepository
	cache    *mockCache
	payments *mockPaymentRepository
	provider *provider.Fake
	dedup    *mockDeduper
	pub      *mockPublisher
	cartSvc  *CartService
	sut      *CheckoutService
}

func newCheckoutFixture(carts ...*domain.Cart) *checkoutFixture {
	f := &checkoutFixture{
		carts:    newMockCartRepository(carts...),
		cache:    newMockCache(),
		payments: newMockPaymentRepository(),
		provider: provider.NewFake("whsec_test", nil),
		dedup:    newMockDeduper(),
		pub:      &mockPublisher{},
	}
	f.cartSvc = NewCartService(f.carts, f.cache, catalog.Default())
	f.sut = NewCheckoutService(f.cartSvc, f.payments, f.provider, f.dedup, f.pub, CheckoutConfig{
		Currency:    "eur",
		Description: "Mallow order",
	})
	return f
}

func cartWith(id string, items ...domain.CartItem) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        id,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
