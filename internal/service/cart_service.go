package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/Tijndh/Mallow/internal/cache"
	"github.com/Tijndh/Mallow/internal/domain"
	"github.com/Tijndh/Mallow/internal/repository"
)

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog ProductCatalog
	sfg     singleflight.Group // Prevents cache stampede

	now   func() time.Time
	newID func() string
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog ProductCatalog) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *CartService) CreateCart(ctx context.Context) (*domain.CartView, error) {
	now := s.now().UTC()
	cart := &domain.Cart{
		ID:        s.newID(),
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, cart); err != nil {
		log.Printf("repo create cart error: %v", err)
		return nil, err
	}

	return priceCart(s.catalog, cart), nil
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.CartView, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, err = s.repo.Get(ctx, cartID)
		if err != nil {
			return nil, err
		}

		// Fill before returning. A write that invalidated the key after the
		// repo read leaves a marker the fill will not overwrite.
		if _, errSet := s.cache.SetIfAbsent(ctx, cart); errSet != nil {
			log.Printf("cache set error: %v", errSet)
		}

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return priceCart(s.catalog, v.(*domain.Cart)), nil
}

func (s *CartService) AddItem(ctx context.Context, cartID, productID string, quantity int) (*domain.CartView, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d: %w", quantity, domain.ErrInvalidArgument)
	}

	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if _, err := s.catalog.GetProduct(productID); err != nil {
		return nil, err
	}

	cart.AddItem(productID, quantity)
	return s.save(ctx, cart)
}

// UpdateItemQuantity replaces the quantity of a line. A quantity <= 0 removes
// the line and a product that is not in the cart is ignored.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) (*domain.CartView, error) {
	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if !cart.SetQuantity(productID, quantity) {
		return priceCart(s.catalog, cart), nil
	}
	return s.save(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) (*domain.CartView, error) {
	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(productID) {
		return priceCart(s.catalog, cart), nil
	}
	return s.save(ctx, cart)
}

// ClearItems empties a cart after payment. A cart that no longer exists is
// logged and tolerated.
func (s *CartService) ClearItems(ctx context.Context, cartID string) error {
	cleared, err := s.repo.ClearItems(ctx, cartID)
	if errors.Is(err, repository.ErrCartNotFound) {
		log.Printf("clear cart %s: cart not found, skipping", cartID)
		return nil
	}
	if err != nil {
		log.Printf("repo clear cart error: %v", err)
		return err
	}

	if cleared {
		s.invalidateCache(cartID)
	}
	return nil
}

// Total prices the stored cart for checkout, bypassing the cache.
func (s *CartService) Total(ctx context.Context, cartID string) (decimal.Decimal, []domain.CartLine, error) {
	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	view := priceCart(s.catalog, cart)
	return view.Total, view.Items, nil
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	if err := s.repo.Save(ctx, cart); err != nil {
		log.Printf("repo save cart error: %v", err)
		return nil, err
	}

	s.invalidateCache(cart.ID)
	return priceCart(s.catalog, cart), nil
}

func (s *CartService) invalidateCache(cartID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, cartID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
