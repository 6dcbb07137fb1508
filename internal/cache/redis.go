package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tijndh/Mallow/internal/domain"
)

const (
	maxJitter = 5 * time.Minute

	// DefaultInvalidationTTL must outlive the slowest read that may still try
	// to fill the cache with a cart it loaded before the write.
	DefaultInvalidationTTL = time.Minute

	invalidatedMarker = "invalidated"
)

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client:          client,
		baseTTL:         15 * time.Minute,
		invalidationTTL: DefaultInvalidationTTL,
	}
}

type RedisCache struct {
	client          redis.UniversalClient
	baseTTL         time.Duration
	invalidationTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	if string(data) == invalidatedMarker {
		return nil, ErrCacheMiss
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}

	return &cart, nil
}

// SetIfAbsent stores the cart only when the key is empty. A key holding an
// invalidation marker is left alone, so a read that raced a write cannot
// put the older cart back.
func (r *RedisCache) SetIfAbsent(ctx context.Context, cart *domain.Cart) (bool, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return false, fmt.Errorf("marshal cart failed: %w", err)
	}

	// jitter spreads expiry so carts cached together do not expire together
	ttl := r.baseTTL + time.Duration(rand.Int63n(int64(maxJitter)))
	stored, err := r.client.SetNX(ctx, cacheKey(cart.ID), data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis set failed: %w", err)
	}
	return stored, nil
}

// Invalidate replaces the cached cart with a short-lived marker.
func (r *RedisCache) Invalidate(ctx context.Context, cartID string) error {
	if err := r.client.Set(ctx, cacheKey(cartID), invalidatedMarker, r.invalidationTTL).Err(); err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

func cacheKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}
