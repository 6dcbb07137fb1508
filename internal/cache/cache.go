package cache

import (
	"context"
	"errors"

	"github.com/Tijndh/Mallow/internal/domain"
)

// CartCache is a read-through cache for stored carts. Writers invalidate;
// only readers fill, and a fill never overwrites an invalidation.
type CartCache interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	SetIfAbsent(ctx context.Context, cart *domain.Cart) (bool, error)
	Invalidate(ctx context.Context, cartID string) error
}

// EventDeduper remembers provider webhook event ids that were applied.
type EventDeduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache is used when Redis is not configured. Every Get misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.Cart, error)       { return nil, ErrCacheMiss }
func (NoopCache) SetIfAbsent(context.Context, *domain.Cart) (bool, error) { return false, nil }
func (NoopCache) Invalidate(context.Context, string) error                { return nil }

// NoopDeduper never reports an event as seen.
type NoopDeduper struct{}

func (NoopDeduper) Seen(context.Context, string) (bool, error) { return false, nil }
func (NoopDeduper) Mark(context.Context, string) error         { return nil }
