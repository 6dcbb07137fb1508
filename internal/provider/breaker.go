package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Tijndh/Mallow/internal/domain"
)

type BreakerSettings struct {
	Name string
	// MaxRequests is the number of probe calls let through while half-open.
	MaxRequests uint32
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
	// ConsecutiveFailures trips the circuit.
	ConsecutiveFailures uint32
}

func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:                name,
		MaxRequests:         3,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker guards the network calls of a CheckoutProvider with a circuit
// breaker. Only upstream failures count against the circuit; webhook parsing
// is local and passes straight through.
type Breaker struct {
	next    CheckoutProvider
	create  *gobreaker.CircuitBreaker[*domain.CheckoutSession]
	session *gobreaker.CircuitBreaker[*SessionInfo]
}

func NewBreaker(next CheckoutProvider, st BreakerSettings) *Breaker {
	settings := func(op string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        st.Name + "." + op,
			MaxRequests: st.MaxRequests,
			Timeout:     st.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= st.ConsecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, domain.ErrUpstream)
			},
			IsExcluded: func(err error) bool {
				return errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("circuit breaker %s: %s -> %s", name, from, to)
			},
		}
	}

	return &Breaker{
		next:    next,
		create:  gobreaker.NewCircuitBreaker[*domain.CheckoutSession](settings("create_session")),
		session: gobreaker.NewCircuitBreaker[*SessionInfo](settings("get_session")),
	}
}

func (b *Breaker) CreateSession(ctx context.Context, req SessionRequest) (*domain.CheckoutSession, error) {
	out, err := b.create.Execute(func() (*domain.CheckoutSession, error) {
		return b.next.CreateSession(ctx, req)
	})
	return out, breakerError(err)
}

func (b *Breaker) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	out, err := b.session.Execute(func() (*SessionInfo, error) {
		return b.next.GetSession(ctx, sessionID)
	})
	return out, breakerError(err)
}

func (b *Breaker) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return b.next.ParseWebhook(payload, signature)
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("payment provider: %w: %w", domain.ErrUpstream, err)
	}
	return err
}
