package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "payment-events"

	EventTypePaymentPaid = "payment.paid"
)

// PaymentPaidEvent is emitted once per transaction, on its first transition
// into paid.
type PaymentPaidEvent struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	CartID    string    `json:"cart_id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paid_at"`
}

type Publisher interface {
	PublishPaymentPaid(ctx context.Context, event PaymentPaidEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishPaymentPaid(ctx context.Context, event PaymentPaidEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID), // session_id keeps a transaction's events ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypePaymentPaid)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish payment event for session %s: %w", event.SessionID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPaymentPaid(context.Context, PaymentPaidEvent) error { return nil }
func (NoopPublisher) Close() error                                               { return nil }
