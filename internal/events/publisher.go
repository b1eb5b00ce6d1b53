// Package events publishes order lifecycle events for downstream consumers
// (order history, analytics). The reconciler fires OrderCompleted exactly
// once per completed checkout session.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type Publisher interface {
	OrderCompleted(ctx context.Context, cartID, sessionID string) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-completed",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) OrderCompleted(ctx context.Context, cartID, sessionID string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"cart_id":      cartID,
		"session_id":   sessionID,
		"completed_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal order-completed payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(sessionID), // session id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order.completed")},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) OrderCompleted(context.Context, string, string) error { return nil }
func (NopPublisher) Close() error                                         { return nil }
