package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vendora/order-service/internal/config"
	"github.com/vendora/order-service/internal/entities"

	"github.com/segmentio/kafka-go"
)

const (
	typeOrderCreated   = "order.created"
	typeOrderCancelled = "order.cancelled"
)

// envelope is the wire format consumed by the payment-initiation and
// invoicing collaborators.
type envelope struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`

	OrderNumber string `json:"order_number,omitempty"`
	BuyerID     string `json:"buyer_id,omitempty"`
	TotalAmount int64  `json:"total_amount,omitempty"`
	Status      string `json:"status,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.Kafka) *kafkaPublisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.OrdersTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *kafkaPublisher) OrderCreated(ctx context.Context, summary entities.OrderSummary) error {
	return p.publish(ctx, summary.OrderID, envelope{
		Type:        typeOrderCreated,
		OrderID:     summary.OrderID,
		OccurredAt:  time.Now().UTC(),
		OrderNumber: summary.OrderNumber,
		BuyerID:     summary.BuyerID,
		TotalAmount: summary.TotalAmount,
		Status:      string(summary.Status),
	})
}

func (p *kafkaPublisher) OrderCancelled(ctx context.Context, orderID, reason string) error {
	return p.publish(ctx, orderID, envelope{
		Type:       typeOrderCancelled,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
		Reason:     reason,
	})
}

func (p *kafkaPublisher) publish(ctx context.Context, key string, e envelope) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
