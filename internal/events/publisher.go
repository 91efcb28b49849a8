package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/pkg/kafka"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// Event types emitted by the engine
const (
	EventReminderSent = "order.reminder_sent"
	EventOrderDeleted = "order.deleted"
)

// OrderEvent is the payload published for each lifecycle event
type OrderEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Track       string    `json:"track"`
	Stage       int       `json:"stage"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher emits lifecycle events to Kafka after the corresponding side
// effect has been applied. Publishing is strictly best-effort: failures are
// logged and never affect stage bookkeeping or deletions. A nil Publisher or
// one built without a producer silently drops events, so the engine runs
// unchanged when Kafka is not configured.
type Publisher struct {
	producer *kafka.Producer
	topic    string
	logger   logger.Logger
}

// NewPublisher creates a Publisher. The producer may be nil to disable
// publishing.
func NewPublisher(producer *kafka.Producer, topic string, logger logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// ReminderSent records that a stage reminder was dispatched
func (p *Publisher) ReminderSent(ctx context.Context, order *models.PendingOrder, track models.Track, stage int) {
	p.publish(ctx, EventReminderSent, order, track, stage)
}

// OrderDeleted records that an order was reaped
func (p *Publisher) OrderDeleted(ctx context.Context, order *models.PendingOrder, track models.Track, stage int) {
	p.publish(ctx, EventOrderDeleted, order, track, stage)
}

func (p *Publisher) publish(ctx context.Context, eventType string, order *models.PendingOrder, track models.Track, stage int) {
	if p == nil || p.producer == nil {
		return
	}

	event := OrderEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Track:       string(track),
		Stage:       stage,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		OccurredAt:  models.GetCurrentTime(),
	}

	payload, err := json.Marshal(event)

	if err != nil {
		p.logger.Error("Failed to marshal lifecycle event", "error", err, "eventType", eventType, "orderNumber", order.OrderNumber)
		return
	}

	// Keyed by order number so events for one order stay ordered
	if err := p.producer.SendMessage(ctx, p.topic, order.OrderNumber, payload); err != nil {
		p.logger.Error("Failed to publish lifecycle event",
			"error", err,
			"eventType", eventType,
			"orderNumber", order.OrderNumber)
		return
	}

	p.logger.Debug("Lifecycle event published", "eventType", eventType, "orderNumber", order.OrderNumber, "stage", stage)
}
