package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/tradebook/internal/domain"
)

// EventMessage is the JSON body published for each outbox event.
type EventMessage struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// EventPublisher publishes outbox events on a Redis channel per event type,
// "<prefix><event_type>", e.g. tradebook.events.import.completed.
type EventPublisher struct {
	client *redis.Client
	prefix string
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client, prefix: "tradebook.events."}
}

// Channel returns the channel an event type is published on.
func (p *EventPublisher) Channel(eventType string) string {
	return p.prefix + eventType
}

// Publish sends the event. Delivery is at least once: the outbox worker
// retries events whose publish or mark step failed.
func (p *EventPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	body, err := json.Marshal(EventMessage{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.Channel(event.EventType), body).Err()
}
