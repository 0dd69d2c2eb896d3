package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tradebook/internal/domain"
)

func TestEventPublisher_Publish(t *testing.T) {
	client, _ := newTestRedisClient(t)

	pub := NewEventPublisher(client)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, pub.Channel(domain.EventTypeImportCompleted))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "acc-1",
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeImportCompleted,
		Payload:       map[string]any{"imported": 3},
		CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(ctx, event))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tradebook.events.import.completed", msg.Channel)

	var got EventMessage
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "evt-1", got.ID)
	assert.Equal(t, "acc-1", got.AggregateID)
	assert.EqualValues(t, 3, got.Payload["imported"])
}
