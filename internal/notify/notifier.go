// Package notify publishes ledger events to a Redis queue for
// downstream consumers. Emission is best effort: a queue failure is
// logged and never fails the operation that produced the event.
package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"

	"github.com/gigboard/backend/internal/models"
)

type QueueNotifier struct {
	redis *redis.Client
	queue string
}

func NewQueueNotifier(redisClient *redis.Client) *QueueNotifier {
	viper.SetDefault("events.queue", "gig_events")
	return &QueueNotifier{
		redis: redisClient,
		queue: viper.GetString("events.queue"),
	}
}

func (n *QueueNotifier) Emit(ctx context.Context, event models.Event) {
	log.Printf("[EVENTS] %s %s: %v", event.Type, event.ID, event.Data)

	if n.redis == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[EVENTS] Failed to marshal event %s: %v", event.ID, err)
		return
	}
	if err := n.redis.RPush(ctx, n.queue, data).Err(); err != nil {
		log.Printf("[EVENTS] Failed to queue event %s: %v", event.ID, err)
	}
}
