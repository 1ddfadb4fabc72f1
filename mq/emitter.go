package mq

import (
	"context"
	"encoding/json"
	"log"

	"evenza/models"
	"evenza/rdx"
)

const (
	OrderEventsChannel        = "order-events"
	NotificationEventsChannel = "notification-events"
)

// OrderUpdate is broadcast whenever an order's timeline grows.
type OrderUpdate struct {
	OrderID     string  `json:"orderId"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	UpdatedBy   string  `json:"updatedBy,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}

// EmitOrderUpdate publishes an order event to Redis for live subscribers.
// Delivery is best-effort; persistence already happened by the time this runs.
func EmitOrderUpdate(ctx context.Context, update OrderUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("[Emit] Failed to marshal order update: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, OrderEventsChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish order update: %v", err)
	}
}

// EmitNotification publishes a stored notification for real-time delivery.
func EmitNotification(ctx context.Context, n models.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Printf("[Emit] Failed to marshal notification: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, NotificationEventsChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish notification: %v", err)
	}
}

// SubscribeOrderUpdates delivers decoded order events until ctx is done.
func SubscribeOrderUpdates(ctx context.Context) <-chan OrderUpdate {
	out := make(chan OrderUpdate, 16)
	sub := rdx.Conn.Subscribe(ctx, OrderEventsChannel)

	go func() {
		defer close(out)
		defer sub.Close()
		for msg := range sub.Channel() {
			var update OrderUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				log.Printf("[OrderUpdates] Failed to parse event: %v", err)
				continue
			}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
