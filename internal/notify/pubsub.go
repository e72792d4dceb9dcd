package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"sulabh/backend/internal/models"
)

// EventsChannel is the Redis channel complaint events are broadcast on.
const EventsChannel = "complaint:events"

func (m *ManagerService) publishRedis(ctx context.Context, event models.ComplaintEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode complaint event: %w", err)
	}
	if err := m.Redis.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish complaint event: %w", err)
	}
	return nil
}

// StartPubSubListener starts a goroutine that feeds events broadcast by any
// instance into this hub until ctx ends.
func (m *ManagerService) StartPubSubListener(ctx context.Context) {
	pubsub := m.Redis.Subscribe(ctx, EventsChannel)

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.ComplaintEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					m.Logger.Error("error unmarshalling redis message", "error", err)
					continue
				}
				select {
				case m.EventCh <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	m.Logger.Info("listening for complaint events", "channel", EventsChannel)
}
