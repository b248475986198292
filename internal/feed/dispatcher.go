package feed

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"

	"driver-review-service/internal/events"
	"driver-review-service/pkg/logger"
)

// groupID is shared by every instance, so cache invalidation runs once per event.
const groupID = "feed-group"

// instanceGroupID is unique per process so every instance sees every review
// and can push it to its own WebSocket subscribers.
func instanceGroupID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()
	}
	return groupID + "-" + host
}

// Invalidator drops cached read projections.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Message is what WebSocket subscribers receive.
type Message struct {
	Type   string                      `json:"type"`
	Review events.ReviewSubmittedEvent `json:"review"`
}

// Dispatcher consumes domain events, invalidates cached leaderboards and
// forwards new reviews to WebSocket subscribers.
type Dispatcher struct {
	sub       events.Subscriber
	broadcast string
	hub       *Hub
	cache     Invalidator
	log       logger.ILogger
}

func NewDispatcher(sub events.Subscriber, hub *Hub, cache Invalidator, log logger.ILogger) *Dispatcher {
	return &Dispatcher{sub: sub, broadcast: instanceGroupID(), hub: hub, cache: cache, log: log}
}

// Start begins consuming in background goroutines until ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	d.sub.Subscribe(ctx, events.TopicReviewSubmitted, d.broadcast, func(data []byte) error {
		var ev events.ReviewSubmittedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		d.hub.Broadcast(ev.VehicleNumber, Message{Type: events.TopicReviewSubmitted, Review: ev})
		return nil
	})
	for _, topic := range events.Topics {
		topic := topic
		d.sub.Subscribe(ctx, topic, groupID, func([]byte) error {
			d.invalidate(ctx, topic)
			return nil
		})
	}
}

func (d *Dispatcher) invalidate(ctx context.Context, topic string) {
	if err := d.cache.Invalidate(ctx); err != nil {
		d.log.Warning("cache invalidation failed", logger.String("topic", topic), logger.Error(err))
	}
}
