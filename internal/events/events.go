package events

import (
	"context"
	"encoding/json"
	"sync"

	"driver-review-service/pkg/logger"
)

// Topic names.
const (
	TopicDriverAdded     = "driver.added"
	TopicReviewSubmitted = "review.submitted"
	TopicProfileUpdated  = "profile.updated"
)

// Topics lists every topic the service produces.
var Topics = []string{TopicDriverAdded, TopicReviewSubmitted, TopicProfileUpdated}

// DriverAddedEvent is published to driver.added.
type DriverAddedEvent struct {
	DriverID      string  `json:"driver_id"`
	VehicleNumber string  `json:"vehicle_number"`
	Platform      string  `json:"platform"`
	ContributedBy *string `json:"contributed_by"`
	Source        string  `json:"source"` // "register" or "quick_review"
	CreatedAt     string  `json:"created_at"`
}

// ReviewSubmittedEvent is published to review.submitted.
type ReviewSubmittedEvent struct {
	ReviewID      string  `json:"review_id"`
	DriverID      string  `json:"driver_id"`
	VehicleNumber string  `json:"vehicle_number"`
	Platform      string  `json:"platform"`
	ReviewerID    string  `json:"reviewer_id"`
	Rating        int     `json:"rating"`
	ReviewText    *string `json:"review_text"`
	CreatedAt     string  `json:"created_at"`
}

// ProfileUpdatedEvent is published to profile.updated.
type ProfileUpdatedEvent struct {
	ProfileID string `json:"profile_id"`
	Username  string `json:"username"`
}

// Publisher sends an event payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Subscriber delivers raw payloads of a topic to handler until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, groupID string, handler func([]byte) error)
}

// Loopback is an in-process Publisher and Subscriber used when no broker is configured.
// Publish delivers synchronously to every handler of the topic.
type Loopback struct {
	mu       sync.RWMutex
	handlers map[string][]func([]byte) error
	log      logger.ILogger
}

func NewLoopback(log logger.ILogger) *Loopback {
	return &Loopback{handlers: make(map[string][]func([]byte) error), log: log}
}

func (l *Loopback) Publish(_ context.Context, topic, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	l.mu.RLock()
	hs := l.handlers[topic]
	l.mu.RUnlock()
	for _, h := range hs {
		if err := h(data); err != nil {
			l.log.Error("loopback handler failed", logger.String("topic", topic), logger.String("key", key), logger.Error(err))
		}
	}
	return nil
}

// Subscribe registers handler for the lifetime of the Loopback.
func (l *Loopback) Subscribe(_ context.Context, topic, _ string, handler func([]byte) error) {
	l.mu.Lock()
	l.handlers[topic] = append(l.handlers[topic], handler)
	l.mu.Unlock()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
