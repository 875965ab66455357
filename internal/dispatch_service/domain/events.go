package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type DispatchEventType string

const (
	EventDispatchCreated       DispatchEventType = "dispatch.created"
	EventDispatchFailed        DispatchEventType = "dispatch.failed"
	EventDispatchCancelled     DispatchEventType = "dispatch.cancelled"
	EventDispatchStatusChanged DispatchEventType = "dispatch.status_changed"
)

// DispatchEvent is published for downstream order-fulfillment consumers.
type DispatchEvent struct {
	ID         uuid.UUID         `json:"id"`
	Type       DispatchEventType `json:"type"`
	OrderID    string            `json:"order_id,omitempty"`
	Provider   ProviderName      `json:"provider"`
	TrackingID string            `json:"tracking_id,omitempty"`
	Status     string            `json:"status,omitempty"`
	Message    string            `json:"message,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewDispatchEvent(eventType DispatchEventType, provider ProviderName) DispatchEvent {
	return DispatchEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Provider:   provider,
		OccurredAt: time.Now().UTC(),
	}
}

// EventPublisher delivers dispatch events, keyed for partitioning.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event DispatchEvent) error
}
