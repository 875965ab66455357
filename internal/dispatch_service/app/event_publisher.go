package app

import (
	"context"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

// MessagePublisher is a keyed JSON message sink such as messagebroker.KafkaPublisher.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value any, headers map[string]string) error
}

// BrokerEventPublisher sends dispatch events through a MessagePublisher,
// tagging each message with its event type.
type BrokerEventPublisher struct {
	broker MessagePublisher
}

func NewBrokerEventPublisher(broker MessagePublisher) *BrokerEventPublisher {
	return &BrokerEventPublisher{broker: broker}
}

func (p *BrokerEventPublisher) Publish(ctx context.Context, key string, event domain.DispatchEvent) error {
	return p.broker.Publish(ctx, key, event, map[string]string{"event_type": string(event.Type)})
}
