package provider

import (
	"context"
	"encoding/json"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

// OrderResponse is a courier's answer to order creation, with the tracking
// identifier pulled out of the courier-specific field.
type OrderResponse struct {
	TrackingID string
	Status     string
	Message    string
	Raw        json.RawMessage
}

type StatusResponse struct {
	TrackingID string
	Status     string // courier vocabulary, verbatim; empty when absent
	Raw        json.RawMessage
}

type CancelResponse struct {
	TrackingID string
	Message    string
	Raw        json.RawMessage
}

// Adapter speaks exactly one courier's HTTP contract.
type Adapter interface {
	Name() domain.ProviderName
	CreateOrder(ctx context.Context, order domain.Order) (*OrderResponse, error)
	GetOrderStatus(ctx context.Context, trackingID string) (*StatusResponse, error)
	CancelOrder(ctx context.Context, trackingID string) (*CancelResponse, error)
}
