package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DispatchRecord is the audit row written for every send attempt.
type DispatchRecord struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     string          `json:"order_id"`
	Provider    ProviderName    `json:"provider"`
	TrackingID  *string         `json:"tracking_id,omitempty"`
	Status      string          `json:"status"`
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DispatchRepository persists dispatch records.
type DispatchRepository interface {
	Create(ctx context.Context, record *DispatchRecord) error
	GetByTracking(ctx context.Context, provider ProviderName, trackingID string) (*DispatchRecord, error)
	// UpdateStatus also counts as a poll of the record.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, raw json.RawMessage) error
	// MarkPolled records that the courier was asked for the status, whatever the answer.
	MarkPolled(ctx context.Context, id uuid.UUID) error
	// ListActive returns successful records whose status is not terminal,
	// never-polled first, then least recently polled.
	ListActive(ctx context.Context, terminal []string, limit int) ([]*DispatchRecord, error)
}

// Initial status values written by the dispatch layer itself.
const (
	RecordStatusCreated   = "created"
	RecordStatusFailed    = "failed"
	RecordStatusCancelled = "cancelled"
)

// TerminalStatuses are courier status strings after which polling stops.
// Couriers use their own vocabulary, so the list covers each one's spelling.
var TerminalStatuses = []string{
	RecordStatusFailed,
	RecordStatusCancelled,
	"delivered",
	"partial_delivered",
	"partial delivered",
	"returned",
	"return",
	"paid",
	"paid_return",
	"cancelled_approval_pending",
}

// IsTerminalStatus reports whether status ends a shipment's lifecycle.
func IsTerminalStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}
