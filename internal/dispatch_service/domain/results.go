package domain

import "encoding/json"

// StatusUnknown is reported when a courier omits the current status.
const StatusUnknown = "unknown"

// DispatchResult is the normalized outcome of sending an order to a courier.
// Success implies a non-empty TrackingID; failure implies a non-empty Message.
type DispatchResult struct {
	Success    bool            `json:"success"`
	TrackingID string          `json:"trackingId,omitempty"`
	Provider   ProviderName    `json:"provider"`
	Message    string          `json:"message"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// StatusResult carries the courier's own status string, passed through verbatim.
type StatusResult struct {
	Success    bool            `json:"success"`
	TrackingID string          `json:"trackingId"`
	Status     string          `json:"status,omitempty"`
	Provider   ProviderName    `json:"provider"`
	Message    string          `json:"message,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

type CancelResult struct {
	Success    bool            `json:"success"`
	TrackingID string          `json:"trackingId"`
	Provider   ProviderName    `json:"provider"`
	Message    string          `json:"message"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}
