package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
	"github.com/technirvor/logistics_services/internal/dispatch_service/provider"
)

// Manager is the single entry point for courier operations. Whatever an
// adapter does, the Manager answers with a result value, never an error.
type Manager struct {
	adapters   map[domain.ProviderName]provider.Adapter
	refreshers map[string]Refresher
	records    domain.DispatchRepository // nil disables persistence
	events     domain.EventPublisher     // nil disables events
	logger     *slog.Logger
}

// NewManager builds an adapter for every provider whose credentials are
// complete. records and events may be nil.
func NewManager(s Settings, records domain.DispatchRepository, events domain.EventPublisher, logger *slog.Logger) *Manager {
	logger = logger.With("component", "logistics_manager")
	adapters, refreshers := buildAdapters(s, logger)
	m := newManager(adapters, records, events, logger)
	m.refreshers = refreshers
	for _, name := range domain.AllProviders {
		if _, ok := adapters[name]; !ok {
			logger.Warn("Courier not configured", "provider", name)
		}
	}
	logger.Info("Logistics manager ready", "providers", m.ConfiguredProviders())
	return m
}

// NewManagerWithAdapters is NewManager with prebuilt adapters.
func NewManagerWithAdapters(adapters []provider.Adapter, records domain.DispatchRepository, events domain.EventPublisher, logger *slog.Logger) *Manager {
	byName := make(map[domain.ProviderName]provider.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return newManager(byName, records, events, logger.With("component", "logistics_manager"))
}

func newManager(adapters map[domain.ProviderName]provider.Adapter, records domain.DispatchRepository, events domain.EventPublisher, logger *slog.Logger) *Manager {
	return &Manager{
		adapters:   adapters,
		refreshers: map[string]Refresher{},
		records:    records,
		events:     events,
		logger:     logger,
	}
}

// ConfiguredProviders lists providers with an adapter, in AllProviders order.
func (m *Manager) ConfiguredProviders() []domain.ProviderName {
	names := make([]domain.ProviderName, 0, len(m.adapters))
	for _, name := range domain.AllProviders {
		if _, ok := m.adapters[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Refreshers returns the live location tables keyed by name. It is empty
// unless live lookups are enabled.
func (m *Manager) Refreshers() map[string]Refresher {
	return m.refreshers
}

func (m *Manager) adapter(name domain.ProviderName) (domain.ProviderName, provider.Adapter, error) {
	parsed, err := domain.ParseProviderName(name.String())
	if err != nil {
		return name, nil, err
	}
	a, ok := m.adapters[parsed]
	if !ok {
		return parsed, nil, notConfigured(parsed)
	}
	return parsed, a, nil
}

// lookupLabel keeps caller-supplied names out of metric labels.
func lookupLabel(name domain.ProviderName, err error) string {
	if errors.Is(err, domain.ErrUnknownProvider) {
		return "unknown"
	}
	return name.String()
}

func lookupOutcome(err error) string {
	if errors.Is(err, domain.ErrProviderNotConfigured) {
		return "not_configured"
	}
	return "invalid"
}

// errorBody returns the courier's response body when err carries a JSON one.
func errorBody(err error) json.RawMessage {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) && json.Valid(apiErr.Body) {
		return json.RawMessage(apiErr.Body)
	}
	return nil
}

// SendOrderToProvider creates a consignment for order with the named courier.
func (m *Manager) SendOrderToProvider(ctx context.Context, order domain.Order, providerName domain.ProviderName) domain.DispatchResult {
	name, adapter, err := m.adapter(providerName)
	result := domain.DispatchResult{Provider: name}
	if err != nil {
		m.logger.WarnContext(ctx, "Dispatch rejected", "provider", providerName, "order_id", order.ID, "error", err)
		dispatchRequestsCounter.WithLabelValues(lookupLabel(name, err), "create_order", lookupOutcome(err)).Inc()
		result.Message = err.Error()
		m.record(ctx, order.ID, result, "")
		return result
	}

	if err := order.Validate(); err != nil {
		dispatchRequestsCounter.WithLabelValues(name.String(), "create_order", "invalid").Inc()
		result.Message = err.Error()
		m.record(ctx, order.ID, result, "")
		return result
	}

	m.logger.InfoContext(ctx, "Sending order to courier", "provider", name, "order_id", order.ID)
	resp, err := adapter.CreateOrder(ctx, order)
	if err != nil {
		m.logger.ErrorContext(ctx, "Courier rejected order", "provider", name, "order_id", order.ID, "error", err)
		dispatchRequestsCounter.WithLabelValues(name.String(), "create_order", "failed").Inc()
		result.Message = err.Error()
		result.Raw = errorBody(err)
		m.record(ctx, order.ID, result, "")
		return result
	}
	if resp.TrackingID == "" {
		dispatchRequestsCounter.WithLabelValues(name.String(), "create_order", "failed").Inc()
		result.Message = fmt.Sprintf("%s response did not include a tracking id", name.DisplayName())
		result.Raw = resp.Raw
		m.record(ctx, order.ID, result, "")
		return result
	}

	dispatchRequestsCounter.WithLabelValues(name.String(), "create_order", "success").Inc()
	result.Success = true
	result.TrackingID = resp.TrackingID
	result.Raw = resp.Raw
	result.Message = resp.Message
	if result.Message == "" {
		result.Message = fmt.Sprintf("Order sent to %s", name.DisplayName())
	}
	m.logger.InfoContext(ctx, "Order dispatched", "provider", name, "order_id", order.ID, "tracking_id", resp.TrackingID)
	m.record(ctx, order.ID, result, resp.Status)
	return result
}

// GetOrderStatus asks the courier for the shipment's current status.
func (m *Manager) GetOrderStatus(ctx context.Context, trackingID string, providerName domain.ProviderName) domain.StatusResult {
	name, adapter, err := m.adapter(providerName)
	result := domain.StatusResult{Provider: name, TrackingID: trackingID}
	if err != nil {
		dispatchRequestsCounter.WithLabelValues(lookupLabel(name, err), "order_status", lookupOutcome(err)).Inc()
		result.Message = err.Error()
		return result
	}
	if trackingID == "" {
		dispatchRequestsCounter.WithLabelValues(name.String(), "order_status", "invalid").Inc()
		result.Message = "tracking id is required"
		return result
	}

	resp, err := adapter.GetOrderStatus(ctx, trackingID)
	if err != nil {
		m.logger.WarnContext(ctx, "Courier status lookup failed", "provider", name, "tracking_id", trackingID, "error", err)
		dispatchRequestsCounter.WithLabelValues(name.String(), "order_status", "failed").Inc()
		result.Message = err.Error()
		result.Raw = errorBody(err)
		return result
	}

	dispatchRequestsCounter.WithLabelValues(name.String(), "order_status", "success").Inc()
	result.Success = true
	result.Status = resp.Status
	if result.Status == "" {
		result.Status = domain.StatusUnknown
	}
	result.Raw = resp.Raw
	return result
}

// CancelOrder asks the courier to cancel the shipment.
func (m *Manager) CancelOrder(ctx context.Context, trackingID string, providerName domain.ProviderName) domain.CancelResult {
	name, adapter, err := m.adapter(providerName)
	result := domain.CancelResult{Provider: name, TrackingID: trackingID}
	if err != nil {
		dispatchRequestsCounter.WithLabelValues(lookupLabel(name, err), "cancel_order", lookupOutcome(err)).Inc()
		result.Message = err.Error()
		return result
	}
	if trackingID == "" {
		dispatchRequestsCounter.WithLabelValues(name.String(), "cancel_order", "invalid").Inc()
		result.Message = "tracking id is required"
		return result
	}

	m.logger.InfoContext(ctx, "Cancelling courier order", "provider", name, "tracking_id", trackingID)
	resp, err := adapter.CancelOrder(ctx, trackingID)
	if err != nil {
		m.logger.ErrorContext(ctx, "Courier cancel failed", "provider", name, "tracking_id", trackingID, "error", err)
		dispatchRequestsCounter.WithLabelValues(name.String(), "cancel_order", "failed").Inc()
		result.Message = err.Error()
		result.Raw = errorBody(err)
		return result
	}

	dispatchRequestsCounter.WithLabelValues(name.String(), "cancel_order", "success").Inc()
	result.Success = true
	result.Raw = resp.Raw
	result.Message = resp.Message
	if result.Message == "" {
		result.Message = fmt.Sprintf("%s order cancelled", name.DisplayName())
	}
	m.markCancelled(ctx, name, trackingID, resp.Raw)
	return result
}

// record persists the attempt and publishes the matching event. Failures
// here are logged and never alter the caller's result.
func (m *Manager) record(ctx context.Context, orderID string, result domain.DispatchResult, courierStatus string) {
	status := domain.RecordStatusFailed
	eventType := domain.EventDispatchFailed
	if result.Success {
		status = courierStatus
		if status == "" {
			status = domain.RecordStatusCreated
		}
		eventType = domain.EventDispatchCreated
	}

	if m.records != nil {
		rec := &domain.DispatchRecord{
			OrderID:     orderID,
			Provider:    result.Provider,
			Status:      status,
			Success:     result.Success,
			Message:     result.Message,
			RawResponse: result.Raw,
		}
		if result.TrackingID != "" {
			tracking := result.TrackingID
			rec.TrackingID = &tracking
		}
		if err := m.records.Create(ctx, rec); err != nil {
			m.logger.ErrorContext(ctx, "Failed to persist dispatch record", "order_id", orderID, "provider", result.Provider, "error", err)
		}
	}

	event := domain.NewDispatchEvent(eventType, result.Provider)
	event.OrderID = orderID
	event.TrackingID = result.TrackingID
	event.Status = status
	event.Message = result.Message
	m.publish(ctx, orderID, event)
}

func (m *Manager) markCancelled(ctx context.Context, name domain.ProviderName, trackingID string, raw json.RawMessage) {
	orderID := ""
	if m.records != nil {
		rec, err := m.records.GetByTracking(ctx, name, trackingID)
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			m.logger.DebugContext(ctx, "No dispatch record for cancelled shipment", "provider", name, "tracking_id", trackingID)
		case err != nil:
			m.logger.ErrorContext(ctx, "Failed to load dispatch record", "provider", name, "tracking_id", trackingID, "error", err)
		default:
			orderID = rec.OrderID
			if err := m.records.UpdateStatus(ctx, rec.ID, domain.RecordStatusCancelled, raw); err != nil {
				m.logger.ErrorContext(ctx, "Failed to mark dispatch record cancelled", "record_id", rec.ID, "error", err)
			}
		}
	}

	event := domain.NewDispatchEvent(domain.EventDispatchCancelled, name)
	event.OrderID = orderID
	event.TrackingID = trackingID
	event.Status = domain.RecordStatusCancelled
	key := orderID
	if key == "" {
		key = trackingID
	}
	m.publish(ctx, key, event)
}

func (m *Manager) publish(ctx context.Context, key string, event domain.DispatchEvent) {
	if m.events == nil {
		return
	}
	if err := m.events.Publish(ctx, key, event); err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish dispatch event", "event_type", event.Type, "key", key, "error", err)
	}
}
