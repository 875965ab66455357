package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

// StatusChecker is the part of Manager the poller needs.
type StatusChecker interface {
	GetOrderStatus(ctx context.Context, trackingID string, providerName domain.ProviderName) domain.StatusResult
}

type PollerConfig struct {
	Interval  time.Duration
	BatchSize int
}

// StatusPoller refreshes the courier status of shipments that have not
// reached a terminal state.
type StatusPoller struct {
	checker StatusChecker
	records domain.DispatchRepository
	events  domain.EventPublisher
	config  PollerConfig
	logger  *slog.Logger
}

func NewStatusPoller(checker StatusChecker, records domain.DispatchRepository, events domain.EventPublisher, cfg PollerConfig, logger *slog.Logger) *StatusPoller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &StatusPoller{
		checker: checker,
		records: records,
		events:  events,
		config:  cfg,
		logger:  logger.With("component", "status_poller"),
	}
}

// Run polls every Interval until ctx is cancelled. A failed cycle is logged
// and retried on the next tick.
func (p *StatusPoller) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "Starting status poller", "interval", p.config.Interval, "batch_size", p.config.BatchSize)
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Status poller stopped")
			return nil
		case <-ticker.C:
			updated, err := p.PollOnce(ctx)
			if err != nil {
				p.logger.ErrorContext(ctx, "Status poll cycle failed", "error", err)
				continue
			}
			if updated > 0 {
				p.logger.InfoContext(ctx, "Status poll cycle updated shipments", "count", updated)
			}
		}
	}
}

// PollOnce checks one batch of active shipments and returns how many changed.
func (p *StatusPoller) PollOnce(ctx context.Context) (int, error) {
	records, err := p.records.ListActive(ctx, domain.TerminalStatuses, p.config.BatchSize)
	if err != nil {
		statusPollRunsCounter.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("listing active dispatches: %w", err)
	}

	updated := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if rec.TrackingID == nil || *rec.TrackingID == "" {
			continue
		}
		res := p.checker.GetOrderStatus(ctx, *rec.TrackingID, rec.Provider)
		if !res.Success {
			p.logger.WarnContext(ctx, "Status check failed", "record_id", rec.ID, "provider", rec.Provider, "message", res.Message)
			p.markPolled(ctx, rec)
			continue
		}
		if res.Status == domain.StatusUnknown || res.Status == rec.Status {
			p.markPolled(ctx, rec)
			continue
		}

		if err := p.records.UpdateStatus(ctx, rec.ID, res.Status, res.Raw); err != nil {
			p.logger.ErrorContext(ctx, "Failed to store new status", "record_id", rec.ID, "status", res.Status, "error", err)
			continue
		}
		updated++
		statusChangesCounter.WithLabelValues(rec.Provider.String()).Inc()
		p.logger.InfoContext(ctx, "Shipment status changed", "order_id", rec.OrderID, "provider", rec.Provider, "from", rec.Status, "to", res.Status)

		if p.events != nil {
			event := domain.NewDispatchEvent(domain.EventDispatchStatusChanged, rec.Provider)
			event.OrderID = rec.OrderID
			event.TrackingID = *rec.TrackingID
			event.Status = res.Status
			event.Message = fmt.Sprintf("status changed from %q", rec.Status)
			if err := p.events.Publish(ctx, rec.OrderID, event); err != nil {
				p.logger.ErrorContext(ctx, "Failed to publish status change", "order_id", rec.OrderID, "error", err)
			}
		}
	}
	statusPollRunsCounter.WithLabelValues("ok").Inc()
	return updated, nil
}

// markPolled moves rec to the back of the polling queue.
func (p *StatusPoller) markPolled(ctx context.Context, rec *domain.DispatchRecord) {
	if err := p.records.MarkPolled(ctx, rec.ID); err != nil {
		p.logger.ErrorContext(ctx, "Failed to mark shipment polled", "record_id", rec.ID, "error", err)
	}
}
