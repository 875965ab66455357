package app

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// GeoWarmer keeps live location tables fresh so checkout requests rarely
// pay for a courier list fetch.
type GeoWarmer struct {
	refreshers map[string]Refresher
	interval   time.Duration
	logger     *slog.Logger
}

func NewGeoWarmer(refreshers map[string]Refresher, interval time.Duration, logger *slog.Logger) *GeoWarmer {
	return &GeoWarmer{
		refreshers: refreshers,
		interval:   interval,
		logger:     logger.With("component", "geo_warmer"),
	}
}

// Run warms every table once, then again every interval until ctx is done.
func (w *GeoWarmer) Run(ctx context.Context) error {
	w.WarmOnce(ctx)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.WarmOnce(ctx)
		}
	}
}

// WarmOnce refreshes each table and returns the number that failed.
func (w *GeoWarmer) WarmOnce(ctx context.Context) int {
	names := make([]string, 0, len(w.refreshers))
	for name := range w.refreshers {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		if err := w.refreshers[name].Refresh(ctx); err != nil {
			failed++
			geoRefreshCounter.WithLabelValues(name, "error").Inc()
			w.logger.WarnContext(ctx, "Geo table refresh failed", "table", name, "error", err)
			continue
		}
		geoRefreshCounter.WithLabelValues(name, "ok").Inc()
		w.logger.DebugContext(ctx, "Geo table refreshed", "table", name)
	}
	return failed
}
