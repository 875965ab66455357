package geo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads an authoritative table from a courier API.
type FetchFunc func(ctx context.Context) (Table, error)

// ZoneFetchFunc loads the zone table of one city.
type ZoneFetchFunc func(ctx context.Context, cityID int) (Table, error)

// tableCache loads tables through a TableStore, fetching at most once per key
// concurrently.
type tableCache struct {
	name   string
	store  TableStore
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func (c *tableCache) load(ctx context.Context, key string, fetch FetchFunc) (Table, error) {
	t, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "Geo cache read failed, fetching from courier", "key", key, "error", err)
	}
	if t != nil {
		geoCacheLookups.WithLabelValues(c.name, "hit").Inc()
		return t, nil
	}
	geoCacheLookups.WithLabelValues(c.name, "miss").Inc()
	return c.refresh(ctx, key, fetch)
}

func (c *tableCache) refresh(ctx context.Context, key string, fetch FetchFunc) (Table, error) {
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		t, err := fetch(ctx)
		if err != nil {
			geoFetchErrors.WithLabelValues(c.name).Inc()
			return nil, err
		}
		if err := c.store.Set(ctx, key, t, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "Failed to cache geo table", "key", key, "error", err)
		}
		c.logger.InfoContext(ctx, "Geo table refreshed", "key", key, "entries", len(t))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Table), nil
}

// LiveResolver resolves against a courier's own location list and falls back
// to another resolver when the list is unavailable or lacks the name.
type LiveResolver struct {
	key      string
	fetch    FetchFunc
	cache    *tableCache
	fallback Resolver
}

func NewLiveResolver(key string, fetch FetchFunc, store TableStore, ttl time.Duration, fallback Resolver, logger *slog.Logger) *LiveResolver {
	return &LiveResolver{
		key:   key,
		fetch: fetch,
		cache: &tableCache{
			name:   key,
			store:  store,
			ttl:    ttl,
			logger: logger.With("component", "geo_live_resolver", "table", key),
		},
		fallback: fallback,
	}
}

func (r *LiveResolver) Resolve(ctx context.Context, name string) (int, error) {
	t, err := r.cache.load(ctx, r.key, r.fetch)
	if err != nil {
		r.cache.logger.WarnContext(ctx, "Live geo lookup unavailable, using fallback", "name", name, "error", err)
	} else if id, ok := t.Lookup(name); ok {
		return id, nil
	}
	if r.fallback == nil {
		return 0, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	return r.fallback.Resolve(ctx, name)
}

// Refresh refetches the table regardless of the cached copy.
func (r *LiveResolver) Refresh(ctx context.Context) error {
	_, err := r.cache.refresh(ctx, r.key, r.fetch)
	return err
}

// LiveZoneResolver is the per-city counterpart of LiveResolver.
type LiveZoneResolver struct {
	prefix   string
	fetch    ZoneFetchFunc
	cache    *tableCache
	fallback ZoneResolver
}

func NewLiveZoneResolver(prefix string, fetch ZoneFetchFunc, store TableStore, ttl time.Duration, fallback ZoneResolver, logger *slog.Logger) *LiveZoneResolver {
	return &LiveZoneResolver{
		prefix: prefix,
		fetch:  fetch,
		cache: &tableCache{
			name:   prefix,
			store:  store,
			ttl:    ttl,
			logger: logger.With("component", "geo_live_zone_resolver", "table", prefix),
		},
		fallback: fallback,
	}
}

func (r *LiveZoneResolver) ResolveZone(ctx context.Context, cityID int, name string) (int, error) {
	key := fmt.Sprintf("%s:%d", r.prefix, cityID)
	t, err := r.cache.load(ctx, key, func(ctx context.Context) (Table, error) {
		return r.fetch(ctx, cityID)
	})
	if err != nil {
		r.cache.logger.WarnContext(ctx, "Live zone lookup unavailable, using fallback", "city_id", cityID, "name", name, "error", err)
	} else if id, ok := t.Lookup(name); ok {
		return id, nil
	}
	if r.fallback == nil {
		return 0, fmt.Errorf("%w: zone %q in city %d", ErrLocationNotFound, name, cityID)
	}
	return r.fallback.ResolveZone(ctx, cityID, name)
}
