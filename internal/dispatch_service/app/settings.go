package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
	"github.com/technirvor/logistics_services/internal/dispatch_service/geo"
	"github.com/technirvor/logistics_services/internal/dispatch_service/provider"
	"github.com/technirvor/logistics_services/internal/platform/config"
)

const DefaultGeoCacheTTL = 24 * time.Hour

// Settings is everything the Manager needs to build its adapters.
type Settings struct {
	Pathao    provider.PathaoConfig
	Steadfast provider.SteadfastConfig
	Redx      provider.RedxConfig

	HTTPClient *http.Client
	Tables     *geo.Tables

	// LiveGeo switches Pathao and Redx location lookups to the couriers'
	// own lists, cached in GeoStore for GeoCacheTTL.
	LiveGeo     bool
	GeoStore    geo.TableStore
	GeoCacheTTL time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Pathao: provider.PathaoConfig{
			BaseURL:      cfg.PathaoAPIURL,
			ClientID:     cfg.PathaoClientID,
			ClientSecret: cfg.PathaoClientSecret,
			Username:     cfg.PathaoUsername,
			Password:     cfg.PathaoPassword,
			StoreID:      cfg.PathaoStoreID,
		},
		Steadfast: provider.SteadfastConfig{
			BaseURL:   cfg.SteadfastAPIURL,
			APIKey:    cfg.SteadfastAPIKey,
			SecretKey: cfg.SteadfastSecretKey,
		},
		Redx: provider.RedxConfig{
			BaseURL: cfg.RedxAPIURL,
			APIKey:  cfg.RedxAPIKey,
		},
		HTTPClient:  &http.Client{Timeout: cfg.HTTPClientTimeout},
		LiveGeo:     cfg.GeoLiveLookup,
		GeoCacheTTL: cfg.GeoCacheTTL,
	}
}

// Refresher reloads one live location table.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// buildAdapters constructs one adapter per fully configured provider.
// Construction failures are logged and leave that provider unconfigured.
func buildAdapters(s Settings, logger *slog.Logger) (map[domain.ProviderName]provider.Adapter, map[string]Refresher) {
	adapters := make(map[domain.ProviderName]provider.Adapter)
	refreshers := make(map[string]Refresher)

	tables := s.Tables
	if tables == nil {
		var err error
		if tables, err = geo.DefaultTables(); err != nil {
			logger.Error("Failed to load embedded geo tables", "error", err)
			tables = &geo.Tables{}
		}
	}
	store := s.GeoStore
	if s.LiveGeo && store == nil {
		store = geo.NewMemoryTableStore()
	}
	if s.GeoCacheTTL <= 0 {
		s.GeoCacheTTL = DefaultGeoCacheTTL
	}

	if s.Pathao.Complete() {
		var cities geo.Resolver = tables.PathaoCities()
		var zones geo.ZoneResolver = tables.PathaoZones()
		// The live resolvers call back into the adapter, which needs them
		// at construction, hence the late-bound variable.
		var pathao *provider.PathaoAdapter
		if s.LiveGeo {
			liveCities := geo.NewLiveResolver("pathao:cities", func(ctx context.Context) (geo.Table, error) {
				return pathao.FetchCities(ctx)
			}, store, s.GeoCacheTTL, cities, logger)
			zones = geo.NewLiveZoneResolver("pathao:zones", func(ctx context.Context, cityID int) (geo.Table, error) {
				return pathao.FetchZones(ctx, cityID)
			}, store, s.GeoCacheTTL, zones, logger)
			cities = liveCities
			refreshers["pathao:cities"] = liveCities
		}
		a, err := provider.NewPathaoAdapter(s.Pathao, cities, zones, s.HTTPClient, logger)
		if err != nil {
			logger.Error("Failed to initialize courier adapter", "provider", domain.ProviderPathao, "error", err)
			delete(refreshers, "pathao:cities")
		} else {
			pathao = a
			adapters[domain.ProviderPathao] = a
		}
	}

	if s.Steadfast.Complete() {
		a, err := provider.NewSteadfastAdapter(s.Steadfast, s.HTTPClient, logger)
		if err != nil {
			logger.Error("Failed to initialize courier adapter", "provider", domain.ProviderSteadfast, "error", err)
		} else {
			adapters[domain.ProviderSteadfast] = a
		}
	}

	if s.Redx.Complete() {
		var areas geo.Resolver = tables.RedxAreas()
		var redx *provider.RedxAdapter
		if s.LiveGeo {
			liveAreas := geo.NewLiveResolver("redx:areas", func(ctx context.Context) (geo.Table, error) {
				return redx.FetchAreas(ctx)
			}, store, s.GeoCacheTTL, areas, logger)
			areas = liveAreas
			refreshers["redx:areas"] = liveAreas
		}
		a, err := provider.NewRedxAdapter(s.Redx, areas, s.HTTPClient, logger)
		if err != nil {
			logger.Error("Failed to initialize courier adapter", "provider", domain.ProviderRedx, "error", err)
			delete(refreshers, "redx:areas")
		} else {
			redx = a
			adapters[domain.ProviderRedx] = a
		}
	}

	return adapters, refreshers
}

// notConfigured is the error reported for a provider without an adapter.
func notConfigured(name domain.ProviderName) error {
	return fmt.Errorf("%s %w", name.DisplayName(), domain.ErrProviderNotConfigured)
}
