package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/technirvor/logistics_services/internal/dispatch_service/app"
	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
	"github.com/technirvor/logistics_services/internal/dispatch_service/geo"
	"github.com/technirvor/logistics_services/internal/dispatch_service/repository/postgres"
	httptransport "github.com/technirvor/logistics_services/internal/dispatch_service/transport/http"
	"github.com/technirvor/logistics_services/internal/platform/cache"
	"github.com/technirvor/logistics_services/internal/platform/config"
	"github.com/technirvor/logistics_services/internal/platform/database"
	"github.com/technirvor/logistics_services/internal/platform/logger"
	"github.com/technirvor/logistics_services/internal/platform/messagebroker"
)

const (
	serviceName     = "dispatch_service"
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"), serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	log.Info("Starting service...", "service", serviceName)

	if err := run(cfg, log); err != nil {
		log.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Service shutdown complete.")
}

func run(cfg *config.Config, log *slog.Logger) error {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	startCtx, startCancel := context.WithTimeout(mainCtx, startupTimeout)
	defer startCancel()

	settings := app.SettingsFromConfig(cfg)

	if cfg.GeoTablesFile != "" {
		tables, err := geo.LoadTables(cfg.GeoTablesFile)
		if err != nil {
			return fmt.Errorf("loading geo tables: %w", err)
		}
		settings.Tables = tables
		log.Info("Geo tables loaded", "file", cfg.GeoTablesFile)
	}

	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(startCtx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			log.Warn("Redis not available, geo tables cached in memory", "error", err)
		} else {
			defer redisClient.Close()
			settings.GeoStore = geo.NewRedisTableStore(redisClient)
			log.Info("Redis connected", "addr", cfg.RedisAddr)
		}
	}

	// Interface values stay nil unless the backing service is configured.
	var records domain.DispatchRepository
	if cfg.PostgresDSN != "" {
		dbPool, err := database.NewDBPool(startCtx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		defer dbPool.Close()
		if err := database.Migrate(startCtx, dbPool); err != nil {
			return err
		}
		records = postgres.NewPgDispatchRepository(dbPool, log)
		log.Info("Database connection pool initialized")
	} else {
		log.Warn("POSTGRES_DSN not set, dispatch records will not be persisted")
	}

	var events domain.EventPublisher
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		publisher, err := messagebroker.NewKafkaPublisher(brokers, cfg.KafkaDispatchTopic, log)
		if err != nil {
			return fmt.Errorf("initializing kafka publisher: %w", err)
		}
		defer publisher.Close()
		events = app.NewBrokerEventPublisher(publisher)
		log.Info("Kafka publisher initialized", "brokers", brokers, "topic", cfg.KafkaDispatchTopic)
	}

	manager := app.NewManager(settings, records, events, log)

	auth := httptransport.AuthConfig{JWTSecret: cfg.JWTSecret, APIKeyHashes: cfg.APIKeyHashList()}
	if auth.JWTSecret == "" && len(auth.APIKeyHashes) == 0 {
		log.Warn("Neither JWT_SECRET nor API_KEY_HASHES is set; every /v1 request will be rejected")
	}
	handler := httptransport.NewDispatchHandler(manager, log, validator.New())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httptransport.NewRouter(handler, auth, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		log.Info("HTTP server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Initiating HTTP server graceful shutdown...")
		return server.Shutdown(shutdownCtx)
	})

	if cfg.StatusPollInterval > 0 {
		if records == nil {
			log.Warn("STATUS_POLL_INTERVAL is set but persistence is disabled; status poller not started")
		} else {
			poller := app.NewStatusPoller(manager, records, events, app.PollerConfig{
				Interval:  cfg.StatusPollInterval,
				BatchSize: cfg.StatusPollBatch,
			}, log)
			g.Go(func() error { return poller.Run(groupCtx) })
		}
	}

	if refreshers := manager.Refreshers(); len(refreshers) > 0 {
		ttl := settings.GeoCacheTTL
		if ttl <= 0 {
			ttl = app.DefaultGeoCacheTTL
		}
		warmer := app.NewGeoWarmer(refreshers, ttl/2, log)
		g.Go(func() error { return warmer.Run(groupCtx) })
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("Received termination signal", "signal", sig)
	case <-groupCtx.Done():
		log.Error("A component stopped, initiating shutdown")
	}

	mainCancel()
	return g.Wait()
}
