// Package main is the entry point for the pinlog API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shumpiss/pinlog/internal/config"
	"github.com/shumpiss/pinlog/internal/handler"
	"github.com/shumpiss/pinlog/internal/kv"
	"github.com/shumpiss/pinlog/internal/logging"
	"github.com/shumpiss/pinlog/internal/metrics"
	"github.com/shumpiss/pinlog/internal/offline"
	"github.com/shumpiss/pinlog/internal/repo"
	"github.com/shumpiss/pinlog/internal/service"
	"github.com/shumpiss/pinlog/internal/tracing"
)

const serviceName = "pinlog"

func main() {
	if err := run(); err != nil {
		// Use plain stderr; the configured logger may not exist yet.
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	zone, err := cfg.Location()
	if err != nil {
		return err
	}

	// --- Logger -----------------------------------------------------------
	logger := logging.New(os.Stdout, logging.Options{
		Level:  logging.ParseLevel(cfg.LogLevel, logging.LevelForEnv(cfg.Env)),
		Format: cfg.LogFormat,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ----------------------------------------------------------
	tp, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.IsDevelopment(),
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", "error", err)
		}
	}()

	// --- Metrics ----------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return err
	}

	// --- Storage ----------------------------------------------------------
	store, err := kv.Open(ctx, kv.Config{
		Driver:      kv.Driver(cfg.StorageDriver),
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
		RedisPrefix: cfg.RedisPrefix,
		S3: kv.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Prefix:          cfg.S3Prefix,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PathStyle:       cfg.S3PathStyle,
		},
	}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if v, err := repo.StoredVersion(ctx, store); err != nil {
		logger.Warn("could not read storage version", "error", err)
	} else {
		logger.Info("storage ready", "driver", store.Driver(), "version", v)
	}

	// --- Services ---------------------------------------------------------
	opts := []service.Option{service.WithRecorder(m), service.WithTimeZone(zone)}
	locations := service.NewLocationService(repo.NewLocationRepo(store, logger), logger, opts...)
	pins := service.NewPinService(repo.NewPinRepo(store, logger), logger, opts...)
	exports := service.NewExportService(repo.NewLocationRepo(store, logger))

	// --- Offline cache ----------------------------------------------------
	var fallback http.Handler
	if cfg.UpstreamURL != "" {
		client := &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		upstream, err := offline.NewUpstreamFetcher(cfg.UpstreamURL, client)
		if err != nil {
			return err
		}
		wcfg := offline.DefaultConfig()
		wcfg.CacheSize = cfg.CacheSize
		worker := offline.NewWorker(wcfg, upstream, logger, offline.WithRecorder(m))

		installCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := worker.Install(installCtx); err != nil {
			// Not fatal: runtime caching still fills the caches as clients browse.
			logger.Warn("offline cache install incomplete", "error", err)
		}
		cancel()
		worker.Activate(ctx)
		fallback = worker
		logger.Info("offline cache enabled", "upstream", upstream.Origin())
	}

	// --- Router -----------------------------------------------------------
	srv := handler.NewServer(locations, pins, exports, logger)
	router := handler.NewRouter(srv, handler.RouterConfig{
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Metrics:      m,
		Gatherer:     reg,
		Fallback:     fallback,
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr, "env", cfg.Env)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
