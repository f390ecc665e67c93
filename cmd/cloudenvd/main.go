package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/api"
	"github.com/lzjever/cloudenv/internal/controlplane"
	"github.com/lzjever/cloudenv/internal/cost"
	"github.com/lzjever/cloudenv/internal/lifecycle"
	"github.com/lzjever/cloudenv/internal/objectstore"
	"github.com/lzjever/cloudenv/internal/observability"
	"github.com/lzjever/cloudenv/internal/pricing"
	"github.com/lzjever/cloudenv/internal/reconcile"
	"github.com/lzjever/cloudenv/internal/store"
)

type config struct {
	api          api.Config
	controlPlane controlplane.Config
	reconcile    reconcile.Config
	pricing      pricing.Config
	objectStore  objectstore.Config
}

func loadConfig() (config, error) {
	var cfg config
	targets := []struct {
		name   string
		target interface{}
	}{
		{"api", &cfg.api},
		{"control plane", &cfg.controlPlane},
		{"reconcile", &cfg.reconcile},
		{"pricing", &cfg.pricing},
		{"object store", &cfg.objectStore},
	}
	for _, s := range targets {
		if err := envconfig.Process("", s.target); err != nil {
			return cfg, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, _ := observability.NewLogger(cfg.api.LogLevel)
	defer log.Sync()

	// Replace global logger
	zap.ReplaceGlobals(log)

	reg := prometheus.DefaultRegisterer
	observability.RegisterAll(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tables, ready, closeStore, err := loadPricing(ctx, cfg.pricing, log)
	if err != nil {
		log.Fatal("pricing load failed", zap.Error(err))
	}
	defer closeStore()
	log.Info("pricing loaded",
		zap.String("source", cfg.pricing.Source),
		zap.Int("entries", len(tables.Entries())),
		zap.Int("machine_types", len(tables.MachineTypes())),
	)

	var preview objectstore.Previewer
	gcs, err := objectstore.NewGCS(ctx, cfg.objectStore, log)
	if err != nil {
		log.Warn("object storage unavailable, user-script logs will not be shown", zap.Error(err))
		preview = objectstore.Unavailable{Err: err}
	} else {
		defer gcs.Close()
		preview = gcs
	}

	provider := lifecycle.NewLeo(controlplane.NewClient(cfg.controlPlane, log), preview, log)
	manager := reconcile.NewManager(ctx, provider, cost.NewEngine(tables), cfg.reconcile, log)
	defer manager.Close()

	apiHandler := api.NewAPI(manager, ready, log)
	srv := &http.Server{
		Addr:         cfg.api.HTTPAddr,
		Handler:      apiHandler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.controlPlane.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    cfg.api.MetricsAddr,
		Handler: mux,
	}

	go func() {
		log.Info("metrics server starting", zap.String("addr", cfg.api.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("API server starting", zap.String("addr", cfg.api.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("API server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.api.ShutdownTimeout)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Info("stopped")
}

// loadPricing builds the process-wide price tables once. With the postgres
// source it also returns the pool as the readiness check.
func loadPricing(ctx context.Context, cfg pricing.Config, log *zap.Logger) (*pricing.Tables, api.Pinger, func(), error) {
	switch cfg.Source {
	case "", "static":
		t, err := pricing.StaticSource{}.Load(ctx)
		return t, nil, func() {}, err
	case "postgres":
		if cfg.DBDSN == "" {
			return nil, nil, nil, fmt.Errorf("PRICING_DB_DSN is required for the postgres pricing source")
		}
		pool, err := store.NewPool(ctx, cfg.PoolConfig())
		if err != nil {
			return nil, nil, nil, err
		}
		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		t, err := pricing.NewPostgresSource(store.New(pool), cfg.SeedIfEmpty, log).Load(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return t, pool, pool.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown pricing source %q", cfg.Source)
	}
}
