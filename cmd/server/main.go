package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/levutuan/tragia/internal/api"
	"github.com/levutuan/tragia/internal/config"
	"github.com/levutuan/tragia/internal/metrics"
	"github.com/levutuan/tragia/internal/middleware"
	"github.com/levutuan/tragia/internal/remote"
	"github.com/levutuan/tragia/internal/store"
	"github.com/levutuan/tragia/internal/syncer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if len(cfg.APIKeys) == 0 {
		slog.Warn("API_KEYS not set, all requests will be accepted without authentication")
	}

	slog.Info("opening store", "data_dir", cfg.DataDir)
	s, err := store.Open(cfg.DataDir, store.Options{CacheTTL: cfg.CacheTTL})
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	manifest, err := store.ReadManifest(cfg.DataDir)
	if err != nil {
		slog.Warn("manifest not found or unreadable", "error", err)
		manifest = nil
	} else {
		slog.Info("manifest loaded",
			"schema_version", manifest.SchemaVersion,
			"product_count", manifest.ProductCount,
			"build_time", manifest.BuildTime,
		)
	}

	reg := metrics.NewRegistry()
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, cfg.APIKeys, s, manifest, reg)

	var sched *cron.Cron
	if cfg.RemoteURL != "" {
		engine := syncer.New(s, remote.New(cfg.RemoteURL, cfg.RemoteAPIKey), logger)
		syncHist := reg.Register("sync", metrics.BucketsSync)

		sched = cron.New()
		if _, err := sched.AddFunc(cfg.SyncSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			start := time.Now()
			report := engine.Sync(ctx)
			syncHist.Observe(time.Since(start))
			slog.Info("background sync finished",
				"pushed", report.Pushed,
				"pulled", report.Pulled,
				"took", time.Since(start).Round(time.Millisecond),
			)
		}); err != nil {
			slog.Error("invalid sync schedule", "schedule", cfg.SyncSchedule, "error", err)
			os.Exit(1)
		}
		sched.Start()
		slog.Info("background sync enabled", "remote", cfg.RemoteURL, "schedule", cfg.SyncSchedule)
	}

	// Middleware chain (outer to inner): Logging -> CORS -> RateLimit -> mux
	handler := middleware.Chain(
		mux,
		middleware.Logging(logger),
		middleware.CORS(cfg.CORSOrigins),
		middleware.RateLimit(cfg.RateRPS, cfg.RateBurst),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	if sched != nil {
		<-sched.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exited")
}
