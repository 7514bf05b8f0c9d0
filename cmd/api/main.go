package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/ciaan/internal/auth"
	"github.com/geocoder89/ciaan/internal/cache"
	"github.com/geocoder89/ciaan/internal/config"
	httpx "github.com/geocoder89/ciaan/internal/http"
	"github.com/geocoder89/ciaan/internal/observability"
	"github.com/geocoder89/ciaan/internal/queue/redisclient"
	"github.com/geocoder89/ciaan/internal/security"
	"github.com/geocoder89/ciaan/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// one store handle for the whole process
	st, err := store.Open(ctx, cfg, prom)
	if err != nil {
		log.Error("store open failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	log.Info("store ready", "driver", st.Driver)

	feedCache, readyChecks, closeCache := buildFeedCache(ctx, cfg, log)

	router := httpx.NewRouter(log, httpx.Deps{
		Config:      cfg,
		Store:       st,
		Tokens:      auth.NewManager(cfg.JWTSecret),
		Hasher:      security.NewPasswordHasher(cfg.BcryptCost),
		FeedCache:   feedCache,
		Prom:        prom,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadyChecks: readyChecks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	closeCache()
	st.Close(shutdownCtx)

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
}

// buildFeedCache prefers Redis when configured and falls back to process memory if it is unreachable.
func buildFeedCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Cache, map[string]func(context.Context) error, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.FeedCacheTTL), nil, func() {}
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unreachable, using in-memory feed cache", "addr", cfg.RedisAddr, "err", err)
		_ = rc.Close()
		return cache.NewMemory(cfg.FeedCacheTTL), nil, func() {}
	}

	log.Info("feed cache using redis", "addr", cfg.RedisAddr)
	checks := map[string]func(context.Context) error{"redis": rc.Ping}
	return cache.NewRedis(rc.Raw(), cfg.FeedCacheTTL), checks, func() { _ = rc.Close() }
}
