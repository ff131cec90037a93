package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tabpulse/backend/internal/api"
	"github.com/tabpulse/backend/internal/config"
	"github.com/tabpulse/backend/internal/frontend"
	"github.com/tabpulse/backend/internal/mock"
	"github.com/tabpulse/backend/internal/ops"
	"github.com/tabpulse/backend/internal/presence"
	"github.com/tabpulse/backend/internal/stream"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	mockMode := flag.Bool("mock", false, "Generate synthetic presence traffic")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	var store presence.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		store = presence.NewRedisStore(rdb)
		log.Info("using redis presence store", "addr", cfg.Redis.Addr)
	} else {
		store = presence.NewMemoryStore()
		log.Warn("no redis configured, using in-process store; counts are per-instance only")
	}

	recorder := presence.NewRecorder(store, cfg.Presence.TTL, cfg.Presence.StoreTimeout, log)
	aggregator := presence.NewAggregator(store, cfg.Presence.StoreTimeout)
	publisher := stream.New(aggregator, cfg.Presence.Cadence, log)

	collector, err := ops.NewCollector()
	if err != nil {
		log.Warn("process status collector unavailable", "error", err)
	}

	server := api.NewServer(api.Options{
		Recorder:       recorder,
		Store:          store,
		Publisher:      publisher,
		Status:         collector,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ProbeTimeout:   cfg.Presence.StoreTimeout,
		Frontend:       frontend.Handler(),
		Log:            log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *mockMode {
		mock.NewGenerator(recorder, log).Start(ctx)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: server.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", httpServer.Addr,
			"ttl", cfg.Presence.TTL, "cadence", cfg.Presence.Cadence)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", "error", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
