package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/pwstrength/pwstrength/internal/api"
	"github.com/pwstrength/pwstrength/internal/auth"
	"github.com/pwstrength/pwstrength/internal/config"
	"github.com/pwstrength/pwstrength/internal/metrics"
	"github.com/pwstrength/pwstrength/internal/store"
	"github.com/pwstrength/pwstrength/internal/ws"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("pwstrength-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"history_backend", cfg.Server.History.Backend,
		"history_ttl", cfg.Server.History.TTL,
		"log_level", cfg.Log.Level,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	history, closeHistory, err := openHistory(ctx, cfg.Server.History)
	if err != nil {
		slog.Error("failed to open history backend", "backend", cfg.Server.History.Backend, "err", err)
		os.Exit(1)
	}
	defer closeHistory()
	go history.Run(ctx)

	reg := metrics.New()
	apiHandler := api.New(history, reg, cfg.Bench)

	// Hot reload covers the log level and benchmark defaults. Port, auth and
	// history backend changes need a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			level.Set(updated.Log.SlogLevel())
			apiHandler.SetBenchConfig(updated.Bench)
			slog.Info("config hot-reloaded",
				"log_level", updated.Log.Level,
				"max_iterations", updated.Bench.MaxIterations,
			)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	hub := ws.New(history, cfg.Server.BroadcastInterval)
	go hub.Run(ctx)

	requireKey := auth.APIKey(cfg.Server.Auth.Mode, cfg.Server.Auth.Header, cfg.Server.Auth.Key())

	mux := http.NewServeMux()
	mux.Handle("/api/", requireKey(apiHandler))
	mux.Handle("/api/v1/health", apiHandler) // open for liveness probes
	mux.Handle("/ws/stream", requireKey(hub))
	mux.Handle("/metrics", reg)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("pwstrength-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "err", err)
	}
}

// openHistory builds the configured history backend. The returned func
// releases its resources.
func openHistory(ctx context.Context, hc config.HistoryConfig) (store.History, func(), error) {
	switch hc.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     hc.Redis.Addr,
			Password: hc.Redis.Password(),
			DB:       hc.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close() //nolint:errcheck
			return nil, nil, fmt.Errorf("redis ping %s: %w", hc.Redis.Addr, err)
		}
		slog.Info("history: using redis", "addr", hc.Redis.Addr, "db", hc.Redis.DB)
		return store.NewRedis(client, hc.Redis.KeyPrefix, hc.TTL), func() { client.Close() }, nil //nolint:errcheck
	default:
		return store.New(hc.TTL), func() {}, nil
	}
}
