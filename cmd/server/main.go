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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/travel-catalog/internal/api"
	"github.com/neexbeast/travel-catalog/internal/config"
	"github.com/neexbeast/travel-catalog/internal/idempotency"
	"github.com/neexbeast/travel-catalog/internal/storage"
	"github.com/neexbeast/travel-catalog/internal/travel"
	"github.com/neexbeast/travel-catalog/migrations"
)

func main() {
	level := new(slog.LevelVar)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, level); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, level *slog.LevelVar) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Warn("unknown LOG_LEVEL, using info", "value", cfg.LogLevel)
		level.Set(slog.LevelInfo)
	}

	ctx := context.Background()

	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	applied, err := storage.RunMigrations(ctx, pool, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "count", applied)

	// Redis is optional; without it POST ignores Idempotency-Key.
	var (
		idem        api.IdempotencyStore
		redisPinger interface{ Ping(context.Context) error }
	)
	if cfg.RedisURL != "" {
		client, err := idempotency.Connect(ctx, cfg.RedisURL, cfg.RedisTimeout)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = client.Close() }()

		store := idempotency.NewStore(client, cfg.IdempotencyTTL)
		idem, redisPinger = store, store
	} else {
		log.Info("REDIS_URL not set, idempotent creation disabled")
	}

	repo := travel.NewRepository(storage.NewGateway(pool),
		travel.WithMode(cfg.Mode),
		travel.WithMatchMode(cfg.Match),
		travel.WithLogger(log),
	)
	log.Info("catalog repository ready", "mode", repo.Mode().String(), "match", cfg.Match.String())

	handlers := api.NewHandlers(repo, idem, log)
	router := api.NewRouter(handlers, &pgxPoolPinger{pool: pool}, redisPinger, api.RouterOptions{
		RateLimit:   cfg.RateLimit,
		CORSOrigins: cfg.CORSOrigins,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// pgxPoolPinger adapts pgxpool.Pool for the health check.
type pgxPoolPinger struct {
	pool *pgxpool.Pool
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
