package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/brrock/gamex/internal/api"
	"github.com/brrock/gamex/internal/processor"
	"github.com/brrock/gamex/pkg/config"
	"github.com/brrock/gamex/pkg/logger"
	"github.com/brrock/gamex/pkg/queue"
	"github.com/brrock/gamex/pkg/server"
	"github.com/brrock/gamex/pkg/store"
)

func main() {
	// 1. Load config
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("player data service initializing", zap.String("env", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize PostgreSQL
	pgStore, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		URI:      cfg.Postgres.URI,
		MinConns: int32(cfg.Postgres.MinConns),
		MaxConns: int32(cfg.Postgres.MaxConns),
	}, l)
	if err != nil {
		l.Error("failed to connect to postgres", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	// 4. Initialize the ingestion queue
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		l.Error("failed to parse redis url", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		l.Error("failed to ping redis", err)
		os.Exit(1)
	}
	ingestQueue := queue.NewRedisQueue(redisClient, cfg.Queue.Key, l)
	defer ingestQueue.Close()

	// 5. Create the API service
	apiService := api.NewService(l, pgStore, ingestQueue, api.Config{
		MaxTimestampAge: cfg.Auth.MaxTimestampAge,
	})
	apiServer := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: apiService.Routes(),
	}

	// 6. Create the batch processor
	proc := processor.NewService(l, ingestQueue, pgStore, processor.Config{
		BatchSize: cfg.Processor.BatchSize,
		Interval:  cfg.Processor.Interval,
	})

	// 7. Start observability server
	obsServer := server.New(cfg.Observability.Addr, l,
		func(ctx context.Context) error { return pgStore.Ping(ctx) },
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)
	go func() {
		if err := obsServer.Start(); err != nil {
			l.Error("observability server failed", err)
		}
	}()

	// 8. Start the processor loop
	procDone := make(chan struct{})
	go func() {
		defer close(procDone)
		if err := proc.Start(ctx); err != nil && err != context.Canceled {
			l.Error("batch processor failed", err)
		}
	}()

	// 9. Start the API server
	go func() {
		l.Info("api server starting", zap.String("addr", cfg.API.Addr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("api server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		l.Error("api server shutdown failed", err)
	}
	<-procDone
	obsServer.Shutdown(shutdownCtx)
}
