package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/devportal/user-registry/internal/api"
	"github.com/devportal/user-registry/internal/infrastructure/config"
	"github.com/devportal/user-registry/internal/infrastructure/db/postgres"
	"github.com/devportal/user-registry/internal/infrastructure/db/redis"
	"github.com/devportal/user-registry/internal/infrastructure/queue"
	"github.com/devportal/user-registry/internal/infrastructure/queue/rabbitmq"
	"github.com/devportal/user-registry/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// Postgres (runs pending migrations on connect).
	db, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer db.Close()
	log.Info().Msg("postgres connected, migrations applied")

	// Redis snapshot cache.
	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	// RabbitMQ broker and the event pipeline.
	broker, err := rabbitmq.Connect(cfg.Rabbit.URL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect rabbitmq")
	}
	defer broker.Close()

	publisher, err := rabbitmq.NewPublisher(broker)
	if err != nil {
		log.Fatal().Err(err).Msg("declare event topology")
	}

	// Workers run on a background context: the signal context drives the
	// shutdown sequence below, which drains the dispatcher only after the
	// server has stopped producing events.
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, publisher, log)
	dispatcher.Start(context.Background())

	e := api.NewRouter(db, rdb, broker, dispatcher, cfg.JWTSecret, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("user registry listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	// No request can enqueue anymore; publish what is still buffered.
	dispatcher.Stop()
	log.Info().Msg("event dispatcher drained")
}
