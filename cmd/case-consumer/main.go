package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/famcase/caseview/cmd/case-consumer/consumer"
	"github.com/famcase/caseview/common/bootstrap"
	"github.com/famcase/caseview/common/broker"
	"github.com/famcase/caseview/common/db"
	rediscommon "github.com/famcase/caseview/common/redis"
	"github.com/famcase/caseview/common/repository"
	"github.com/famcase/caseview/common/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Bootstrap common components (config, logger, DB, telemetry)
	components, err := bootstrap.Setup(ctx, "case-consumer",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return database.ApplySchema(ctx)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap case-consumer: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(context.Background())

	cfg := components.Config
	log := components.Logger

	// Redis streams broker, one consumer name per process instance
	redisRaw := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisClient := rediscommon.NewClient(redisRaw, log)

	eventBroker := broker.NewRedisBroker(
		redisClient,
		cfg.Broker.StreamPrefix,
		cfg.Broker.Partitions,
		cfg.Consumer.Group,
		cfg.Consumer.BlockTimeout,
	)
	if err := eventBroker.EnsureGroups(ctx); err != nil {
		log.Error("failed to create consumer groups", "error", err)
		os.Exit(1)
	}

	// Store access
	submissionRepo := repository.NewSubmissionRepository(components.DB)
	custodyRepo := repository.NewCustodyRepository(components.DB)
	offsetRepo := repository.NewOffsetRepository(components.DB)

	applier := consumer.NewPGApplier(components.DB, submissionRepo, custodyRepo, offsetRepo, log)

	validator, err := consumer.NewPayloadValidator()
	if err != nil {
		log.Error("failed to compile payload rules", "error", err)
		os.Exit(1)
	}

	workers := consumer.New(
		eventBroker,
		applier,
		offsetRepo,
		validator,
		consumer.Backoff{Interval: cfg.Consumer.RetryBackoff},
		cfg.Consumer.BlockTimeout,
		log,
	)

	// Ops listener: health only, the event loop has no HTTP surface
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/health", server.HealthHandler(components.Health))
		opsServer := server.New("case-consumer ops", cfg.Service.Port, mux, log)
		if err := opsServer.Start(ctx); err != nil {
			log.Error("ops server error", "error", err)
		}
	}()

	log.Info("starting event consumption",
		"partitions", cfg.Broker.Partitions,
		"group", cfg.Consumer.Group,
	)

	workers.Start(ctx)
	log.Info("all partition consumers stopped")
}
