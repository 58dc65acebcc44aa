package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pricesync/internal/app"
	"github.com/angelmondragon/pricesync/internal/catalogevents"
	"github.com/angelmondragon/pricesync/pkg/config"
	"github.com/angelmondragon/pricesync/pkg/db"
	"github.com/angelmondragon/pricesync/pkg/instance"
	"github.com/angelmondragon/pricesync/pkg/logger"
	"github.com/angelmondragon/pricesync/pkg/pubsub"
	"github.com/angelmondragon/pricesync/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "catalog-events-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "catalog-events-worker"

	logg = logger.New(logger.Options{
		ServiceName: "catalog-events-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer redisClient.Close()
	}

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	services, err := app.NewServices(app.ServicesParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Registerer: prometheus.DefaultRegisterer,
	})
	requireResource(ctx, logg, "services", err)

	subscriber, err := pubsubClient.CatalogEventsSubscriber()
	requireResource(ctx, logg, "catalog events subscription", err)

	consumer, err := catalogevents.NewConsumer(services.Catalog, subscriber, logg)
	requireResource(ctx, logg, "catalog events consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithField(runCtx, "serviceKind", cfg.Service.Kind)
	logg.Info(runCtx, "catalog events worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "catalog events worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
