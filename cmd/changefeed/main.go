package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-order-overlay/internal/changefeed"
	"github.com/ariefcatur/go-order-overlay/internal/config"
	"github.com/ariefcatur/go-order-overlay/internal/feed"
	kafkax "github.com/ariefcatur/go-order-overlay/internal/kafka"
	"github.com/ariefcatur/go-order-overlay/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout is the event stream, logs go to stderr
	logger := cfg.Logger(os.Stderr).With("component", "changefeed")

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	svc := &changefeed.Service{
		Dedup: &redisx.Dedup{RDB: rdb, Service: cfg.ChangefeedGroup},
		Out:   os.Stdout,
		Log:   logger,
	}

	// Consumer
	workers := mustAtoi(os.Getenv("CHANGEFEED_WORKERS"), "1")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ChangefeedGroup, feed.TopicOverlayChanges, workers, logger)

	logger.Info("changefeed consumer started", "group", cfg.ChangefeedGroup, "topic", feed.TopicOverlayChanges, "workers", workers)
	if err := cons.Start(ctx, svc.HandleChange); err != nil {
		logger.Error("consumer exit", "error", err)
		os.Exit(1)
	}
	logger.Info("changefeed consumer stopped")
}
