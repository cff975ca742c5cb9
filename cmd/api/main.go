package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ariefcatur/go-order-overlay/internal/auth"
	"github.com/ariefcatur/go-order-overlay/internal/catalog"
	"github.com/ariefcatur/go-order-overlay/internal/config"
	"github.com/ariefcatur/go-order-overlay/internal/feed"
	"github.com/ariefcatur/go-order-overlay/internal/httpx"
	"github.com/ariefcatur/go-order-overlay/internal/imaging"
	kafkax "github.com/ariefcatur/go-order-overlay/internal/kafka"
	"github.com/ariefcatur/go-order-overlay/internal/metrics"
	"github.com/ariefcatur/go-order-overlay/internal/mirror"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/overlay"
	"github.com/ariefcatur/go-order-overlay/internal/postgres"
	"github.com/ariefcatur/go-order-overlay/internal/redisx"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Local store
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("store backend %s: %v", cfg.StoreBackend, err)
	}
	defer closeBackend()
	store := overlay.NewStore(backend, cfg.StoreMaxBytes, logger, m)

	// Remote catalog
	client := catalog.NewClient(catalog.Config{
		BaseURL:      cfg.CatalogBaseURL,
		ReadTimeout:  cfg.CatalogReadTimeout,
		WriteTimeout: cfg.CatalogWriteTimeout,
	}, logger, m)
	var remote catalog.Source = client
	if cfg.CatalogFallback {
		remote = &catalog.Fallback{Source: client, Log: logger}
	}

	// Mirror worker
	mw := mirror.New(mirror.Config{
		Queue:   cfg.MirrorQueue,
		Rate:    cfg.MirrorRate,
		Burst:   cfg.MirrorBurst,
		Timeout: cfg.MirrorTimeout,
	}, logger, m)
	mw.Start(ctx)

	// Change feed (optional)
	var sink feed.Sink = feed.Nop{}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, feed.TopicOverlayChanges, 1024, logger)
		prod.Start(ctx)
		sink = &feed.KafkaSink{Producer: prod, Service: cfg.ServiceName, Log: logger}
	}

	images := imaging.New(cfg.ImageMaxDim, cfg.ImageQuality, cfg.ImageMaxBytes)
	images.MaxPixels = cfg.ImageMaxPixels
	book := orders.NewBook(orders.Deps{
		Remote: remote,
		Store:  store,
		Mirror: mw,
		Feed:   sink,
		Images: images,
		Log:    logger.With("component", "orders"),
	})
	dir := users.NewDirectory(users.Deps{
		Remote: remote,
		Store:  store,
		Mirror: mw,
		Feed:   sink,
		Log:    logger.With("component", "users"),
	})

	// warm up sekali di awal; /bootstrap bisa reload kapan saja
	loadCtx, cancelLoad := context.WithTimeout(ctx, 15*time.Second)
	if _, err := httpx.Bootstrap(loadCtx, book, dir); err != nil {
		logger.Warn("initial load incomplete", "error", err)
	}
	cancelLoad()

	router := httpx.API{
		Log:           logger,
		Metrics:       m,
		Gatherer:      reg,
		Gate:          auth.NewGate([]byte(cfg.AuthHashKey), false),
		Book:          book,
		Directory:     dir,
		MaxImageBytes: cfg.ImageMaxBytes,
		MaxBodyBytes:  cfg.StoreMaxBytes,
	}.Router()

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", "addr", cfg.HTTPAddr, "store", cfg.StoreBackend, "kafka", len(cfg.KafkaBrokers) > 0)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	mw.Close() // sisa antrian mirror tetap dikirim
	mw.Wait()
	if prod != nil {
		prod.Close()      // tutup inbox -> flush & close writer
		prod.WaitClosed() // drain
	}
	cancel()
}

// openBackend picks the overlay backend named by STORE_BACKEND.
func openBackend(ctx context.Context, cfg config.Config) (overlay.Backend, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return overlay.NewMemoryBackend(), func() {}, nil
	case "redis":
		rdb := redisx.New(cfg.RedisAddr)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return &redisx.OverlayBackend{RDB: rdb, Namespace: cfg.StoreNamespace}, func() { _ = rdb.Close() }, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		b := &postgres.OverlayBackend{DB: db, Namespace: cfg.StoreNamespace}
		if err := b.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return b, db.Close, nil
	}
	return nil, nil, errors.New("unknown backend, want memory|redis|postgres")
}
