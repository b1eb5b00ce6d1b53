package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/caffeinepub/ocarina-store-clone/internal/authz"
	"github.com/caffeinepub/ocarina-store-clone/internal/backend"
	"github.com/caffeinepub/ocarina-store-clone/internal/cart"
	"github.com/caffeinepub/ocarina-store-clone/internal/checkout"
	"github.com/caffeinepub/ocarina-store-clone/internal/events"
	h "github.com/caffeinepub/ocarina-store-clone/internal/http"
	"github.com/caffeinepub/ocarina-store-clone/internal/logger"
)

type Config struct {
	HTTPPort        string
	BackendBaseURL  string
	PublicBaseURL   string
	RedisAddr       string // empty = in-memory cart store
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	BackendTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	var brokers []string
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		brokers = strings.Split(v, ",")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendBaseURL:  getEnv("BACKEND_BASE_URL", "http://localhost:9090"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		KafkaBrokers:    brokers,
		RequestTimeout:  30 * time.Second,
		BackendTimeout:  10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger.Init("storefront")
	cfg := loadConfig()

	// Cart storage: Redis when configured so carts survive restarts for the
	// session's lifetime, otherwise in-memory.
	var store cart.Store
	if cfg.RedisAddr != "" {
		store = cart.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		slog.Info("using redis cart store", "addr", cfg.RedisAddr)
	} else {
		store = cart.NewMemoryStore()
		slog.Info("using in-memory cart store")
	}
	carts := cart.NewService(store)

	client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		slog.Info("publishing order events to kafka", "brokers", cfg.KafkaBrokers)
	} else {
		publisher = events.NopPublisher{}
	}

	initiator := checkout.NewInitiator(carts, client)
	reconciler := checkout.NewReconciler(carts, client, publisher)
	gate := authz.NewGate(client)

	router := h.NewRouter(h.Handlers{
		Products: h.NewProductHandler(client, cfg.BackendTimeout),
		Cart:     h.NewCartHandler(carts, client, cfg.BackendTimeout),
		Checkout: h.NewCheckoutHandler(initiator, carts, cfg.PublicBaseURL, cfg.RequestTimeout),
		Payment:  h.NewPaymentHandler(reconciler, cfg.RequestTimeout),
		Me:       h.NewMeHandler(gate, client, cfg.BackendTimeout),
		Gate:     gate,
	}, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("storefront starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	slog.Info("server exited")
}
