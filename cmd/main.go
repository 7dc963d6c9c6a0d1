package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/coupon"
	"github.com/fjod/go_cart/storefront/internal/gateway"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/reviews"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (defaults to storefront.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	healthChecks := map[string]func(context.Context) error{}

	gw := gateway.NewClient(gateway.Config{
		BaseURL:      cfg.GatewayBaseURL,
		Timeout:      cfg.GatewayTimeout,
		MaxFailures:  cfg.BreakerFailures,
		BreakerReset: cfg.BreakerReset,
		OnBreakerState: func(name, from, to string) {
			zl.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from), zap.String("to", to))
		},
	})
	healthChecks["gateway_breaker"] = func(context.Context) error {
		if state := gw.BreakerState(); state == "open" {
			return fmt.Errorf("breaker is %s", state)
		}
		return nil
	}

	store, closeStore, err := newSessionStore(cfg, healthChecks)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher checkout.Publisher = checkout.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := checkout.NewKafkaPublisher(cfg.CheckoutTopic, cfg.KafkaBrokers...)
		defer kp.Close()
		publisher = kp
		zl.Info("publishing checkout events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.CheckoutTopic))
	}

	router := h.NewRouter(h.Services{
		Store:       store,
		Auth:        gw,
		Catalog:     catalog.NewService(gw, cfg.CatalogCacheTTL),
		Coupons:     coupon.NewService(gw),
		CouponAdmin: coupon.NewAdmin(gw),
		Checkout:    checkout.NewOrchestrator(gw, publisher, cfg.CheckoutMode),
		Orders:      orders.NewService(gw),
		Reviews:     reviews.NewService(gw),
	}, h.RouterConfig{
		RequestTimeout:  cfg.RequestTimeout,
		CheckoutTimeout: cfg.CheckoutTimeout,
		SessionTTL:      cfg.SessionTTL,
		Logger:          zl,
		HealthChecks:    healthChecks,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.CheckoutTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("storefront starting",
			zap.String("addr", srv.Addr),
			zap.String("gateway", cfg.GatewayBaseURL),
			zap.String("session_store", cfg.SessionStore),
			zap.String("checkout_mode", string(cfg.CheckoutMode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	zl.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	zl.Info("server exited")
	return nil
}

// newSessionStore returns the configured store and a func that releases it with its connections.
func newSessionStore(cfg *config.Config, healthChecks map[string]func(context.Context) error) (session.Store, func(), error) {
	if cfg.SessionStore != config.SessionStoreRedis {
		store := session.NewMemoryStore(cfg.SessionTTL)
		return store, func() { _ = store.Close() }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	healthChecks["redis"] = func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
	store := session.NewRedisStore(rdb, cfg.SessionTTL)
	return store, func() {
		_ = store.Close()
		_ = rdb.Close()
	}, nil
}
