package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/stylebazaar/stylebazaar-backend/api/controllers"
	"github.com/stylebazaar/stylebazaar-backend/api/routes"
	"github.com/stylebazaar/stylebazaar-backend/internal/cart"
	"github.com/stylebazaar/stylebazaar-backend/internal/checkout"
	"github.com/stylebazaar/stylebazaar-backend/internal/coupons"
	"github.com/stylebazaar/stylebazaar-backend/internal/delivery"
	"github.com/stylebazaar/stylebazaar-backend/internal/orders"
	"github.com/stylebazaar/stylebazaar-backend/internal/pricing"
	"github.com/stylebazaar/stylebazaar-backend/internal/products"
	"github.com/stylebazaar/stylebazaar-backend/pkg/config"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db"
	"github.com/stylebazaar/stylebazaar-backend/pkg/instance"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
	"github.com/stylebazaar/stylebazaar-backend/pkg/metrics"
	"github.com/stylebazaar/stylebazaar-backend/pkg/migrate"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox"
	"github.com/stylebazaar/stylebazaar-backend/pkg/redis"
)

const (
	serviceKind     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(cfg.Service.InstanceID, cfg.Service.Kind),
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	loc, err := cfg.Pricing.Location()
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	resolver := pricing.NewResolver(loc, nil)
	productRepo := products.NewRepository(dbClient.DB())
	couponRepo := coupons.NewRepository(dbClient.DB())
	deliveryRepo := delivery.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
	if err != nil {
		return err
	}
	productService, err := products.NewService(productRepo, resolver)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:    cartStore,
		Products: productRepo,
		Coupons:  couponRepo,
		Resolver: resolver,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:       dbClient,
		Carts:    cartStore,
		Products: productRepo,
		Coupons:  couponRepo,
		Delivery: deliveryRepo,
		Orders:   orderRepo,
		Outbox:   outboxService,
		Resolver: resolver,
		Metrics:  metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orderRepo,
		Tx:        dbClient,
		Outbox:    outboxService,
		Inventory: orders.NewInventoryReleaser(productRepo),
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Metrics:     promhttp.Handler(),
		Products:    productService,
		Delivery:    deliveryRepo,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      orderService,
	})

	addr := fmt.Sprintf(":%s", cfg.App.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", addr), "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
