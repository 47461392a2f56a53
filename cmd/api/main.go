package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukaanhq/dukaan-backend/api/routes"
	"github.com/dukaanhq/dukaan-backend/internal/billing"
	"github.com/dukaanhq/dukaan-backend/internal/customers"
	"github.com/dukaanhq/dukaan-backend/internal/invoices"
	"github.com/dukaanhq/dukaan-backend/internal/notifications"
	"github.com/dukaanhq/dukaan-backend/internal/products"
	"github.com/dukaanhq/dukaan-backend/internal/shop"
	"github.com/dukaanhq/dukaan-backend/pkg/config"
	"github.com/dukaanhq/dukaan-backend/pkg/db"
	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	"github.com/dukaanhq/dukaan-backend/pkg/logger"
	"github.com/dukaanhq/dukaan-backend/pkg/metrics"
	"github.com/dukaanhq/dukaan-backend/pkg/migrate"
	"github.com/dukaanhq/dukaan-backend/pkg/redis"
)

const sessionSweepInterval = 5 * time.Minute

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	shopService, err := shop.NewService(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create shop service", err)
		os.Exit(1)
	}
	if err := shopService.Seed(context.Background(), cfg.Shop); err != nil {
		logg.Error(context.Background(), "failed to seed shop profile", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	productService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	customersRepo := customers.NewRepository(dbClient.DB())
	customerService, err := customers.NewService(customersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	invoiceService, err := invoices.NewService(
		invoices.NewRepository(dbClient.DB()),
		dbClient,
		productsRepo,
		shopService,
		notificationService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	defaultMethod, err := enums.ParsePaymentMethod(cfg.Billing.DefaultPaymentMethod)
	if err != nil {
		logg.Error(context.Background(), "invalid default payment method", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(promRegistry)

	registry := billing.NewRegistry(cfg.Billing.SessionTTL)
	billingService, err := billing.NewService(
		registry,
		productsRepo,
		customersRepo,
		shopService,
		invoiceService,
		billingMetrics,
		defaultMethod,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	go sweepSessions(context.Background(), logg, registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			billingService,
			productService,
			customerService,
			invoiceService,
			notificationService,
			shopService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func sweepSessions(ctx context.Context, logg *logger.Logger, registry *billing.Registry) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		if evicted := registry.Sweep(); evicted > 0 {
			logg.Info(logg.WithField(ctx, "evicted", evicted), "billing sessions evicted")
		}
	}
}
