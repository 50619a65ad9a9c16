package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/checkout"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/events"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/handler"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/middleware"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/payment"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/repository"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/router"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/routes"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/telemetry"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/worker"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize repository
	store := repository.NewStore(pool)

	// Initialize Prometheus metrics; HTTP and business metrics share one
	// registry so /metrics exposes both.
	metrics := middleware.NewMetrics("marquez")
	business := telemetry.NewBusinessMetrics(metrics.Registry())

	// Initialize services
	promotionService, err := service.NewPromotionService(store)
	if err != nil {
		return fmt.Errorf("failed to initialize promotion service: %w", err)
	}

	cartService, err := service.NewCartService(store, promotionService, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cart service: %w", err)
	}

	productService, err := service.NewProductService(store)
	if err != nil {
		return fmt.Errorf("failed to initialize product service: %w", err)
	}

	orderService, err := service.NewOrderService(store)
	if err != nil {
		return fmt.Errorf("failed to initialize order service: %w", err)
	}

	userService, err := service.NewUserService(store)
	if err != nil {
		return fmt.Errorf("failed to initialize user service: %w", err)
	}

	// Initialize payment provider
	var provider payment.Provider
	if cfg.Env == "prod" {
		provider, err = payment.NewStripeProvider(cfg.Payment.StripeSecretKey, cfg.Payment.Currency)
		if err != nil {
			return fmt.Errorf("failed to initialize payment provider: %w", err)
		}
		logger.Info("Stripe payment provider initialized", "currency", cfg.Payment.Currency)
	} else {
		provider = payment.NewMockProvider()
		logger.Warn("Using mock payment provider; payments auto-approve")
	}

	// Initialize event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Nats.URL != "" {
		natsPublisher, err := events.NewNatsPublisher(cfg.Nats.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("NATS publisher initialized", "url", cfg.Nats.URL)
	} else {
		logger.Info("NATS disabled; order events will not be published")
	}

	// Initialize checkout reference codec
	codec, err := checkout.NewCodec(cfg.Checkout.ReferenceSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize reference codec: %w", err)
	}

	// Initialize checkout service
	checkoutService, err := service.NewCheckoutService(
		store,
		cartService,
		provider,
		codec,
		publisher,
		business,
		logger,
		service.CheckoutURLs{
			CallbackBase: cfg.BaseURL,
			Orders:       cfg.Frontend.BaseURL + cfg.Frontend.OrdersPath,
			Failure:      cfg.Frontend.BaseURL + cfg.Frontend.FailurePath,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize checkout service: %w", err)
	}
	logger.Info("Checkout service initialized")

	// Start the promotion sweep worker
	sweeper := worker.New(promotionService, worker.Config{}, logger)
	go func() {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("promotion sweep worker stopped", "error", err)
		}
	}()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		metrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		defaultRateLimiter.Middleware,
		middleware.WithRequestLogger(logger),
		middleware.WithUserID,
	)

	routes.Register(r, routes.Deps{
		Cart:      handler.NewCartHandler(cartService, logger),
		Product:   handler.NewProductHandler(productService, logger),
		Promotion: handler.NewPromotionHandler(promotionService, logger),
		Order:     handler.NewOrderHandler(orderService, logger),
		Checkout:  handler.NewCheckoutHandler(checkoutService, orderService, logger),
		User:      handler.NewUserHandler(userService, logger),
		Health:    handler.Health(pool),
		Metrics:   metrics,
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr, "env", cfg.Env)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
