package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-co-op/gocron/v2"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"motorent/internal/app"
	"motorent/internal/config"
	"motorent/internal/gateway"
	"motorent/internal/handler"
	"motorent/internal/jobs"
	"motorent/internal/pricing"
	internalRedis "motorent/internal/redis"
	"motorent/internal/repository/postgres"
	"motorent/internal/service"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize New Relic")
			nrApp = nil
		} else {
			logger.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	producer, err := app.NewProducer(cfg.NSQ, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to nsqd")
	}
	if producer != nil {
		defer producer.Stop()
		logger.WithField("address", cfg.NSQ.Address).Info("connected to NSQ")
	}

	policy, err := buildPolicy(cfg)
	if err != nil {
		logger.WithError(err).Fatal("invalid pricing configuration")
	}

	// Wire dependencies.
	wired, err := wire(db, redisClient, producer, nrApp, policy, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to wire server")
	}

	wired.scheduler.Start()

	// Start server in goroutine.
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("starting server")
		if err := wired.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := wired.server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}

	if err := wired.scheduler.Shutdown(); err != nil {
		logger.WithError(err).Warn("scheduler shutdown failed")
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

type wiring struct {
	server    *http.Server
	scheduler gocron.Scheduler
}

func buildPolicy(cfg *config.Config) (service.Policy, error) {
	loc, err := cfg.Pricing.Location()
	if err != nil {
		return service.Policy{}, err
	}

	return service.Policy{
		Tax: pricing.TaxRates{
			Electric:    cfg.Pricing.GSTElectric,
			NonElectric: cfg.Pricing.GSTNonElectric,
		},
		MinBookingHours:       cfg.Pricing.MinBookingHours,
		MinCancellationCharge: cfg.Pricing.MinCancellationCharge,
		AdvancePaymentPercent: cfg.Pricing.AdvancePaymentPercent,
		CartItemStaleAfter:    cfg.Pricing.CartItemStaleAfter,
		Currency:              cfg.Gateway.Currency,
		Location:              loc,
	}, nil
}

// wire wires all dependencies and returns the HTTP server and job scheduler.
func wire(
	db *sql.DB,
	redisClient *redis.Client,
	producer *nsq.Producer,
	nrApp *newrelic.Application,
	policy service.Policy,
	cfg *config.Config,
	logger *logrus.Logger,
) (*wiring, error) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)

	// Initialize repositories.
	motorcycleRepo := postgres.NewMotorcycleRepository(db)
	motorcycles := internalRedis.NewMotorcycleCache(redisClient, motorcycleRepo)
	cartRepo := postgres.NewCartRepository(db)
	promoRepo := postgres.NewPromoCodeRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	txManager := postgres.NewTxManager(db)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:       cfg.Gateway.BaseURL,
		KeyID:         cfg.Gateway.KeyID,
		KeySecret:     cfg.Gateway.KeySecret,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Timeout:       cfg.Gateway.Timeout,
	})

	// A nil producer must reach the service as a nil interface.
	var publisher service.Publisher
	if producer != nil {
		publisher = producer
	}

	// Initialize services.
	notificationService := service.NewNotificationService(publisher, logger)
	inventoryService := service.NewInventoryService(logger)
	cartService := service.NewCartService(cartRepo, motorcycles, promoRepo, policy, logger)
	couponService := service.NewCouponService(promoRepo, cartRepo, cartService, logger)
	bookingService := service.NewBookingService(
		bookingRepo,
		txManager,
		cartService,
		inventoryService,
		notificationService,
		gatewayClient,
		lockStore,
		policy,
		logger,
	)

	// Initialize jobs.
	var events jobs.EventRecorder
	if nrApp != nil {
		events = nrApp
	}
	runner := jobs.NewRunner(cartRepo, bookingService, events, jobs.Config{
		CartPruneInterval:    cfg.Jobs.CartPruneInterval,
		CartItemStaleAfter:   cfg.Pricing.CartItemStaleAfter,
		PendingSweepInterval: cfg.Jobs.PendingSweepInterval,
		PendingStaleAfter:    cfg.Jobs.PendingStaleAfter,
	}, logger)

	scheduler, err := app.NewScheduler(runner, logger)
	if err != nil {
		return nil, err
	}

	// Create router.
	router, err := app.NewRouter(app.RouterDeps{
		CartHandler:    handler.NewCartHandler(cartService, couponService),
		CouponHandler:  handler.NewCouponHandler(couponService),
		BookingHandler: handler.NewBookingHandler(bookingService, cfg.Gateway.KeyID),
		PaymentHandler: handler.NewPaymentHandler(bookingService),
		JWTSecret:      []byte(cfg.JWT.Secret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		Logger:         logger,
	})
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}

	// Create HTTP server.
	return &wiring{
		server: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		scheduler: scheduler,
	}, nil
}
