package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dogwalk/internal/app"
	"dogwalk/internal/broker/kafka"
	"dogwalk/internal/config"
	"dogwalk/internal/handler"
	"dogwalk/internal/logging"
	"dogwalk/internal/payments"
	"dogwalk/internal/realtime"
	internalRedis "dogwalk/internal/redis"
	"dogwalk/internal/service"
	"dogwalk/internal/session"
	"dogwalk/internal/walk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic goes first so the database driver and Redis hook can use it.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", slog.String("error", err.Error()))
		} else {
			logger.Info("New Relic enabled", slog.String("app", cfg.NewRelic.AppName))
		}
	}

	var storage *app.Storage
	switch cfg.Storage.Driver {
	case "memory":
		storage = app.NewMemoryStorage()
		logger.Info("using in-memory storage")
	default:
		db, err := app.NewDatabase(ctx, cfg.Database, nrApp, cfg.Storage.Migrate)
		if err != nil {
			fatal(logger, "failed to connect to database", err)
		}
		defer db.Close()
		storage = app.NewPostgresStorage(db)
		logger.Info("connected to PostgreSQL", slog.String("host", cfg.Database.Host))
	}

	// Redis is optional only when both storage and realtime run in memory.
	var redisClient *redis.Client
	if cfg.Storage.Driver != "memory" || cfg.Realtime.Driver != "memory" {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			fatal(logger, "failed to connect to redis", err)
		}
		defer redisClient.Close()
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr))
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled() {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		logger.Info("publishing walk events", slog.String("topic", cfg.Kafka.WalkEventsTopic))
	}

	server, registry := wireServer(cfg, storage, redisClient, producer, nrApp, logger)
	defer registry.Close()

	go func() {
		logger.Info("starting server", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// walker controller registry, which must be closed on shutdown.
func wireServer(
	cfg *config.Config,
	storage *app.Storage,
	redisClient *redis.Client,
	producer *kafka.Producer,
	nrApp *newrelic.Application,
	logger *slog.Logger,
) (*http.Server, *walk.Registry) {
	var (
		feed      realtime.Feed = realtime.NewHub(realtime.DefaultBuffer)
		locker    service.BookingLocker = service.NewLocalLocker()
		positions service.PositionCache
		cache     internalRedis.CacheStoreInterface
		idem      redis.Cmdable
	)
	if redisClient != nil {
		locker = internalRedis.NewLockStore(redisClient)
		positions = internalRedis.NewPositionStore(redisClient)
		cache = internalRedis.NewCacheStore(redisClient)
		idem = redisClient
		if cfg.Realtime.Driver != "memory" {
			feed = internalRedis.NewPubSubFeed(redisClient, logger)
		}
	}

	var events service.EventSink = service.NewInlineEventSink(service.NewNotificationService(logger))
	if producer != nil {
		events = kafka.NewWalkEventPublisher(producer, cfg.Kafka.WalkEventsTopic)
	}

	var psp service.PSP = service.NewMockPSP()
	if cfg.Payments.PSP == "stripe" {
		psp = payments.NewStripePSP(cfg.Payments.StripeAPIKey, cfg.Payments.Currency)
	}

	// Services.
	paymentService := service.NewPaymentService(psp)
	walkerService := service.NewWalkerService(storage.Walkers, storage.Transactions, cache, logger)
	ownerService := service.NewOwnerService(storage.Owners)
	bookingService := service.NewBookingService(storage.Transactor, storage.Bookings, storage.Owners, storage.Locations, paymentService, feed, events, logger)
	bookingService.UseWalkerCache(walkerService)
	walkService := service.NewWalkService(storage.Transactor, storage.Bookings, storage.Walkers, locker, positions, walkerService, paymentService, feed, events, logger)
	trackingService := service.NewTrackingService(storage.Bookings, storage.Locations, positions, feed, events, logger)
	messageService := service.NewMessageService(storage.Conversations, storage.Owners, storage.Walkers, feed, logger)

	registry := walk.NewRegistry(walk.Deps{
		Backend:  walkService,
		Fixes:    trackingService,
		Presence: walkerService,
		Logger:   logger,
	})

	// Handlers.
	liveHandler := handler.NewLiveHandler(session.Deps{
		Bookings:  bookingService,
		Walkers:   walkerService,
		Positions: trackingService,
		Feed:      feed,
		Logger:    logger,
	}, registry, logger)

	router := app.NewRouter(app.RouterDeps{
		OwnerHandler:   handler.NewOwnerHandler(ownerService, bookingService),
		WalkerHandler:  handler.NewWalkerHandler(walkerService, registry),
		BookingHandler: handler.NewBookingHandler(bookingService, trackingService),
		LiveHandler:    liveHandler,
		MessageHandler: handler.NewMessageHandler(messageService, logger),
		AdminHandler:   handler.NewAdminHandler(walkerService),
		RedisClient:    idem,
		NewRelicApp:    nrApp,
		Logger:         logger,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, registry
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
