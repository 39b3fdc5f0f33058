package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tair/replenishment/internal/order"
	orderrepo "github.com/tair/replenishment/internal/order/repository"
	"github.com/tair/replenishment/internal/order/usecase/command"
	"github.com/tair/replenishment/internal/replenishment"
	"github.com/tair/replenishment/internal/replenishment/cache"
	"github.com/tair/replenishment/internal/replenishment/repository"
	"github.com/tair/replenishment/kafka"
	"github.com/tair/replenishment/pkg/breaker"
	"github.com/tair/replenishment/pkg/config"
	"github.com/tair/replenishment/pkg/database"
	"github.com/tair/replenishment/pkg/email"
	"github.com/tair/replenishment/pkg/logger"
	"github.com/tair/replenishment/pkg/middleware"
	"github.com/tair/replenishment/pkg/tracing"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting replenishment service")

	// Initialize tracer
	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.ServiceName,
		JaegerEndpoint: cfg.JaegerURL,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := repository.NewGormRepository(db).AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to migrate replenishment tables")
	}
	if err := orderrepo.NewGormOrderRepository(db).AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to migrate order tables")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Suggestion cache; without REDIS_ADDR every request evaluates afresh
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, cache calls will miss")
		}
	}
	suggestionCache := replenishment.ProvideSuggestionCache(redisClient, cfg)

	// Order events; without KAFKA_BROKERS nothing is published
	var publisher command.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to create Kafka publisher, order events disabled")
		} else {
			defer kafkaPublisher.Close()
			publisher = kafkaPublisher

			if consumer, err := startCacheInvalidation(ctx, cfg, suggestionCache); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to start Kafka consumer")
			} else {
				defer consumer.Close()
			}
		}
	}

	// Notification gateway behind a circuit breaker
	emailService := email.NewService(email.Config{
		APIKey:      cfg.Email.APIKey,
		FromAddress: cfg.Email.FromAddress,
		Endpoint:    cfg.Email.Endpoint,
		Timeout:     cfg.Email.Timeout,
	})
	if !emailService.IsConfigured() {
		logger.Logger.Warn().Msg("Email service not configured, sending orders will fail")
	}
	gateway := email.NewGuardedGateway(emailService, breaker.New("email-gateway", cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout))

	// Initialize handlers with Wire DI
	orderRepo := order.ProvideOrderRepository(db)
	replenishmentHandler, err := replenishment.InitializeHTTPHandler(
		db, redisClient, orderRepo, cfg,
		middleware.NewMetrics("replenishment_service", prometheus.DefaultRegisterer),
	)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize replenishment handler")
	}
	orderHandler, err := order.InitializeHTTPHandler(
		orderRepo, replenishment.ProvideStore(db), gateway, publisher, cfg,
		middleware.NewMetrics("order_service", prometheus.DefaultRegisterer),
	)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize order handler")
	}

	// Setup router
	router := mux.NewRouter()
	middlewareConfig := middleware.DefaultConfig("replenishment-http-request")
	middleware.Register(router, middlewareConfig)
	if cfg.RateLimit > 0 {
		router.Use(middleware.NewRateLimiter(redisClient, cfg.RateLimit, time.Minute).Middleware())
	}

	replenishmentHandler.RegisterRoutes(router)
	replenishmentHandler.RegisterHealthCheck(router, sqlDB)
	orderHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           middleware.CORS(middlewareConfig, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
}

// startCacheInvalidation drops cached suggestions whenever any instance changes an order
func startCacheInvalidation(ctx context.Context, cfg *config.Config, suggestionCache *cache.SuggestionCache) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{kafka.TopicOrderEvents})
	if err != nil {
		return nil, err
	}

	consumer.RegisterHandler(func(ctx context.Context, event kafka.OrderEvent) error {
		logger.Debug(ctx).
			Str("event_type", event.EventType).
			Uint("order_id", event.OrderID).
			Msg("Invalidating suggestion cache")
		return suggestionCache.Invalidate(ctx)
	},
		kafka.EventTypeOrderSent,
		kafka.EventTypeOrderUpdated,
		kafka.EventTypeOrderCompleted,
		kafka.EventTypeOrderDeleted,
	)

	if err := consumer.Start(ctx); err != nil {
		consumer.Close()
		return nil, err
	}
	return consumer, nil
}
