package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-console/internal/api"
	"github.com/wms-platform/fulfillment-console/internal/application"
	"github.com/wms-platform/fulfillment-console/internal/config"
	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/internal/infrastructure/cache"
	"github.com/wms-platform/fulfillment-console/internal/infrastructure/clients"
	consolekafka "github.com/wms-platform/fulfillment-console/internal/infrastructure/kafka"
	mongoRepo "github.com/wms-platform/fulfillment-console/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-console/pkg/contracts/asyncapi"
	"github.com/wms-platform/fulfillment-console/pkg/contracts/openapi"
	"github.com/wms-platform/fulfillment-console/pkg/kafka"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/metrics"
	"github.com/wms-platform/fulfillment-console/pkg/middleware"
	"github.com/wms-platform/fulfillment-console/pkg/mongodb"
	"github.com/wms-platform/fulfillment-console/pkg/tracing"
)

func main() {
	// Setup logger
	logger := logging.New(logging.DefaultConfig(config.ServiceName))
	logger.SetDefault()

	logger.Info("Starting fulfillment-console API")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry tracing
	tracerProvider, err := tracing.Initialize(ctx, cfg.Tracing)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", cfg.Tracing.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(config.ServiceName))

	// WMS API client
	wmsClient := clients.NewWMSClient(cfg.WMS, logger, m)
	logger.Info("WMS API client initialized", "baseUrl", cfg.WMS.BaseURL)

	var readiness []func(context.Context) error

	// Query cache store
	var store cache.Store
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		redisStore, err := cache.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Redis")
			os.Exit(1)
		}
		defer redisStore.Close()
		readiness = append(readiness, redisStore.Ping)
		store = redisStore
		logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)
	default:
		store = cache.NewMemoryStore()
	}
	queryCache := cache.NewQueryCache(store, cfg.Cache, logger, m)

	gatewayOpts := []application.GatewayOption{application.WithMetrics(m)}

	// Action log
	var actionLog domain.ActionLog
	if cfg.ActionLogEnabled {
		mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to MongoDB")
			os.Exit(1)
		}
		defer mongoClient.Close(context.Background())
		readiness = append(readiness, mongoClient.HealthCheck)

		actionLog = mongoRepo.NewActionRepository(mongoClient.Database(), cfg.ActionLogRetention, logger, m)
		gatewayOpts = append(gatewayOpts, application.WithActionLog(actionLog))
		logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)
	}

	// Kafka: action events out, invalidation events in
	if cfg.EventsEnabled {
		validator, err := asyncapi.NewConsoleActionValidator()
		if err != nil {
			logger.WithError(err).Error("Failed to load event contracts")
			os.Exit(1)
		}

		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		publisher := consolekafka.NewActionPublisher(producer, validator, logger, m)
		gatewayOpts = append(gatewayOpts, application.WithEventPublisher(publisher))

		consumer := kafka.NewConsumer(cfg.Kafka, logger.Logger)
		consolekafka.NewInvalidationHandler(queryCache, logger, m).Register(consumer)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("Kafka consumer stopped")
			}
		}()
		defer consumer.Close()
		logger.Info("Kafka initialized", "brokers", cfg.Kafka.Brokers)
	}

	// Application services
	queryService := application.NewQueryService(wmsClient, wmsClient, queryCache, actionLog, logger)
	actionGateway := application.NewActionGateway(wmsClient, wmsClient, queryService, queryCache, logger, gatewayOpts...)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(config.ServiceName, logger.Logger)
	middlewareConfig.AllowOrigins = cfg.AllowOrigins
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(config.ServiceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(config.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(config.ServiceName, func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, check := range readiness {
			if err := check(checkCtx); err != nil {
				return err
			}
		}
		return nil
	}))

	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// WMS circuit breaker state; not part of readiness
	router.GET("/upstream", func(c *gin.Context) {
		c.JSON(http.StatusOK, wmsClient.Breaker().Status())
	})

	router.GET("/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", openapi.ConsoleSpec())
	})

	api.NewHandler(queryService, actionGateway, logger).RegisterRoutes(router.Group("/api/v1"))

	// Start server
	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.WMS.Timeout + 10*time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
			stop()
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}
