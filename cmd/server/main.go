package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/N4thh/homi-nah/internal/gateway"
	"github.com/N4thh/homi-nah/internal/handler"
	"github.com/N4thh/homi-nah/internal/metrics"
	"github.com/N4thh/homi-nah/internal/middleware"
	"github.com/N4thh/homi-nah/internal/notifier"
	"github.com/N4thh/homi-nah/internal/repository"
	"github.com/N4thh/homi-nah/internal/service"
	"github.com/N4thh/homi-nah/internal/worker"
	"github.com/N4thh/homi-nah/pkg/config"
	"github.com/N4thh/homi-nah/pkg/database"
	"github.com/N4thh/homi-nah/pkg/logger"
	pkgmiddleware "github.com/N4thh/homi-nah/pkg/middleware"
	pkgredis "github.com/N4thh/homi-nah/pkg/redis"
	"github.com/N4thh/homi-nah/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.Environment,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Homi Payment Service...")

	ctx := context.Background()

	// Initialize OpenTelemetry
	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if err := telemetry.Init(ctx, telemetryCfg); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	} else if telemetryCfg.Enabled {
		appLog.Info(fmt.Sprintf("Telemetry initialized (collector: %s)", telemetryCfg.CollectorAddr))
	}
	defer telemetry.Shutdown(ctx)

	// Metric exporter must be up before the instruments are created
	if err := telemetry.InitMetrics(ctx, telemetryCfg); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to initialize metric exporter: %v", err))
	}
	defer telemetry.ShutdownMetrics(ctx)

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to register payment metrics: %v", err))
	}

	// Initialize database connection
	var db *database.PostgresDB
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err = database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Database connection failed: %v", err))
		db = nil
	} else {
		defer db.Close()
		appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))
	}

	// Initialize Redis connection (rate limiting and idempotency degrade without it)
	var redisClient *pkgredis.Client
	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
	}
	redisClient, err = pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed: %v", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info(fmt.Sprintf("Redis connected (%s)", redisCfg.Addr()))
	}

	// Initialize Kafka payment notifier
	var events notifier.Notifier
	notifierCfg := &notifier.KafkaNotifierConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.PaymentTopic,
		ServiceName: cfg.App.Name,
		ClientID:    cfg.Kafka.ClientID,
	}
	events, err = notifier.NewKafkaNotifier(ctx, notifierCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op notifier: %v", err))
		events = notifier.NewNoOpNotifier()
	} else {
		appLog.Info(fmt.Sprintf("Kafka payment notifier connected (topic: %s)", notifierCfg.Topic))
	}
	defer events.Close()

	// Initialize repositories
	var paymentRepo repository.PaymentRepository
	var bookingRepo repository.BookingRepository
	var configRepo repository.PaymentConfigRepository
	if db != nil {
		paymentRepo = repository.NewPostgresPaymentRepository(db)
		bookingRepo = repository.NewPostgresBookingRepository(db)
		configRepo = repository.NewPostgresPaymentConfigRepository(db)
		appLog.Info("Using PostgreSQL repositories")
	} else {
		paymentRepo = repository.NewMemoryPaymentRepository()
		bookingRepo = repository.NewMemoryBookingRepository()
		configRepo = repository.NewMemoryPaymentConfigRepository()
		appLog.Warn("Using in-memory repositories (data will not persist)")
	}

	// Initialize payment gateway factory
	gatewayFactory, err := gateway.NewFactory(cfg.Gateway.Provider, &gateway.Config{
		BaseURL:        cfg.Gateway.BaseURL,
		RequestTimeout: cfg.Gateway.RequestTimeout,
		MaxRetries:     cfg.Gateway.MaxRetries,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to create payment gateway factory: %v", err))
	}
	appLog.Info(fmt.Sprintf("Using %s payment gateway", cfg.Gateway.Provider))

	// Wire services
	resolver := service.NewCredentialResolver(configRepo, cfg.Payment.CredentialCacheTTL)
	validator := service.NewPaymentValidator(bookingRepo, paymentRepo)
	paymentService := service.NewPaymentService(paymentRepo, bookingRepo, validator, resolver, gatewayFactory, events, &service.PaymentServiceConfig{
		ExpiresIn: cfg.Payment.ExpiryDuration,
		ReturnURL: cfg.Gateway.ReturnURLBase,
		CancelURL: cfg.Gateway.CancelURLBase,
	})
	configService := service.NewConfigService(configRepo, paymentRepo, resolver)

	// Handlers
	paymentHandler := handler.NewPaymentHandler(paymentService)
	webhookHandler := handler.NewWebhookHandler(paymentService, resolver, gatewayFactory)
	configHandler := handler.NewConfigHandler(configService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add OpenTelemetry tracing middleware if enabled
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName, "/health", "/health/ready"))
	}

	// Health check endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)

	// Stacked fixed-window rate limiter; authenticated callers are counted
	// per user, the webhook per gateway IP
	var rateLimiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limiterCfg := middleware.RateLimiterConfig{
			Tiers: []middleware.RateLimitTier{
				{Name: "10s", Limit: cfg.RateLimit.Burst10s, Window: 10 * time.Second},
				{Name: "1m", Limit: cfg.RateLimit.PerMinute, Window: time.Minute},
				{Name: "1h", Limit: cfg.RateLimit.PerHour, Window: time.Hour},
			},
		}
		if cfg.RateLimit.UseRedis && redisClient != nil {
			limiterCfg.RedisClient = redisClient
		}
		rateLimiter = middleware.RateLimiter(limiterCfg)
	}

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Gateway webhook: unauthenticated, signature-verified in the handler
		webhooks := v1.Group("/webhooks")
		if rateLimiter != nil {
			webhooks.Use(rateLimiter)
		}
		webhooks.POST("/gateway", webhookHandler.HandleGatewayWebhook)

		// Payment routes require a JWT identity
		authed := v1.Group("")
		authed.Use(middleware.Auth(cfg.JWT.Secret))
		if rateLimiter != nil {
			authed.Use(rateLimiter)
		}

		payments := authed.Group("/payments")
		{
			// Creation accepts an optional X-Idempotency-Key when Redis is up
			if redisClient != nil {
				idemCfg := pkgmiddleware.DefaultIdempotencyConfig(redisClient)
				idemCfg.Optional = true
				payments.POST("", pkgmiddleware.IdempotencyMiddleware(idemCfg), paymentHandler.Create)
			} else {
				payments.POST("", paymentHandler.Create)
			}

			payments.GET("", paymentHandler.List)
			payments.GET("/stats", configHandler.Stats) // must be before /:id
			payments.GET("/:id", paymentHandler.Get)
			payments.POST("/:id/refresh", paymentHandler.Refresh)
			payments.POST("/:id/cancel", paymentHandler.Cancel)
		}

		paymentConfig := authed.Group("/payment-config")
		{
			paymentConfig.GET("", configHandler.Get)
			paymentConfig.PUT("", configHandler.Upsert)
			paymentConfig.POST("/activate", configHandler.Activate)
			paymentConfig.POST("/deactivate", configHandler.Deactivate)
		}
	}

	// Start payment expiry worker
	expiryWorker := worker.NewExpiryWorker(paymentService, &worker.ExpiryWorkerConfig{
		SweepInterval: cfg.Payment.SweepInterval,
		BatchSize:     cfg.Payment.SweepBatchSize,
	})
	if err := expiryWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start expiry worker: %v", err))
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Homi Payment Service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	expiryWorker.Stop()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
