package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // Import pprof for profiling
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/di"
	"github.com/ayush-ak-725/ticket-booking-service/internal/handler"
	"github.com/ayush-ak-725/ticket-booking-service/internal/metrics"
	"github.com/ayush-ak-725/ticket-booking-service/internal/repository"
	"github.com/ayush-ak-725/ticket-booking-service/internal/service"
	"github.com/ayush-ak-725/ticket-booking-service/internal/worker"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/config"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/logger"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/middleware"
	pkgredis "github.com/ayush-ak-725/ticket-booking-service/pkg/redis"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	"github.com/gin-gonic/gin"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting box office service...")

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry init failed, traces disabled: %v", err))
	}

	// Initialize metric instruments
	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Connect the shared capacity store. An unreachable store is not
	// fatal: the service falls back to the in-process implementation
	// with the same semantics.
	var redisClient *pkgredis.Client
	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
	}
	redisClient, err = pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed, using in-memory capacity store: %v", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info(fmt.Sprintf("Redis connected (pool: %d, minIdle: %d)", redisCfg.PoolSize, redisCfg.MinIdleConns))
	}

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher
	eventPubCfg := &service.EventPublisherConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		ServiceName: cfg.App.Name,
		ClientID:    cfg.Kafka.ClientID,
	}
	eventPublisher, err = service.NewKafkaEventPublisher(ctx, eventPubCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		eventPublisher = service.NewNoOpEventPublisher()
	} else {
		appLog.Info("Kafka event publisher connected")
	}
	defer eventPublisher.Close()

	// Initialize repositories. The in-process ledgers are authoritative;
	// Redis carries the shared counters and entity snapshots.
	var (
		eventRepo    repository.EventRepository    = repository.NewMemoryEventRepository()
		holdRepo     repository.HoldRepository     = repository.NewMemoryHoldRepository()
		bookingRepo  repository.BookingRepository  = repository.NewMemoryBookingRepository()
		capacityRepo repository.CapacityRepository = repository.NewMemoryCapacityRepository()
	)
	capacityStore := handler.CapacityStoreMemory
	if redisClient != nil {
		redisCapacityRepo := repository.NewRedisCapacityRepository(redisClient)

		// Pre-load Lua scripts into Redis
		if err := redisCapacityRepo.LoadScripts(ctx); err != nil {
			appLog.Warn(fmt.Sprintf("Failed to pre-load Lua scripts: %v", err))
		} else {
			appLog.Info("Lua scripts pre-loaded into Redis")
		}

		capacityRepo = redisCapacityRepo
		capacityStore = handler.CapacityStoreRedis
		eventRepo = repository.NewCachedEventRepository(eventRepo, redisClient)
		holdRepo = repository.NewMirroredHoldRepository(holdRepo, redisClient)
		bookingRepo = repository.NewMirroredBookingRepository(bookingRepo, redisClient)
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		Redis:          redisClient,
		EventRepo:      eventRepo,
		HoldRepo:       holdRepo,
		BookingRepo:    bookingRepo,
		CapacityRepo:   capacityRepo,
		EventPublisher: eventPublisher,
		HoldConfig: &service.HoldServiceConfig{
			DefaultTTL:  cfg.Hold.DefaultTTL,
			MinTTL:      cfg.Hold.MinTTL,
			MaxTTL:      cfg.Hold.MaxTTL,
			MaxQuantity: cfg.Hold.MaxQuantity,
		},
		ServiceName:   cfg.App.Name,
		CapacityStore: capacityStore,
	})

	// Start the expiry sweeper
	sweeper := worker.NewExpiryWorker(container.HoldService, &worker.ExpiryWorkerConfig{
		ScanInterval: cfg.Sweeper.Interval,
		ErrorBackoff: cfg.Sweeper.ErrorBackoff,
	})
	if err := sweeper.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start expiry sweeper: %v", err))
	}

	// Setup Gin
	gin.SetMode(gin.ReleaseMode)
	gin.DisableConsoleColor()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name))
	router.Use(metrics.Middleware())

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Idempotency middleware for write operations, active when Redis
	// is available to hold the records
	idempotent := writeMiddleware(redisClient)

	// API routes
	v1 := router.Group("/api/v1")
	{
		events := v1.Group("/events")
		{
			events.POST("", container.EventHandler.CreateEvent)
			events.GET("", container.EventHandler.ListEvents)
			events.GET("/:id", container.EventHandler.GetEvent)
			events.GET("/:id/status", container.EventHandler.GetSeatStatus)
		}

		holds := v1.Group("/holds")
		{
			holds.POST("", idempotent, container.HoldHandler.CreateHold)
			holds.GET("/:id", container.HoldHandler.GetHold)
			holds.POST("/:id/expire", idempotent, container.HoldHandler.ExpireHold)
		}

		v1.POST("/book", idempotent, container.BookingHandler.CreateBooking)
		v1.GET("/bookings/:id", container.BookingHandler.GetBooking)

		v1.GET("/metrics", container.StatsHandler.GetMetrics)
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

	// Start pprof server on separate port for profiling
	go func() {
		pprofAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1000)
		appLog.Info(fmt.Sprintf("pprof server listening on %s", pprofAddr))
		if err := http.ListenAndServe(pprofAddr, nil); err != nil {
			appLog.Error(fmt.Sprintf("pprof server error: %v", err))
		}
	}()

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Box office service listening on %s (capacity store: %s)", addr, capacityStore))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	sweeper.Stop()
	stats := sweeper.GetStats()
	appLog.Info(fmt.Sprintf("Expiry sweeper finished: %d scans, %d holds expired", stats.TotalScans, stats.TotalExpired))

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry shutdown failed: %v", err))
	}

	appLog.Info("Server exited gracefully")
}

// writeMiddleware guards write endpoints with the idempotency
// middleware when Redis is available. Without Redis the middleware has
// nowhere to store records, so writes pass through.
func writeMiddleware(redisClient *pkgredis.Client) gin.HandlerFunc {
	if redisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}
	idempotencyConfig := middleware.DefaultIdempotencyConfig(redisClient.Client())
	idempotencyConfig.SkipPaths = []string{"/health", "/ready", "/api/v1/metrics"}
	return middleware.IdempotencyMiddleware(idempotencyConfig)
}
