package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/venueos/backend/internal/application/inventory"
	"github.com/venueos/backend/internal/domain/shared"
	sharedstrategy "github.com/venueos/backend/internal/domain/shared/strategy"
	"github.com/venueos/backend/internal/infrastructure/cache"
	"github.com/venueos/backend/internal/infrastructure/config"
	"github.com/venueos/backend/internal/infrastructure/logger"
	"github.com/venueos/backend/internal/infrastructure/persistence"
	"github.com/venueos/backend/internal/infrastructure/scheduler"
	"github.com/venueos/backend/internal/infrastructure/strategy"
	"github.com/venueos/backend/internal/infrastructure/telemetry"
	"github.com/venueos/backend/internal/interfaces/http/handler"
	"github.com/venueos/backend/internal/interfaces/http/middleware"
	"github.com/venueos/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			VenueOS Backend API
//	@version		1.0
//	@description	FIFO batch inventory and costing service for restaurant and venue operations

//	@contact.name	API Support
//	@contact.url	https://github.com/venueos/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting VenueOS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	materialRepo := persistence.NewGormRawMaterialRepository(db.DB)
	batchRepo := persistence.NewGormStockBatchRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	txScope := persistence.NewGormTransactionScopeWithTimeout(db.DB, cfg.Database.TxTimeout)

	// Costing strategies
	strategyRegistry, err := strategy.NewRegistryWithDefaults(sharedstrategy.CostMethod(cfg.Costing.DefaultMethod))
	if err != nil {
		log.Fatal("Failed to initialize costing strategies", zap.Error(err))
	}
	log.Info("Costing strategies registered",
		zap.Strings("methods", strategyRegistry.ListCostMethods()),
		zap.String("default", cfg.Costing.DefaultMethod),
	)

	// Application services
	inventoryService := inventoryapp.NewInventoryService(materialRepo, batchRepo, movementRepo, txScope, strategyRegistry)
	expirationService := inventoryapp.NewBatchExpirationService(batchRepo, txScope, log)
	expirationService.SetSweepSize(cfg.Sweep.BatchLimit)

	// Idempotency store for retried deduction requests
	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		factory := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(cfg.Idempotency.Backend != "redis"),
		)
		idempotencyStore, err = factory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() {
			if err := idempotencyStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		log.Info("Idempotency handling enabled",
			zap.String("backend", cfg.Idempotency.Backend),
			zap.Duration("ttl", cfg.Idempotency.TTL),
		)
	}

	// OpenTelemetry tracing and metrics
	var meterProvider *telemetry.MeterProvider
	var inventoryMetrics *telemetry.InventoryMetrics
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracingConfig := telemetry.DefaultDBTracingConfig()
		dbTracingConfig.Enabled = true
		dbTracingConfig.DBName = cfg.Database.DBName
		dbTracing := telemetry.NewDBTracingPlugin(dbTracingConfig, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	if cfg.Telemetry.Enabled {
		meterProvider, err = telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
			Enabled:           cfg.Telemetry.Enabled,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize meter provider", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := meterProvider.Shutdown(ctx); err != nil {
				log.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()

		inventoryMetrics, err = telemetry.NewInventoryMetrics(telemetry.InventoryMetricsConfig{
			Meter:    meterProvider.Meter("venueos-inventory"),
			Logger:   log,
			Provider: telemetry.NewGormInventoryMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize inventory metrics", zap.Error(err))
		}
		inventoryMetrics.StartPeriodicCollection(context.Background(), 0)
		defer inventoryMetrics.Stop()
		inventoryService.SetMovementRecorder(inventoryMetrics)
		expirationService.SetMovementRecorder(inventoryMetrics)
		log.Info("Telemetry enabled",
			zap.String("collector", cfg.Telemetry.CollectorEndpoint),
			zap.Float64("sampling_ratio", cfg.Telemetry.SamplingRatio),
		)
	}

	// Periodic expiration sweep, started once the recorders are in place
	if cfg.Sweep.Enabled {
		sweepConfig := scheduler.DefaultExpirationSweepConfig()
		sweepConfig.Enabled = cfg.Sweep.Enabled
		if cfg.Sweep.CheckInterval > 0 {
			sweepConfig.CheckInterval = cfg.Sweep.CheckInterval
		}
		sweepScheduler := scheduler.NewExpirationSweepScheduler(expirationService, log, sweepConfig)
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start expiration sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping expiration sweep scheduler", zap.Error(err))
			}
		}()
		log.Info("Expiration sweep scheduler started",
			zap.Duration("check_interval", sweepConfig.CheckInterval),
			zap.Int("batch_limit", cfg.Sweep.BatchLimit),
		)
	}

	// HTTP handlers
	handlerOpts := []handler.InventoryHandlerOption{handler.WithLogger(log)}
	if idempotencyStore != nil {
		handlerOpts = append(handlerOpts, handler.WithIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL))
	}
	inventoryHandler := handler.NewInventoryHandler(inventoryService, handlerOpts...)
	expirationHandler := handler.NewExpirationHandler(expirationService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. Tracing and HTTP metrics (if telemetry enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}

	// Health check endpoints (outside API versioning)
	engine.GET("/health", healthHandler(db, log))
	engine.GET("/ready", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Inventory domain (materials, batches, deductions)
	inventoryRoutes := router.NewDomainGroup("inventory", "")
	inventoryRoutes.POST("/materials", inventoryHandler.CreateMaterial)
	inventoryRoutes.GET("/materials", inventoryHandler.ListMaterials)
	inventoryRoutes.GET("/materials/:id", inventoryHandler.GetMaterial)
	inventoryRoutes.DELETE("/materials/:id", inventoryHandler.DeleteMaterial)
	inventoryRoutes.GET("/materials/:id/movements", inventoryHandler.ListMovements)
	inventoryRoutes.POST("/materials/:id/batches", inventoryHandler.CreateBatch)
	inventoryRoutes.POST("/materials/:id/deductions", inventoryHandler.Deduct)
	inventoryRoutes.GET("/materials/:id/allocation-preview", inventoryHandler.AllocationPreview)
	inventoryRoutes.GET("/materials/:id/cost-impact", inventoryHandler.CostImpact)
	inventoryRoutes.POST("/batches/:id/quarantine", inventoryHandler.Quarantine)
	inventoryRoutes.GET("/batches/statistics", inventoryHandler.BatchStatistics)

	// Admin operations
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.POST("/batches/expire-sweep", expirationHandler.RunSweep)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(inventoryRoutes).
		Register(adminRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
