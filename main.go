package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/azure"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/bridge"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/config"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/events"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/handler"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/healthsource"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/logging"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/middleware"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/migration"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/platform"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/repository"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/service"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/api"
	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	pool   *pgxpool.Pool
	cfg    *config.Config
)

func main() {
	// Load configuration
	var err error
	cfg, err = config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("bridge", cfg.Bridge.Kind),
		zap.String("platform", cfg.Bridge.Platform),
	)

	location, err := cfg.Sync.Location()
	if err != nil {
		logger.Fatal("Failed to load sync timezone", zap.Error(err))
	}

	// Initialize database connection pool with pgx
	pool, err = pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Test database connection
	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Successfully connected to database")

	if err := migration.NewRunner(cfg.Database.URL, nil, logger).Up(); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Initialize repositories
	dailyRecordRepo := repository.NewDailyRecordRepository(pool, logger)
	connectionRepo := repository.NewConnectionStatusRepository(pool, logger)
	healthDataRepo := repository.NewHealthDataRepository(pool, logger)
	auditLogger := audit.NewLogger(pool, logger)

	// Health store bridge and platform adapter
	healthBridge, err := bridge.New(cfg.Bridge.Kind, cfg.Bridge.RemoteURL, cfg.Bridge.RemoteTimeout, healthDataRepo, logger)
	if err != nil {
		logger.Fatal("Failed to initialize health store bridge", zap.Error(err))
	}
	capability := platform.New(platform.ParsePlatform(cfg.Bridge.Platform), healthBridge, logger)
	source := healthsource.NewSource(capability, cfg.Sync.Timeout, location, logger)

	// Sync events
	var publisher service.EventPublisher = events.NopPublisher{}
	if cfg.Redis.Addr != "" {
		redisClient := events.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redisClient.Close()

		redisPublisher := events.NewRedisPublisher(redisClient, cfg.Redis.Stream, logger)
		if err := redisPublisher.Ping(context.Background()); err != nil {
			logger.Warn("Redis unreachable, sync events will be dropped until it recovers", zap.Error(err))
		}
		publisher = redisPublisher
	}

	// Snapshot archive
	var archiver service.SnapshotArchiver = azure.NopArchive{}
	if cfg.Azure.Storage.Enabled() {
		archive, err := azure.OpenArchive(context.Background(), cfg.Azure.Storage, logger)
		if err != nil {
			logger.Fatal("Failed to initialize snapshot archive", zap.Error(err))
		}
		archiver = archive
	}

	// Initialize services
	orchestrator := service.NewSyncOrchestrator(
		source,
		dailyRecordRepo,
		connectionRepo,
		publisher,
		archiver,
		auditLogger,
		capability.Platform(),
		location,
		logger,
	)
	connectionService := service.NewConnectionService(capability, orchestrator, connectionRepo, auditLogger, logger)
	scheduler := service.NewScheduler(
		connectionService,
		connectionRepo,
		cfg.Sync.Enabled,
		cfg.Sync.Interval(),
		cfg.Sync.IdleReset,
		logger,
	)
	recordService := service.NewRecordService(dailyRecordRepo, auditLogger, location, logger)

	// Initialize handlers
	wearableHandler := handler.NewWearableHandler(
		connectionService,
		scheduler,
		connectionRepo,
		healthDataRepo,
		auditLogger,
		location,
		logger,
	)
	recordHandler := handler.NewRecordHandler(recordService, location, logger)

	// Create a unified handler that implements the ServerInterface
	apiHandler := &APIHandler{
		wearable: wearableHandler,
		records:  recordHandler,
		pool:     pool,
		logger:   logger,
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	r := gin.New()

	// Add recovery middleware (must be first)
	r.Use(middleware.RecoveryMiddleware(logger))

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Configure appropriately for production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add request ID middleware
	r.Use(middleware.RequestIDMiddleware())

	// Carry request metadata into audit entries
	r.Use(middleware.AuditContextMiddleware())

	// Add request logging middleware
	r.Use(middleware.RequestLoggingMiddleware(logger, "/health"))

	// Add error logging middleware
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	// Register API handlers
	api.RegisterHandlers(r, apiHandler)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let running syncs finish before the pool goes away
	scheduler.StopAll()

	// Close database connections
	pool.Close()

	logger.Info("Server exited")
}

// APIHandler implements the ServerInterface by delegating to individual handlers
type APIHandler struct {
	wearable *handler.WearableHandler
	records  *handler.RecordHandler
	pool     *pgxpool.Pool
	logger   *zap.Logger
}

// Wearable endpoints
func (h *APIHandler) PostApiV1WearableConnect(c *gin.Context) {
	h.wearable.PostApiV1WearableConnect(c)
}

func (h *APIHandler) PostApiV1WearableReconnect(c *gin.Context) {
	h.wearable.PostApiV1WearableReconnect(c)
}

func (h *APIHandler) PostApiV1WearableDisconnect(c *gin.Context) {
	h.wearable.PostApiV1WearableDisconnect(c)
}

func (h *APIHandler) PostApiV1WearableSync(c *gin.Context) {
	h.wearable.PostApiV1WearableSync(c)
}

func (h *APIHandler) GetApiV1WearableStatus(c *gin.Context, params api.GetApiV1WearableStatusParams) {
	h.wearable.GetApiV1WearableStatus(c, params)
}

func (h *APIHandler) PostApiV1WearableSchedulerStart(c *gin.Context) {
	h.wearable.PostApiV1WearableSchedulerStart(c)
}

func (h *APIHandler) PostApiV1WearableSchedulerStop(c *gin.Context) {
	h.wearable.PostApiV1WearableSchedulerStop(c)
}

// Mobile upload endpoints
func (h *APIHandler) PostApiV1WearableSamples(c *gin.Context) {
	h.wearable.PostApiV1WearableSamples(c)
}

func (h *APIHandler) PutApiV1WearablePermissions(c *gin.Context) {
	h.wearable.PutApiV1WearablePermissions(c)
}

// Daily record endpoints
func (h *APIHandler) GetApiV1Records(c *gin.Context, params api.GetApiV1RecordsParams) {
	h.records.GetApiV1Records(c, params)
}

func (h *APIHandler) PutApiV1Records(c *gin.Context) {
	h.records.PutApiV1Records(c)
}

// GetHealth implements the health check endpoint
func (h *APIHandler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	// Check database connectivity
	if err := h.pool.Ping(ctx); err != nil {
		h.logger.Error("health check failed: database unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	// Return healthy status
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
		"service":  logging.ServiceName,
		"version":  "1.0.0",
	})
}
