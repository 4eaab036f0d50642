package integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/azure"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/bridge"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/events"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/handler"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/healthsource"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/middleware"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/migration"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/platform"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/repository"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/service"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/api"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// setupTestDatabase starts a PostgreSQL container and applies the migrations
func setupTestDatabase(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("wearable_integration"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Should be able to start postgres container")

	dbURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, migration.NewRunner(dbURL, nil, zap.NewNop()).Up(), "Migrations should apply")

	db, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "Should be able to connect to database")
	require.NoError(t, db.Ping(ctx), "Should be able to ping database")

	cleanup := func() {
		db.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return db, cleanup
}

// testServer stitches the handlers into the route table
type testServer struct {
	*handler.WearableHandler
	*handler.RecordHandler
}

func (testServer) GetHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "healthy"})
}

// testEnv is the fully wired service with in-process side-effect sinks
type testEnv struct {
	router    *gin.Engine
	db        *pgxpool.Pool
	redis     *miniredis.Miniredis
	archive   *azure.SnapshotArchive
	scheduler *service.Scheduler
}

func newTestEnv(t *testing.T, db *pgxpool.Pool) *testEnv {
	logger := zap.NewNop()
	location := time.UTC

	dailyRecordRepo := repository.NewDailyRecordRepository(db, logger)
	connectionRepo := repository.NewConnectionStatusRepository(db, logger)
	healthDataRepo := repository.NewHealthDataRepository(db, logger)
	auditLogger := audit.NewLogger(db, logger)

	healthBridge, err := bridge.New(bridge.KindStore, "", 0, healthDataRepo, logger)
	require.NoError(t, err)
	capability := platform.New(model.PlatformIOS, healthBridge, logger)

	mr := miniredis.RunT(t)
	redisClient := events.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { redisClient.Close() })
	publisher := events.NewRedisPublisher(redisClient, events.DefaultStream, logger)

	archive := azure.NewSnapshotArchive(azure.NewMemoryStore(), logger)

	orchestrator := service.NewSyncOrchestrator(
		healthsource.NewSource(capability, 5*time.Second, location, logger),
		dailyRecordRepo,
		connectionRepo,
		publisher,
		archive,
		auditLogger,
		capability.Platform(),
		location,
		logger,
	)
	connections := service.NewConnectionService(capability, orchestrator, connectionRepo, auditLogger, logger)
	scheduler := service.NewScheduler(connections, connectionRepo, true, time.Hour, 50*time.Millisecond, logger)
	t.Cleanup(scheduler.StopAll)

	server := testServer{
		WearableHandler: handler.NewWearableHandler(connections, scheduler, connectionRepo, healthDataRepo, auditLogger, location, logger),
		RecordHandler:   handler.NewRecordHandler(service.NewRecordService(dailyRecordRepo, auditLogger, location, logger), location, logger),
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.AuditContextMiddleware())
	api.RegisterHandlers(router, server)

	return &testEnv{
		router:    router,
		db:        db,
		redis:     mr,
		archive:   archive,
		scheduler: scheduler,
	}
}
