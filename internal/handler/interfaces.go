package handler

import (
	"context"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/service"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

// ConnectionServiceInterface drives the connection lifecycle
type ConnectionServiceInterface interface {
	Connect(ctx context.Context, userID string) service.ConnectionOutcome
	Reconnect(ctx context.Context, userID string) service.ConnectionOutcome
	Disconnect(ctx context.Context, userID string) model.ConnectionState
	State(ctx context.Context, userID string) model.ConnectionState
}

// SchedulerInterface runs manual and periodic syncs
type SchedulerInterface interface {
	Start(ctx context.Context, userID string) (bool, error)
	Stop(userID string) bool
	Running(userID string) bool
	TriggerNow(ctx context.Context, userID string, date *time.Time) (model.SyncResult, bool)
	Status(userID string) (service.SchedulerStatus, *model.SyncResult)
}

// ConnectionStatusReader reads the persisted connection status
type ConnectionStatusReader interface {
	GetConnectionStatus(ctx context.Context, userID string) (*model.ConnectionStatus, error)
}

// HealthDataStore accepts uploads from the mobile app
type HealthDataStore interface {
	SaveSamples(ctx context.Context, userID string, platform model.Platform, samples []model.RawSample) (int, error)
	SavePermissionGrant(ctx context.Context, userID string, platform model.Platform, granted bool) error
}

// RecordServiceInterface reads and edits daily records
type RecordServiceInterface interface {
	GetRecord(ctx context.Context, userID string, date time.Time) (*model.DailyRecord, error)
	SaveManual(ctx context.Context, userID string, date time.Time, fields model.RecordFields) (*model.DailyRecord, error)
}

// AuditLoggerInterface records uploads from the mobile app
type AuditLoggerInterface interface {
	Log(ctx context.Context, entry audit.AuditLog) error
}
