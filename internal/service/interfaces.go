package service

import (
	"context"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/healthsource"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

// HealthSourceInterface reads one day of wearable data
type HealthSourceInterface interface {
	SyncDay(ctx context.Context, userID string, day time.Time) (*healthsource.Outcome, error)
}

// DailyRecordRepositoryInterface defines the interface for daily record persistence
type DailyRecordRepositoryInterface interface {
	GetRecord(ctx context.Context, userID string, date time.Time) (*model.DailyRecord, error)
	UpsertRecord(ctx context.Context, rec *model.DailyRecord, expectedVersion int64) error
}

// ConnectionStatusRepositoryInterface defines the interface for connection status persistence
type ConnectionStatusRepositoryInterface interface {
	GetConnectionStatus(ctx context.Context, userID string) (*model.ConnectionStatus, error)
	UpsertConnectionStatus(ctx context.Context, status *model.ConnectionStatus) error
}

// EventPublisher announces finished syncs to other services
type EventPublisher interface {
	PublishSyncEvent(ctx context.Context, event model.SyncEvent) error
}

// SnapshotArchiver keeps the raw wearable snapshot of every successful read
type SnapshotArchiver interface {
	ArchiveSnapshot(ctx context.Context, userID string, date time.Time, snapshot *model.HealthDataSnapshot) (string, error)
}

// AuditLoggerInterface writes audit trail entries
type AuditLoggerInterface interface {
	Log(ctx context.Context, entry audit.AuditLog) error
}

// SyncRunner runs one sync for a user, honouring the connection lifecycle
type SyncRunner interface {
	Sync(ctx context.Context, userID string, date *time.Time) model.SyncResult
}

// Orchestrator runs the wearable, then manual, fallback cascade without touching the connection row
type Orchestrator interface {
	Run(ctx context.Context, userID string, date *time.Time) model.SyncResult
}
