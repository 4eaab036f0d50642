package service

import (
	"context"
	"errors"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/healthsource"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// SyncOrchestrator tries the wearable first, falls back to the stored manual record, and persists
// wearable data by merging it field by field into the day's record.
type SyncOrchestrator struct {
	source    HealthSourceInterface
	records   DailyRecordRepositoryInterface
	statuses  ConnectionStatusRepositoryInterface
	publisher EventPublisher
	archiver  SnapshotArchiver
	audit     AuditLoggerInterface
	platform  model.Platform
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewSyncOrchestrator creates a new SyncOrchestrator
func NewSyncOrchestrator(
	source HealthSourceInterface,
	records DailyRecordRepositoryInterface,
	statuses ConnectionStatusRepositoryInterface,
	publisher EventPublisher,
	archiver SnapshotArchiver,
	auditLogger AuditLoggerInterface,
	platform model.Platform,
	location *time.Location,
	logger *zap.Logger,
) *SyncOrchestrator {
	if location == nil {
		location = time.Local
	}
	return &SyncOrchestrator{
		source:    source,
		records:   records,
		statuses:  statuses,
		publisher: publisher,
		archiver:  archiver,
		audit:     auditLogger,
		platform:  platform,
		location:  location,
		now:       time.Now,
		logger:    logger,
	}
}

// SyncWithFallback runs one sync for the given day, today when date is nil, and marks the
// connection row connected when a wearable read was stored.
// It never returns an error: callers read Success, Mode and Errors.
func (o *SyncOrchestrator) SyncWithFallback(ctx context.Context, userID string, date *time.Time) model.SyncResult {
	result := o.Run(ctx, userID, date)
	if result.WearablePersisted() {
		o.markConnected(ctx, userID, result)
	}
	return result
}

// Run is SyncWithFallback without the connection row update. Callers that track a live
// connection state write the row themselves once they know the state still allows it.
func (o *SyncOrchestrator) Run(ctx context.Context, userID string, date *time.Time) model.SyncResult {
	now := o.now()
	day := now
	if date != nil {
		day = *date
	}
	recordDate := RecordDate(day, o.location)

	result := model.SyncResult{
		Errors:    []model.SyncError{},
		Mode:      model.SyncModeNone,
		Timestamp: now,
	}

	outcome, err := o.source.SyncDay(ctx, userID, day)
	if err == nil && outcome != nil && outcome.Snapshot.HasData() {
		o.applyWearable(ctx, userID, recordDate, outcome, &result)
		o.publish(ctx, userID, recordDate, result)
		return result
	}
	result.Errors = append(result.Errors, classify(err))

	o.applyManual(ctx, userID, recordDate, now, &result)
	o.publish(ctx, userID, recordDate, result)

	if !result.Success {
		o.logger.Warn("sync failed with no wearable or manual data",
			zap.String("user_id", userID),
			zap.Time("date", recordDate),
			zap.Any("errors", result.Errors),
		)
	}
	return result
}

func (o *SyncOrchestrator) applyWearable(ctx context.Context, userID string, date time.Time, outcome *healthsource.Outcome, result *model.SyncResult) {
	snapshot := outcome.Snapshot
	result.Success = true
	result.Mode = model.SyncModeWearable
	result.Data = snapshot
	result.Warnings = append(append([]string{}, outcome.Validation.Errors...), outcome.Validation.Warnings...)

	rec, existed, err := mergeRecord(ctx, o.records, userID, date, model.RecordFieldsFromSnapshot(snapshot), wearableSource)
	if err != nil {
		// the read itself worked, so the snapshot is still returned
		o.logger.Error("failed to persist wearable snapshot",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Time("date", date),
		)
		result.Errors = append(result.Errors, model.SyncError{
			Type:    model.ErrorPersistenceFailed,
			Message: err.Error(),
		})
		return
	}

	if rec.DataSource == model.DataSourceHybrid {
		result.Mode = model.SyncModeHybrid
		merged := model.SnapshotFromRecord(rec, snapshot.SyncedAt).WithSource(model.SourceHybrid)
		merged.DeviceName = snapshot.DeviceName
		result.Data = merged
	}

	o.archive(ctx, userID, date, snapshot)
	o.auditMerge(ctx, userID, date, rec, existed, snapshot)

	o.logger.Info("wearable sync persisted",
		zap.String("user_id", userID),
		zap.Time("date", date),
		zap.String("mode", string(result.Mode)),
		zap.String("data_source", string(rec.DataSource)),
		zap.Int64("version", rec.Version),
		zap.Int("warnings", len(result.Warnings)),
	)
}

func (o *SyncOrchestrator) applyManual(ctx context.Context, userID string, date, now time.Time, result *model.SyncResult) {
	rec, err := o.records.GetRecord(ctx, userID, date)
	if err != nil {
		o.logger.Warn("manual fallback failed", zap.Error(err), zap.String("user_id", userID))
		result.Errors = append(result.Errors, *model.NewSyncError(model.ErrorManualFallback, "failed to load manual record: %v", err))
		return
	}
	if rec == nil {
		result.Errors = append(result.Errors, *model.NewSyncError(model.ErrorManualFallback, "no manual record for %s", date.Format(time.DateOnly)))
		return
	}

	result.Success = true
	result.Mode = model.SyncModeManual
	result.Data = model.SnapshotFromRecord(rec, now)

	o.logger.Info("using manual record as fallback",
		zap.String("user_id", userID),
		zap.Time("date", date),
		zap.String("reason", string(result.Errors[0].Type)),
	)
}

// markConnected records a stored wearable read on the user's connection row
func (o *SyncOrchestrator) markConnected(ctx context.Context, userID string, result model.SyncResult) {
	status, err := o.statuses.GetConnectionStatus(ctx, userID)
	if err != nil {
		o.logger.Error("failed to load connection status", zap.Error(err), zap.String("user_id", userID))
		return
	}
	if status == nil {
		status = &model.ConnectionStatus{UserID: userID}
	}
	status.RecordSync(result.Timestamp, o.platform, result.Data)

	if err := o.statuses.UpsertConnectionStatus(ctx, status); err != nil {
		o.logger.Error("failed to update connection status after sync", zap.Error(err), zap.String("user_id", userID))
	}
}

func (o *SyncOrchestrator) archive(ctx context.Context, userID string, date time.Time, snapshot *model.HealthDataSnapshot) {
	if _, err := o.archiver.ArchiveSnapshot(ctx, userID, date, snapshot); err != nil {
		o.logger.Warn("failed to archive wearable snapshot", zap.Error(err), zap.String("user_id", userID))
	}
}

func (o *SyncOrchestrator) auditMerge(ctx context.Context, userID string, date time.Time, rec *model.DailyRecord, existed bool, snapshot *model.HealthDataSnapshot) {
	op := audit.OperationCreate
	if existed {
		op = audit.OperationUpdate
	}
	err := o.audit.Log(ctx, audit.AuditLog{
		UserID:        userID,
		OperationType: op,
		ResourceType:  audit.ResourceDailyRecord,
		ResourceID:    rec.ID,
		AdditionalData: map[string]interface{}{
			"data_source": rec.DataSource,
			"date":        date.Format(time.DateOnly),
			"source":      snapshot.Source,
			"fields":      snapshot.MetricFieldCount(),
		},
	})
	if err != nil {
		o.logger.Warn("failed to audit wearable merge", zap.Error(err), zap.String("user_id", userID))
	}
}

func (o *SyncOrchestrator) publish(ctx context.Context, userID string, date time.Time, result model.SyncResult) {
	types := make([]model.ErrorType, 0, len(result.Errors))
	for _, e := range result.Errors {
		types = append(types, e.Type)
	}
	event := model.SyncEvent{
		UserID:     userID,
		Date:       date.Format(time.DateOnly),
		Mode:       result.Mode,
		Success:    result.Success,
		ErrorTypes: types,
		Timestamp:  result.Timestamp,
	}
	if err := o.publisher.PublishSyncEvent(ctx, event); err != nil {
		o.logger.Warn("failed to publish sync event", zap.Error(err), zap.String("user_id", userID))
	}
}

// classify turns a health source failure into a typed sync error
func classify(err error) model.SyncError {
	if err == nil {
		return model.SyncError{Type: model.ErrorNoDataAvailable, Message: "no usable wearable data"}
	}
	var syncErr *model.SyncError
	if errors.As(err, &syncErr) {
		return *syncErr
	}
	return model.SyncError{Type: model.ErrorSyncFailed, Message: err.Error()}
}
