package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/repository"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// mergeAttempts is the first write plus one re-read after a version conflict
const mergeAttempts = 2

// RecordDate truncates t to its calendar day in loc, expressed as midnight UTC for DATE columns
func RecordDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// sourceRule picks the data_source of a record after a write, given what was stored before
type sourceRule func(existing *model.DailyRecord) model.DataSource

// wearableSource tags a wearable merge: hybrid over anything a person entered, wearable otherwise
func wearableSource(existing *model.DailyRecord) model.DataSource {
	if existing == nil || existing.DataSource == model.DataSourceWearable {
		return model.DataSourceWearable
	}
	return model.DataSourceHybrid
}

// manualSource tags a manual edit: hybrid over anything a device wrote, manual otherwise
func manualSource(existing *model.DailyRecord) model.DataSource {
	if existing == nil || existing.DataSource == model.DataSourceManual {
		return model.DataSourceManual
	}
	return model.DataSourceHybrid
}

// mergeRecord overwrites the populated fields on the stored record with a version-checked upsert.
// Returns the written record and whether a record existed before.
func mergeRecord(ctx context.Context, records DailyRecordRepositoryInterface, userID string, date time.Time, fields model.RecordFields, rule sourceRule) (*model.DailyRecord, bool, error) {
	for attempt := 1; attempt <= mergeAttempts; attempt++ {
		existing, err := records.GetRecord(ctx, userID, date)
		if err != nil {
			return nil, false, err
		}

		rec := &model.DailyRecord{UserID: userID, RecordDate: date}
		var expected int64
		if existing != nil {
			copied := *existing
			rec = &copied
			expected = existing.Version
		}
		rec.Apply(fields)
		rec.DataSource = rule(existing)

		err = records.UpsertRecord(ctx, rec, expected)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return rec, existing != nil, nil
	}
	return nil, false, fmt.Errorf("failed to merge daily record after %d attempts: %w", mergeAttempts, repository.ErrVersionConflict)
}

// RecordService manages manual entry of daily records
type RecordService struct {
	records  DailyRecordRepositoryInterface
	audit    AuditLoggerInterface
	location *time.Location
	logger   *zap.Logger
}

// NewRecordService creates a new RecordService
func NewRecordService(records DailyRecordRepositoryInterface, auditLogger AuditLoggerInterface, location *time.Location, logger *zap.Logger) *RecordService {
	if location == nil {
		location = time.Local
	}
	return &RecordService{
		records:  records,
		audit:    auditLogger,
		location: location,
		logger:   logger,
	}
}

// GetRecord retrieves the record for a user and day. Returns nil, nil when none exists.
func (s *RecordService) GetRecord(ctx context.Context, userID string, date time.Time) (*model.DailyRecord, error) {
	rec, err := s.records.GetRecord(ctx, userID, RecordDate(date, s.location))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily record: %w", err)
	}
	return rec, nil
}

// SaveManual writes the provided fields onto the user's record for the day, leaving the rest untouched
func (s *RecordService) SaveManual(ctx context.Context, userID string, date time.Time, fields model.RecordFields) (*model.DailyRecord, error) {
	day := RecordDate(date, s.location)

	rec, existed, err := mergeRecord(ctx, s.records, userID, day, fields, manualSource)
	if err != nil {
		s.logger.Error("failed to save manual record",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Time("date", day),
		)
		return nil, fmt.Errorf("failed to save manual record: %w", err)
	}

	op := audit.OperationCreate
	if existed {
		op = audit.OperationUpdate
	}
	if err := s.audit.Log(ctx, audit.AuditLog{
		UserID:        userID,
		OperationType: op,
		ResourceType:  audit.ResourceDailyRecord,
		ResourceID:    rec.ID,
		AdditionalData: map[string]interface{}{
			"data_source": rec.DataSource,
			"date":        day.Format(time.DateOnly),
		},
	}); err != nil {
		s.logger.Warn("failed to audit manual record", zap.Error(err), zap.String("user_id", userID))
	}

	s.logger.Info("manual record saved",
		zap.String("user_id", userID),
		zap.String("record_id", rec.ID),
		zap.String("data_source", string(rec.DataSource)),
		zap.Int64("version", rec.Version),
	)
	return rec, nil
}
