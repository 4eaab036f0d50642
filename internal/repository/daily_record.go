package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// ErrVersionConflict is returned when a record changed between read and write
var ErrVersionConflict = errors.New("daily record was modified concurrently")

const dailyRecordColumns = `
	id, user_id, record_date,
	basal_body_temperature, sleep_hours, sleep_quality,
	sleep_deep_minutes, sleep_rem_minutes, sleep_light_minutes,
	steps, active_calories, activity_minutes, resting_heart_rate,
	hrv, oxygen_saturation, respiratory_rate,
	water_glasses, mood, notes,
	data_source, device_name, version, created_at, updated_at`

// DailyRecordRepository manages per-day health records
type DailyRecordRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewDailyRecordRepository creates a new DailyRecordRepository
func NewDailyRecordRepository(db *pgxpool.Pool, logger *zap.Logger) *DailyRecordRepository {
	return &DailyRecordRepository{
		db:     db,
		logger: logger,
	}
}

func scanDailyRecord(row pgx.Row) (*model.DailyRecord, error) {
	var rec model.DailyRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.RecordDate,
		&rec.BasalBodyTemperature,
		&rec.SleepHours,
		&rec.SleepQuality,
		&rec.SleepDeepMinutes,
		&rec.SleepREMMinutes,
		&rec.SleepLightMinutes,
		&rec.Steps,
		&rec.ActiveCalories,
		&rec.ActivityMinutes,
		&rec.RestingHeartRate,
		&rec.HeartRateVariability,
		&rec.OxygenSaturation,
		&rec.RespiratoryRate,
		&rec.WaterGlasses,
		&rec.Mood,
		&rec.Notes,
		&rec.DataSource,
		&rec.DeviceName,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecord retrieves the record for a user and day. Returns nil, nil when none exists.
func (r *DailyRecordRepository) GetRecord(ctx context.Context, userID string, date time.Time) (*model.DailyRecord, error) {
	query := `SELECT ` + dailyRecordColumns + `
		FROM daily_records
		WHERE user_id = $1 AND record_date = $2
	`

	rec, err := scanDailyRecord(r.db.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to get daily record",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Time("date", date),
		)
		return nil, fmt.Errorf("failed to get daily record: %w", err)
	}

	return rec, nil
}

// ListRecords retrieves a user's records within a date range, newest first
func (r *DailyRecordRepository) ListRecords(ctx context.Context, userID string, startDate, endDate time.Time) ([]model.DailyRecord, error) {
	query := `SELECT ` + dailyRecordColumns + `
		FROM daily_records
		WHERE user_id = $1 AND record_date >= $2 AND record_date <= $3
		ORDER BY record_date DESC
	`

	rows, err := r.db.Query(ctx, query, userID, startDate, endDate)
	if err != nil {
		r.logger.Error("failed to list daily records", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list daily records: %w", err)
	}
	defer rows.Close()

	var records []model.DailyRecord
	for rows.Next() {
		rec, err := scanDailyRecord(rows)
		if err != nil {
			r.logger.Error("failed to scan daily record", zap.Error(err))
			continue
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating daily records", zap.Error(err))
		return nil, fmt.Errorf("error iterating daily records: %w", err)
	}

	return records, nil
}

// UpsertRecord writes every column of rec if the stored version still equals expectedVersion.
// An expectedVersion of 0 means the caller saw no record. On success rec carries the new
// id, version and timestamps; on a lost race ErrVersionConflict is returned.
func (r *DailyRecordRepository) UpsertRecord(ctx context.Context, rec *model.DailyRecord, expectedVersion int64) error {
	query := `
		INSERT INTO daily_records (
			user_id, record_date,
			basal_body_temperature, sleep_hours, sleep_quality,
			sleep_deep_minutes, sleep_rem_minutes, sleep_light_minutes,
			steps, active_calories, activity_minutes, resting_heart_rate,
			hrv, oxygen_saturation, respiratory_rate,
			water_glasses, mood, notes,
			data_source, device_name, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, 1, NOW(), NOW()
		)
		ON CONFLICT (user_id, record_date) DO UPDATE SET
			basal_body_temperature = EXCLUDED.basal_body_temperature,
			sleep_hours = EXCLUDED.sleep_hours,
			sleep_quality = EXCLUDED.sleep_quality,
			sleep_deep_minutes = EXCLUDED.sleep_deep_minutes,
			sleep_rem_minutes = EXCLUDED.sleep_rem_minutes,
			sleep_light_minutes = EXCLUDED.sleep_light_minutes,
			steps = EXCLUDED.steps,
			active_calories = EXCLUDED.active_calories,
			activity_minutes = EXCLUDED.activity_minutes,
			resting_heart_rate = EXCLUDED.resting_heart_rate,
			hrv = EXCLUDED.hrv,
			oxygen_saturation = EXCLUDED.oxygen_saturation,
			respiratory_rate = EXCLUDED.respiratory_rate,
			water_glasses = EXCLUDED.water_glasses,
			mood = EXCLUDED.mood,
			notes = EXCLUDED.notes,
			data_source = EXCLUDED.data_source,
			device_name = EXCLUDED.device_name,
			version = daily_records.version + 1,
			updated_at = NOW()
		WHERE daily_records.version = $21
		RETURNING id, version, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		rec.UserID,
		rec.RecordDate,
		rec.BasalBodyTemperature,
		rec.SleepHours,
		rec.SleepQuality,
		rec.SleepDeepMinutes,
		rec.SleepREMMinutes,
		rec.SleepLightMinutes,
		rec.Steps,
		rec.ActiveCalories,
		rec.ActivityMinutes,
		rec.RestingHeartRate,
		rec.HeartRateVariability,
		rec.OxygenSaturation,
		rec.RespiratoryRate,
		rec.WaterGlasses,
		rec.Mood,
		rec.Notes,
		rec.DataSource,
		rec.DeviceName,
		expectedVersion,
	).Scan(&rec.ID, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("daily record version conflict",
				zap.String("user_id", rec.UserID),
				zap.Time("date", rec.RecordDate),
				zap.Int64("expected_version", expectedVersion),
			)
			return ErrVersionConflict
		}
		r.logger.Error("failed to upsert daily record",
			zap.Error(err),
			zap.String("user_id", rec.UserID),
			zap.Time("date", rec.RecordDate),
		)
		return fmt.Errorf("failed to upsert daily record: %w", err)
	}

	return nil
}
