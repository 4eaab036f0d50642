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

// HealthDataRepository manages raw health store samples and permission grants uploaded by devices
type HealthDataRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewHealthDataRepository creates a new HealthDataRepository
func NewHealthDataRepository(db *pgxpool.Pool, logger *zap.Logger) *HealthDataRepository {
	return &HealthDataRepository{
		db:     db,
		logger: logger,
	}
}

// SaveSamples stores uploaded samples, skipping any whose source_id is already stored.
// Returns the number of new rows.
func (r *HealthDataRepository) SaveSamples(ctx context.Context, userID string, platform model.Platform, samples []model.RawSample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO health_samples (
			user_id, platform, data_type, value, unit,
			stage_code, start_at, end_at, source_id, device_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NOW())
		ON CONFLICT (source_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(query,
			userID,
			platform,
			s.DataType,
			s.Value,
			s.Unit,
			s.StageCode,
			s.StartAt,
			s.EndAt,
			s.SourceID,
			s.DeviceName,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range samples {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error("failed to save health sample",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("platform", string(platform)),
			)
			return inserted, fmt.Errorf("failed to save health sample: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// QuerySamples retrieves a user's samples of one native data type that start within [start, end]
func (r *HealthDataRepository) QuerySamples(ctx context.Context, userID string, platform model.Platform, dataType string, start, end time.Time) ([]model.RawSample, error) {
	query := `
		SELECT
			data_type, value, unit, stage_code,
			start_at, end_at, source_id, COALESCE(device_name, '')
		FROM health_samples
		WHERE user_id = $1 AND platform = $2 AND data_type = $3
			AND start_at >= $4 AND start_at <= $5
		ORDER BY start_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID, platform, dataType, start, end)
	if err != nil {
		r.logger.Error("failed to query health samples",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("data_type", dataType),
		)
		return nil, fmt.Errorf("failed to query health samples: %w", err)
	}
	defer rows.Close()

	var samples []model.RawSample
	for rows.Next() {
		var s model.RawSample
		err := rows.Scan(
			&s.DataType,
			&s.Value,
			&s.Unit,
			&s.StageCode,
			&s.StartAt,
			&s.EndAt,
			&s.SourceID,
			&s.DeviceName,
		)
		if err != nil {
			r.logger.Error("failed to scan health sample", zap.Error(err))
			continue
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating health samples", zap.Error(err))
		return nil, fmt.Errorf("error iterating health samples: %w", err)
	}

	return samples, nil
}

// HasSamples reports whether any sample was ever uploaded for the user on this platform
func (r *HealthDataRepository) HasSamples(ctx context.Context, userID string, platform model.Platform) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM health_samples WHERE user_id = $1 AND platform = $2)`

	var exists bool
	err := r.db.QueryRow(ctx, query, userID, platform).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check health samples existence",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return false, fmt.Errorf("failed to check health samples existence: %w", err)
	}

	return exists, nil
}

// GetPermissionGrant retrieves the last reported grant. Returns nil, nil when none exists.
func (r *HealthDataRepository) GetPermissionGrant(ctx context.Context, userID string, platform model.Platform) (*model.PermissionGrant, error) {
	query := `
		SELECT user_id, platform, granted, requested_at, updated_at
		FROM health_permission_grants
		WHERE user_id = $1 AND platform = $2
	`

	var grant model.PermissionGrant
	err := r.db.QueryRow(ctx, query, userID, platform).Scan(
		&grant.UserID,
		&grant.Platform,
		&grant.Granted,
		&grant.RequestedAt,
		&grant.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to get permission grant", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to get permission grant: %w", err)
	}

	return &grant, nil
}

// SavePermissionGrant records the grant status a device reported
func (r *HealthDataRepository) SavePermissionGrant(ctx context.Context, userID string, platform model.Platform, granted bool) error {
	query := `
		INSERT INTO health_permission_grants (user_id, platform, granted, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, platform) DO UPDATE SET
			granted = EXCLUDED.granted,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, userID, platform, granted)
	if err != nil {
		r.logger.Error("failed to save permission grant",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Bool("granted", granted),
		)
		return fmt.Errorf("failed to save permission grant: %w", err)
	}

	return nil
}

// MarkAuthorizationRequested stamps a pending authorization request for the device to pick up
func (r *HealthDataRepository) MarkAuthorizationRequested(ctx context.Context, userID string, platform model.Platform) error {
	query := `
		INSERT INTO health_permission_grants (user_id, platform, granted, requested_at, updated_at)
		VALUES ($1, $2, false, NOW(), NOW())
		ON CONFLICT (user_id, platform) DO UPDATE SET
			requested_at = NOW(),
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, userID, platform)
	if err != nil {
		r.logger.Error("failed to mark authorization request", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("failed to mark authorization request: %w", err)
	}

	return nil
}
