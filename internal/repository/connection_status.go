package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// ConnectionStatusRepository manages the one wearable connection row per user
type ConnectionStatusRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewConnectionStatusRepository creates a new ConnectionStatusRepository
func NewConnectionStatusRepository(db *pgxpool.Pool, logger *zap.Logger) *ConnectionStatusRepository {
	return &ConnectionStatusRepository{
		db:     db,
		logger: logger,
	}
}

// GetConnectionStatus retrieves a user's connection status. Returns nil, nil when none exists.
func (r *ConnectionStatusRepository) GetConnectionStatus(ctx context.Context, userID string) (*model.ConnectionStatus, error) {
	query := `
		SELECT
			user_id, is_connected, last_sync, device_type,
			permissions_granted, platform, state,
			previously_connected, last_error, updated_at
		FROM wearable_connections
		WHERE user_id = $1
	`

	var status model.ConnectionStatus
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&status.UserID,
		&status.IsConnected,
		&status.LastSync,
		&status.DeviceType,
		&status.PermissionsGranted,
		&status.Platform,
		&status.State,
		&status.PreviouslyConnected,
		&status.LastError,
		&status.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to get connection status", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to get connection status: %w", err)
	}

	return &status, nil
}

// UpsertConnectionStatus overwrites the user's connection row, creating it on first write
func (r *ConnectionStatusRepository) UpsertConnectionStatus(ctx context.Context, status *model.ConnectionStatus) error {
	query := `
		INSERT INTO wearable_connections (
			user_id, is_connected, last_sync, device_type,
			permissions_granted, platform, state,
			previously_connected, last_error, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			is_connected = EXCLUDED.is_connected,
			last_sync = EXCLUDED.last_sync,
			device_type = EXCLUDED.device_type,
			permissions_granted = EXCLUDED.permissions_granted,
			platform = EXCLUDED.platform,
			state = EXCLUDED.state,
			previously_connected = EXCLUDED.previously_connected,
			last_error = EXCLUDED.last_error,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		status.UserID,
		status.IsConnected,
		status.LastSync,
		status.DeviceType,
		status.PermissionsGranted,
		status.Platform,
		status.State,
		status.PreviouslyConnected,
		status.LastError,
	).Scan(&status.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to upsert connection status",
			zap.Error(err),
			zap.String("user_id", status.UserID),
			zap.String("state", string(status.State)),
		)
		return fmt.Errorf("failed to upsert connection status: %w", err)
	}

	return nil
}
