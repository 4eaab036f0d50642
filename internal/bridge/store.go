// Package bridge holds the concrete platform.Bridge implementations.
package bridge

import (
	"context"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// SampleStore is the persistence the store bridge reads device uploads from
type SampleStore interface {
	QuerySamples(ctx context.Context, userID string, platform model.Platform, dataType string, start, end time.Time) ([]model.RawSample, error)
	GetPermissionGrant(ctx context.Context, userID string, platform model.Platform) (*model.PermissionGrant, error)
	MarkAuthorizationRequested(ctx context.Context, userID string, platform model.Platform) error
}

// StoreBridge answers health store queries from samples the mobile app uploaded
type StoreBridge struct {
	store  SampleStore
	logger *zap.Logger
}

// NewStoreBridge creates a new StoreBridge
func NewStoreBridge(store SampleStore, logger *zap.Logger) *StoreBridge {
	return &StoreBridge{
		store:  store,
		logger: logger,
	}
}

// Available reports whether uploads are accepted for the platform
func (b *StoreBridge) Available(_ context.Context, platform model.Platform) (bool, error) {
	return platform == model.PlatformIOS || platform == model.PlatformAndroid, nil
}

// RequestAuthorization records a pending request for the device and returns the grant it last reported.
// The device shows the OS permission prompt on its next upload and reports back through SavePermissionGrant.
func (b *StoreBridge) RequestAuthorization(ctx context.Context, userID string, platform model.Platform, dataTypes []string) (bool, error) {
	if err := b.store.MarkAuthorizationRequested(ctx, userID, platform); err != nil {
		return false, err
	}
	b.logger.Info("health store authorization requested",
		zap.String("user_id", userID),
		zap.String("platform", string(platform)),
		zap.Int("data_types", len(dataTypes)),
	)
	return b.AuthorizationStatus(ctx, userID, platform)
}

// AuthorizationStatus returns the grant the device last reported; no report means not granted
func (b *StoreBridge) AuthorizationStatus(ctx context.Context, userID string, platform model.Platform) (bool, error) {
	grant, err := b.store.GetPermissionGrant(ctx, userID, platform)
	if err != nil {
		return false, err
	}
	return grant != nil && grant.Granted, nil
}

// QuerySamples returns uploaded samples of one native type
func (b *StoreBridge) QuerySamples(ctx context.Context, userID string, platform model.Platform, dataType string, start, end time.Time) ([]model.RawSample, error) {
	return b.store.QuerySamples(ctx, userID, platform, dataType, start, end)
}
