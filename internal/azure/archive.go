package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/config"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/security"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// Sealer encrypts archived payloads
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// SnapshotArchive keeps every raw wearable snapshot as a JSON blob, sealed when a Sealer is set
type SnapshotArchive struct {
	store  ObjectStore
	sealer Sealer
	logger *zap.Logger
}

// NewSnapshotArchive creates a new SnapshotArchive
func NewSnapshotArchive(store ObjectStore, logger *zap.Logger) *SnapshotArchive {
	return &SnapshotArchive{store: store, logger: logger}
}

// OpenArchive connects to the configured container, creating it if needed
func OpenArchive(ctx context.Context, storage config.StorageConfig, logger *zap.Logger) (*SnapshotArchive, error) {
	store, err := NewContainerStore(storage.AccountName, storage.AccountKey, storage.ArchiveContainer, logger)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureContainer(ctx); err != nil {
		return nil, err
	}

	archive := NewSnapshotArchive(store, logger)
	if storage.EncryptionKey != "" {
		sealer, err := security.NewSealerFromBase64(storage.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot encryption: %w", err)
		}
		archive = archive.WithSealer(sealer)
	}
	return archive, nil
}

// WithSealer encrypts snapshots before upload
func (a *SnapshotArchive) WithSealer(sealer Sealer) *SnapshotArchive {
	a.sealer = sealer
	return a
}

// SnapshotBlobName is snapshots/<user>/<date>/<unix seconds>.json
func SnapshotBlobName(userID string, date, syncedAt time.Time) string {
	return fmt.Sprintf("%s%d.json", snapshotPrefix(userID, date), syncedAt.Unix())
}

func snapshotPrefix(userID string, date time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s/", userID, date.Format(time.DateOnly))
}

// ArchiveSnapshot uploads the snapshot and returns its blob name
func (a *SnapshotArchive) ArchiveSnapshot(ctx context.Context, userID string, date time.Time, snapshot *model.HealthDataSnapshot) (string, error) {
	if snapshot == nil {
		return "", fmt.Errorf("snapshot is required")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	syncedAt := snapshot.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}

	contentType := "application/json"
	if a.sealer != nil {
		if data, err = a.sealer.Seal(data); err != nil {
			return "", fmt.Errorf("failed to seal snapshot: %w", err)
		}
		contentType = "application/octet-stream"
	}

	name := SnapshotBlobName(userID, date, syncedAt)
	if err := a.store.Put(ctx, name, data, contentType); err != nil {
		return "", fmt.Errorf("failed to archive snapshot: %w", err)
	}

	a.logger.Debug("snapshot archived", zap.String("user_id", userID), zap.String("blob_name", name))
	return name, nil
}

// ReadSnapshot loads an archived snapshot
func (a *SnapshotArchive) ReadSnapshot(ctx context.Context, blobName string) (*model.HealthDataSnapshot, error) {
	data, err := a.store.Get(ctx, blobName)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived snapshot: %w", err)
	}
	if a.sealer != nil {
		if data, err = a.sealer.Open(data); err != nil {
			return nil, fmt.Errorf("failed to open archived snapshot: %w", err)
		}
	}
	var snapshot model.HealthDataSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode archived snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListSnapshots returns the blob names archived for a user's day, oldest first
func (a *SnapshotArchive) ListSnapshots(ctx context.Context, userID string, date time.Time) ([]string, error) {
	names, err := a.store.List(ctx, snapshotPrefix(userID, date))
	if err != nil {
		return nil, fmt.Errorf("failed to list archived snapshots: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// LatestSnapshot reads the most recent snapshot archived for a user's day; nil when there is none
func (a *SnapshotArchive) LatestSnapshot(ctx context.Context, userID string, date time.Time) (*model.HealthDataSnapshot, error) {
	names, err := a.ListSnapshots(ctx, userID, date)
	if err != nil || len(names) == 0 {
		return nil, err
	}
	return a.ReadSnapshot(ctx, names[len(names)-1])
}

// NopArchive drops snapshots; used when blob storage is not configured
type NopArchive struct{}

// ArchiveSnapshot does nothing
func (NopArchive) ArchiveSnapshot(context.Context, string, time.Time, *model.HealthDataSnapshot) (string, error) {
	return "", nil
}
