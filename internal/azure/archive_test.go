package azure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/security"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) error {
	return errors.New("container missing")
}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("container missing")
}

func (failingStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("container missing")
}

func TestSnapshotBlobName(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	syncedAt := time.Unix(1773133200, 0)

	assert.Equal(t, "snapshots/user-1/2026-03-10/1773133200.json", SnapshotBlobName("user-1", date, syncedAt))
}

func TestSnapshotArchive_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	archive := NewSnapshotArchive(store, zap.NewNop())
	ctx := context.Background()

	steps := 7500
	device := "Apple Watch"
	snapshot := &model.HealthDataSnapshot{
		Steps:      &steps,
		Source:     "Apple Health",
		DeviceName: &device,
		SyncedAt:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	name, err := archive.ArchiveSnapshot(ctx, "user-1", date, snapshot)
	require.NoError(t, err)
	assert.Contains(t, name, "snapshots/user-1/2026-03-10/")
	assert.Equal(t, "application/json", store.ContentType(name))

	got, err := archive.ReadSnapshot(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
}

func TestSnapshotArchive_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewSnapshotArchive(NewMemoryStore(), zap.NewNop()).ArchiveSnapshot(ctx, "u", time.Now(), nil)
	assert.Error(t, err)

	archive := NewSnapshotArchive(failingStore{}, zap.NewNop())
	_, err = archive.ArchiveSnapshot(ctx, "u", time.Now(), &model.HealthDataSnapshot{Source: "x"})
	assert.ErrorContains(t, err, "failed to archive snapshot")

	_, err = archive.ReadSnapshot(ctx, "snapshots/u/x.json")
	assert.ErrorContains(t, err, "failed to read archived snapshot")

	_, err = archive.LatestSnapshot(ctx, "u", time.Now())
	assert.ErrorContains(t, err, "failed to list archived snapshots")

	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "bad.json", []byte("not json"), "application/json"))
	_, err = NewSnapshotArchive(store, zap.NewNop()).ReadSnapshot(ctx, "bad.json")
	assert.ErrorContains(t, err, "failed to decode archived snapshot")
}

func TestNopArchive(t *testing.T) {
	name, err := NopArchive{}.ArchiveSnapshot(context.Background(), "u", time.Now(), &model.HealthDataSnapshot{})
	assert.NoError(t, err)
	assert.Empty(t, name)
}

func TestSnapshotArchive_Sealed(t *testing.T) {
	sealer, err := security.NewSealer([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	store := NewMemoryStore()
	archive := NewSnapshotArchive(store, zap.NewNop()).WithSealer(sealer)
	ctx := context.Background()

	steps := 4200
	snapshot := &model.HealthDataSnapshot{
		Steps:    &steps,
		Source:   "Pixel Watch",
		SyncedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	name, err := archive.ArchiveSnapshot(ctx, "user-1", snapshot.SyncedAt, snapshot)
	require.NoError(t, err)

	raw, err := store.Get(ctx, name)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Pixel Watch")
	assert.Equal(t, "application/octet-stream", store.ContentType(name))

	got, err := archive.ReadSnapshot(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)

	_, err = NewSnapshotArchive(store, zap.NewNop()).ReadSnapshot(ctx, name)
	assert.ErrorContains(t, err, "failed to decode archived snapshot")
}

func TestSnapshotArchive_LatestSnapshot(t *testing.T) {
	store := NewMemoryStore()
	archive := NewSnapshotArchive(store, zap.NewNop())
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	none, err := archive.LatestSnapshot(ctx, "user-1", date)
	require.NoError(t, err)
	assert.Nil(t, none)

	for i, steps := range []int{1000, 2500, 6100} {
		steps := steps
		_, err := archive.ArchiveSnapshot(ctx, "user-1", date, &model.HealthDataSnapshot{
			Steps:    &steps,
			Source:   "Apple Health",
			SyncedAt: date.Add(time.Duration(8+i) * time.Hour),
		})
		require.NoError(t, err)
	}
	other := 99
	_, err = archive.ArchiveSnapshot(ctx, "user-2", date, &model.HealthDataSnapshot{Steps: &other, SyncedAt: date})
	require.NoError(t, err)

	names, err := archive.ListSnapshots(ctx, "user-1", date)
	require.NoError(t, err)
	assert.Len(t, names, 3)

	latest, err := archive.LatestSnapshot(ctx, "user-1", date)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 6100, *latest.Steps)
}
