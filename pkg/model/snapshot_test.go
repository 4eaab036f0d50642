package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }
func floatPtr(f float64) *float64 { return &f }
func stringPtr(s string) *string { return &s }

func TestHealthDataSnapshot_HasData(t *testing.T) {
	var nilSnapshot *HealthDataSnapshot
	assert.False(t, nilSnapshot.HasData())

	metadataOnly := &HealthDataSnapshot{Source: "Apple Watch", SyncedAt: time.Now(), DeviceName: stringPtr("Apple Watch")}
	assert.False(t, metadataOnly.HasData())
	assert.Equal(t, 0, metadataOnly.MetricFieldCount())

	withSteps := &HealthDataSnapshot{Source: "Apple Watch", SyncedAt: time.Now(), Steps: intPtr(8000)}
	assert.True(t, withSteps.HasData())
	assert.Equal(t, 1, withSteps.MetricFieldCount())
}

func TestSnapshotFromRecord_ConvertsSleepHours(t *testing.T) {
	record := &DailyRecord{
		UserID:       "user-123",
		RecordDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		SleepHours:   floatPtr(7),
		WaterGlasses: intPtr(6),
	}
	now := time.Now()

	snapshot := SnapshotFromRecord(record, now)

	require.NotNil(t, snapshot.SleepDurationMinutes)
	assert.Equal(t, 420, *snapshot.SleepDurationMinutes)
	assert.Equal(t, SourceManual, snapshot.Source)
	assert.Equal(t, now, snapshot.SyncedAt)
	assert.Nil(t, snapshot.Steps)
}

func TestRecordFieldsFromSnapshot_OnlyPopulatedFields(t *testing.T) {
	snapshot := &HealthDataSnapshot{
		Steps:                intPtr(5000),
		SleepDurationMinutes: intPtr(455),
		Source:               "Pixel Watch",
	}

	fields := RecordFieldsFromSnapshot(snapshot)

	require.NotNil(t, fields.Steps)
	assert.Equal(t, 5000, *fields.Steps)
	require.NotNil(t, fields.SleepHours)
	assert.Equal(t, 7.6, *fields.SleepHours)
	assert.Nil(t, fields.BasalBodyTemperature)
	assert.Nil(t, fields.WaterGlasses)
	assert.Nil(t, fields.Mood)
}

func TestDailyRecord_ApplyPreservesUntouchedFields(t *testing.T) {
	record := &DailyRecord{
		SleepHours:   floatPtr(6),
		WaterGlasses: intPtr(6),
		Mood:         stringPtr("good"),
	}

	changed := record.Apply(RecordFields{Steps: intPtr(5000)})

	assert.Equal(t, 1, changed)
	require.NotNil(t, record.Steps)
	assert.Equal(t, 5000, *record.Steps)
	assert.Equal(t, 6.0, *record.SleepHours)
	assert.Equal(t, 6, *record.WaterGlasses)
	assert.Equal(t, "good", *record.Mood)
}

func TestDailyRecord_ApplyCopiesValues(t *testing.T) {
	steps := 100
	record := &DailyRecord{}
	record.Apply(RecordFields{Steps: &steps})

	steps = 200
	assert.Equal(t, 100, *record.Steps)
}

func TestSyncResult_HasErrorType(t *testing.T) {
	result := SyncResult{Errors: []SyncError{{Type: ErrorSyncTimeout, Message: "timed out"}}}

	assert.True(t, result.HasErrorType(ErrorSyncTimeout))
	assert.False(t, result.HasErrorType(ErrorPermissionsRevoked))
}

func TestSyncError_Error(t *testing.T) {
	err := NewSyncError(ErrorNoDataAvailable, "no samples for %s", "2026-03-01")
	assert.Equal(t, "NO_DATA_AVAILABLE: no samples for 2026-03-01", err.Error())
}

func TestSyncResult_WearablePersisted(t *testing.T) {
	tests := []struct {
		name   string
		result SyncResult
		want   bool
	}{
		{"wearable", SyncResult{Mode: SyncModeWearable}, true},
		{"hybrid", SyncResult{Mode: SyncModeHybrid}, true},
		{"manual", SyncResult{Mode: SyncModeManual}, false},
		{"none", SyncResult{Mode: SyncModeNone}, false},
		{"wearable not stored", SyncResult{Mode: SyncModeWearable, Errors: []SyncError{{Type: ErrorPersistenceFailed}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.WearablePersisted())
		})
	}
}

func TestConnectionStatus_RecordSync(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	lastError := "timeout"
	status := &ConnectionStatus{UserID: "user-123", State: ConnectionStateErrorSync, LastError: &lastError}

	status.RecordSync(at, PlatformAndroid, &HealthDataSnapshot{Source: "Health Connect", SyncedAt: at})

	assert.True(t, status.IsConnected)
	assert.True(t, status.PermissionsGranted)
	assert.Equal(t, ConnectionStateConnected, status.State)
	assert.Nil(t, status.LastError)
	require.NotNil(t, status.LastSync)
	assert.Equal(t, at, *status.LastSync)
	assert.Equal(t, "Health Connect", status.DeviceType)

	status.RecordSync(at, PlatformAndroid, &HealthDataSnapshot{Source: "Health Connect", DeviceName: stringPtr("Pixel Watch")})
	assert.Equal(t, "Pixel Watch", status.DeviceType)

	status.RecordSync(at, PlatformAndroid, nil)
	assert.Equal(t, "Pixel Watch", status.DeviceType)
}
