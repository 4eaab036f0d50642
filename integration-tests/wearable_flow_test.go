package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/events"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/service"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/api"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

// TestWearableSyncIntegration walks a user from first upload through connect, sync, manual edit and disconnect
func TestWearableSyncIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := setupTestDatabase(t, ctx)
	defer cleanup()

	env := newTestEnv(t, db)
	userID := uuid.NewString()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	t.Run("Connect and sync from uploaded samples", func(t *testing.T) {
		t.Log("Step 1: Device reports granted permissions")
		w := env.do(t, "PUT", "/api/v1/wearable/permissions",
			fmt.Sprintf(`{"user_id":"%s","platform":"ios","granted":true}`, userID))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		t.Log("Step 2: Device uploads steps and sleep")
		uploadSamples(t, env, userID, today)

		t.Log("Step 3: Re-uploading the same samples is deduplicated")
		w = env.do(t, "POST", "/api/v1/wearable/samples", samplesBody(userID, today))
		require.Equal(t, http.StatusCreated, w.Code)
		var upload api.SamplesUploadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))
		assert.Equal(t, 3, upload.Received)
		assert.Equal(t, 0, upload.Stored)

		t.Log("Step 4: Connect runs the test sync")
		w = env.do(t, "POST", "/api/v1/wearable/connect", fmt.Sprintf(`{"user_id":"%s"}`, userID))
		require.Equal(t, http.StatusOK, w.Code)
		var conn api.ConnectionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conn))
		assert.Equal(t, model.ConnectionStateConnected, conn.State)
		require.NotNil(t, conn.Sync)
		assert.True(t, conn.Sync.Success)
		assert.Equal(t, model.SyncModeWearable, conn.Sync.Mode)

		t.Log("Step 5: Daily record holds the wearable values")
		rec := getRecord(t, env, userID, "")
		require.NotNil(t, rec.Steps)
		assert.Equal(t, 7000, *rec.Steps)
		require.NotNil(t, rec.SleepDeepMinutes)
		assert.Equal(t, 90, *rec.SleepDeepMinutes)
		assert.Equal(t, model.DataSourceWearable, rec.DataSource)

		t.Log("Step 6: Snapshot archived and event published")
		archived, err := env.archive.LatestSnapshot(ctx, userID, service.RecordDate(time.Now(), time.UTC))
		require.NoError(t, err)
		require.NotNil(t, archived)
		assert.Equal(t, 7000, *archived.Steps)
		client := events.NewRedisClient(env.redis.Addr(), "", 0)
		defer client.Close()
		messages, err := client.XRange(ctx, events.DefaultStream, "-", "+").Result()
		require.NoError(t, err)
		require.NotEmpty(t, messages)
		assert.Equal(t, userID, messages[0].Values["user_id"])
	})

	t.Run("Manual entry on top of wearable data is hybrid", func(t *testing.T) {
		w := env.do(t, "PUT", "/api/v1/records",
			fmt.Sprintf(`{"user_id":"%s","water_glasses":7,"mood":"rested"}`, userID))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		rec := getRecord(t, env, userID, today.Format(time.DateOnly))
		assert.Equal(t, model.DataSourceHybrid, rec.DataSource)
		assert.Equal(t, 7, *rec.WaterGlasses)
		assert.Equal(t, 7000, *rec.Steps, "manual entry leaves wearable fields alone")

		t.Log("A later wearable sync keeps the manual fields")
		w = env.do(t, "POST", "/api/v1/wearable/sync", fmt.Sprintf(`{"user_id":"%s"}`, userID))
		require.Equal(t, http.StatusOK, w.Code)
		var result model.SyncResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, model.SyncModeHybrid, result.Mode)

		rec = getRecord(t, env, userID, "")
		assert.Equal(t, 7, *rec.WaterGlasses)
		assert.Equal(t, "rested", *rec.Mood)
	})

	t.Run("Status reflects the connection", func(t *testing.T) {
		w := env.do(t, "GET", "/api/v1/wearable/status?user_id="+userID, "")
		require.Equal(t, http.StatusOK, w.Code)

		var status api.StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, model.ConnectionStateConnected, status.State)
		require.NotNil(t, status.Connection)
		assert.True(t, status.Connection.IsConnected)
		assert.True(t, status.Connection.PreviouslyConnected)
		assert.NotNil(t, status.Connection.LastSync)
	})

	t.Run("Auto-sync starts for a previously connected user", func(t *testing.T) {
		w := env.do(t, "POST", "/api/v1/wearable/scheduler/start", fmt.Sprintf(`{"user_id":"%s"}`, userID))
		require.Equal(t, http.StatusOK, w.Code)
		var sched api.SchedulerResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sched))
		assert.True(t, sched.Running)
		assert.True(t, env.scheduler.Running(userID))
	})

	t.Run("Disconnect clears the connection and blocks sync", func(t *testing.T) {
		w := env.do(t, "POST", "/api/v1/wearable/disconnect", fmt.Sprintf(`{"user_id":"%s"}`, userID))
		require.Equal(t, http.StatusOK, w.Code)
		var conn api.ConnectionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conn))
		assert.Equal(t, model.ConnectionStateDisconnected, conn.State)
		assert.False(t, env.scheduler.Running(userID))

		w = env.do(t, "POST", "/api/v1/wearable/sync", fmt.Sprintf(`{"user_id":"%s"}`, userID))
		require.Equal(t, http.StatusOK, w.Code)
		var result model.SyncResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.False(t, result.Success)
		assert.True(t, result.HasErrorType(model.ErrorInvalidState))

		var isConnected, previouslyConnected bool
		err := db.QueryRow(ctx,
			"SELECT is_connected, previously_connected FROM wearable_connections WHERE user_id = $1", userID,
		).Scan(&isConnected, &previouslyConnected)
		require.NoError(t, err)
		assert.False(t, isConnected)
		assert.False(t, previouslyConnected)
	})
}

// TestPermissionDeniedIntegration covers a user who never grants access
func TestPermissionDeniedIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := setupTestDatabase(t, ctx)
	defer cleanup()

	env := newTestEnv(t, db)
	userID := uuid.NewString()

	w := env.do(t, "PUT", "/api/v1/wearable/permissions",
		fmt.Sprintf(`{"user_id":"%s","platform":"ios","granted":false}`, userID))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "POST", "/api/v1/wearable/connect", fmt.Sprintf(`{"user_id":"%s"}`, userID))
	require.Equal(t, http.StatusOK, w.Code)

	var conn api.ConnectionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conn))
	assert.Equal(t, model.ConnectionStateErrorPermissions, conn.State)
	require.NotNil(t, conn.Error)
	assert.Equal(t, model.ErrorPermissionsRevoked, conn.Error.Type)

	w = env.do(t, "POST", "/api/v1/wearable/scheduler/start", fmt.Sprintf(`{"user_id":"%s"}`, userID))
	require.Equal(t, http.StatusOK, w.Code)
	var sched api.SchedulerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sched))
	assert.False(t, sched.Running, "auto-sync needs a previous successful connection")

	w = env.do(t, "GET", "/api/v1/records?user_id="+userID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestOutOfRangeManualEntryIntegration stores an implausible manual value and reports it instead of failing
func TestOutOfRangeManualEntryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := setupTestDatabase(t, ctx)
	defer cleanup()

	env := newTestEnv(t, db)
	userID := uuid.NewString()

	w := env.do(t, "PUT", "/api/v1/records", fmt.Sprintf(`{"user_id":"%s","sleep_quality":7}`, userID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Validation)
	assert.False(t, resp.Validation.IsValid)
	assert.NotEmpty(t, resp.Validation.Errors)

	rec := getRecord(t, env, userID, "")
	require.NotNil(t, rec.SleepQuality)
	assert.Equal(t, 7, *rec.SleepQuality)
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	e.router.ServeHTTP(w, req)
	return w
}

func samplesBody(userID string, day time.Time) string {
	at := func(h, m int) string {
		return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute).Format(time.RFC3339)
	}
	samples := []string{
		fmt.Sprintf(`{"data_type":"HKQuantityTypeIdentifierStepCount","value":4000,"unit":"count","start_at":"%s","end_at":"%s","source_id":"steps-1","device_name":"Apple Watch"}`, at(0, 5), at(0, 35)),
		fmt.Sprintf(`{"data_type":"HKQuantityTypeIdentifierStepCount","value":3000,"unit":"count","start_at":"%s","end_at":"%s","source_id":"steps-2","device_name":"Apple Watch"}`, at(0, 40), at(0, 55)),
		fmt.Sprintf(`{"data_type":"HKCategoryTypeIdentifierSleepAnalysis","value":0,"unit":"","stage_code":4,"start_at":"%s","end_at":"%s","source_id":"sleep-1","device_name":"Apple Watch"}`, at(0, 1), at(1, 31)),
	}
	return fmt.Sprintf(`{"user_id":"%s","platform":"ios","samples":[%s]}`, userID, strings.Join(samples, ","))
}

func uploadSamples(t *testing.T, env *testEnv, userID string, day time.Time) {
	t.Helper()
	w := env.do(t, "POST", "/api/v1/wearable/samples", samplesBody(userID, day))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.SamplesUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Received)
	assert.Equal(t, 3, resp.Stored)
}

func getRecord(t *testing.T, env *testEnv, userID, date string) *model.DailyRecord {
	t.Helper()
	path := "/api/v1/records?user_id=" + userID
	if date != "" {
		path += "&date=" + date
	}
	w := env.do(t, "GET", path, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Record)
	return resp.Record
}
