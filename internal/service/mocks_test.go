package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/healthsource"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/repository"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

// Mock implementations for testing

type MockHealthSource struct {
	mock.Mock
}

func (m *MockHealthSource) SyncDay(ctx context.Context, userID string, day time.Time) (*healthsource.Outcome, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*healthsource.Outcome), args.Error(1)
}

type MockDailyRecordRepository struct {
	mock.Mock
}

func (m *MockDailyRecordRepository) GetRecord(ctx context.Context, userID string, date time.Time) (*model.DailyRecord, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyRecord), args.Error(1)
}

func (m *MockDailyRecordRepository) UpsertRecord(ctx context.Context, rec *model.DailyRecord, expectedVersion int64) error {
	args := m.Called(ctx, rec, expectedVersion)
	return args.Error(0)
}

type MockConnectionStatusRepository struct {
	mock.Mock
}

func (m *MockConnectionStatusRepository) GetConnectionStatus(ctx context.Context, userID string) (*model.ConnectionStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectionStatus), args.Error(1)
}

func (m *MockConnectionStatusRepository) UpsertConnectionStatus(ctx context.Context, status *model.ConnectionStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishSyncEvent(ctx context.Context, event model.SyncEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockSnapshotArchiver struct {
	mock.Mock
}

func (m *MockSnapshotArchiver) ArchiveSnapshot(ctx context.Context, userID string, date time.Time, snapshot *model.HealthDataSnapshot) (string, error) {
	args := m.Called(ctx, userID, date, snapshot)
	return args.String(0), args.Error(1)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(ctx context.Context, entry audit.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockCapability struct {
	mock.Mock
}

func (m *MockCapability) Platform() model.Platform {
	return model.PlatformIOS
}

func (m *MockCapability) IsAvailable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockCapability) RequestPermissions(ctx context.Context, userID string) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}

func (m *MockCapability) CheckPermissions(ctx context.Context, userID string) bool {
	args := m.Called(ctx, userID)
	return args.Bool(0)
}

func (m *MockCapability) SupportedMetrics() []model.Metric {
	return []model.Metric{model.MetricSteps}
}

func (m *MockCapability) QueryRange(ctx context.Context, userID string, metric model.Metric, start, end time.Time) ([]model.Sample, error) {
	args := m.Called(ctx, userID, metric, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Sample), args.Error(1)
}

// memoryRecords is a version-checked in-memory daily record store
type memoryRecords struct {
	mu      sync.Mutex
	records map[string]model.DailyRecord
	// conflicts forces that many upserts to fail with a version conflict
	conflicts int
	upserts   int
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{records: make(map[string]model.DailyRecord)}
}

func recordKey(userID string, date time.Time) string {
	return fmt.Sprintf("%s/%s", userID, date.Format(time.DateOnly))
}

func (r *memoryRecords) put(rec model.DailyRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	r.records[recordKey(rec.UserID, rec.RecordDate)] = rec
}

func (r *memoryRecords) get(userID string, date time.Time) *model.DailyRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordKey(userID, date)]
	if !ok {
		return nil
	}
	return &rec
}

func (r *memoryRecords) GetRecord(_ context.Context, userID string, date time.Time) (*model.DailyRecord, error) {
	return r.get(userID, date), nil
}

func (r *memoryRecords) UpsertRecord(_ context.Context, rec *model.DailyRecord, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++

	if r.conflicts > 0 {
		r.conflicts--
		return repository.ErrVersionConflict
	}

	key := recordKey(rec.UserID, rec.RecordDate)
	stored, exists := r.records[key]
	switch {
	case exists && stored.Version != expectedVersion:
		return repository.ErrVersionConflict
	case !exists && expectedVersion != 0:
		return repository.ErrVersionConflict
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Version = expectedVersion + 1
	r.records[key] = *rec
	return nil
}

// memoryStatuses is an in-memory connection status store
type memoryStatuses struct {
	mu       sync.Mutex
	statuses map[string]model.ConnectionStatus
	writes   int
}

func newMemoryStatuses() *memoryStatuses {
	return &memoryStatuses{statuses: make(map[string]model.ConnectionStatus)}
}

func (s *memoryStatuses) GetConnectionStatus(_ context.Context, userID string) (*model.ConnectionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *memoryStatuses) UpsertConnectionStatus(_ context.Context, status *model.ConnectionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.statuses[status.UserID] = *status
	return nil
}

func (s *memoryStatuses) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// countingRunner records how many syncs overlap
type countingRunner struct {
	delay       time.Duration
	success     bool
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (r *countingRunner) Sync(ctx context.Context, _ string, _ *time.Time) model.SyncResult {
	r.calls.Add(1)
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		peak := r.maxInFlight.Load()
		if n <= peak || r.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
	}

	mode := model.SyncModeNone
	if r.success {
		mode = model.SyncModeWearable
	}
	return model.SyncResult{Success: r.success, Mode: mode, Errors: []model.SyncError{}, Timestamp: time.Now()}
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
