package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/service"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

type MockConnectionService struct {
	mock.Mock
}

func (m *MockConnectionService) Connect(ctx context.Context, userID string) service.ConnectionOutcome {
	args := m.Called(ctx, userID)
	return args.Get(0).(service.ConnectionOutcome)
}

func (m *MockConnectionService) Reconnect(ctx context.Context, userID string) service.ConnectionOutcome {
	args := m.Called(ctx, userID)
	return args.Get(0).(service.ConnectionOutcome)
}

func (m *MockConnectionService) Disconnect(ctx context.Context, userID string) model.ConnectionState {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.ConnectionState)
}

func (m *MockConnectionService) State(ctx context.Context, userID string) model.ConnectionState {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.ConnectionState)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Start(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduler) Stop(userID string) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

func (m *MockScheduler) Running(userID string) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

func (m *MockScheduler) TriggerNow(ctx context.Context, userID string, date *time.Time) (model.SyncResult, bool) {
	args := m.Called(ctx, userID, date)
	return args.Get(0).(model.SyncResult), args.Bool(1)
}

func (m *MockScheduler) Status(userID string) (service.SchedulerStatus, *model.SyncResult) {
	args := m.Called(userID)
	if args.Get(1) == nil {
		return args.Get(0).(service.SchedulerStatus), nil
	}
	return args.Get(0).(service.SchedulerStatus), args.Get(1).(*model.SyncResult)
}

type MockStatusReader struct {
	mock.Mock
}

func (m *MockStatusReader) GetConnectionStatus(ctx context.Context, userID string) (*model.ConnectionStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConnectionStatus), args.Error(1)
}

type MockHealthDataStore struct {
	mock.Mock
}

func (m *MockHealthDataStore) SaveSamples(ctx context.Context, userID string, platform model.Platform, samples []model.RawSample) (int, error) {
	args := m.Called(ctx, userID, platform, samples)
	return args.Int(0), args.Error(1)
}

func (m *MockHealthDataStore) SavePermissionGrant(ctx context.Context, userID string, platform model.Platform, granted bool) error {
	args := m.Called(ctx, userID, platform, granted)
	return args.Error(0)
}

type MockRecordService struct {
	mock.Mock
}

func (m *MockRecordService) GetRecord(ctx context.Context, userID string, date time.Time) (*model.DailyRecord, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyRecord), args.Error(1)
}

func (m *MockRecordService) SaveManual(ctx context.Context, userID string, date time.Time, fields model.RecordFields) (*model.DailyRecord, error) {
	args := m.Called(ctx, userID, date, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyRecord), args.Error(1)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(ctx context.Context, entry audit.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
