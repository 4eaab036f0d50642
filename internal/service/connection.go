package service

import (
	"context"
	"sync"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/platform"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// ConnectionOutcome is the result of a lifecycle operation
type ConnectionOutcome struct {
	State model.ConnectionState `json:"state"`
	Sync  *model.SyncResult     `json:"sync,omitempty"`
	Error *model.SyncError      `json:"error,omitempty"`
}

// ConnectionService drives the wearable connection lifecycle per user.
// Live state is kept in memory and mirrored to the connection status row.
type ConnectionService struct {
	capability   platform.Capability
	orchestrator Orchestrator
	statuses     ConnectionStatusRepositoryInterface
	audit        AuditLoggerInterface
	logger       *zap.Logger

	mu     sync.Mutex
	states map[string]model.ConnectionState

	// serializes a user's status row writes against Disconnect
	users *userLocks

	availabilityOnce sync.Once
	unavailable      bool
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(
	capability platform.Capability,
	orchestrator Orchestrator,
	statuses ConnectionStatusRepositoryInterface,
	auditLogger AuditLoggerInterface,
	logger *zap.Logger,
) *ConnectionService {
	return &ConnectionService{
		capability:   capability,
		orchestrator: orchestrator,
		statuses:     statuses,
		audit:        auditLogger,
		logger:       logger,
		states:       make(map[string]model.ConnectionState),
		users:        newUserLocks(),
	}
}

// platformUnavailable runs the capability check once for the lifetime of the service
func (s *ConnectionService) platformUnavailable(ctx context.Context) bool {
	s.availabilityOnce.Do(func() {
		s.unavailable = !s.capability.IsAvailable(ctx)
		if s.unavailable {
			s.logger.Warn("health store unavailable, wearable sync disabled",
				zap.String("platform", string(s.capability.Platform())),
			)
		}
	})
	return s.unavailable
}

// Initialize seeds the user's live state: unavailable if the platform has no health store,
// connected if the user connected before and permissions still hold, disconnected otherwise.
// Detection runs outside the service lock; the first state installed for a user wins.
func (s *ConnectionService) Initialize(ctx context.Context, userID string) model.ConnectionState {
	s.mu.Lock()
	state, ok := s.states[userID]
	s.mu.Unlock()
	if ok {
		return state
	}

	detected := s.detect(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[userID]; ok {
		return state
	}
	s.states[userID] = detected
	return detected
}

func (s *ConnectionService) detect(ctx context.Context, userID string) model.ConnectionState {
	if s.platformUnavailable(ctx) {
		return model.ConnectionStateUnavailable
	}
	status, err := s.statuses.GetConnectionStatus(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load connection status, starting disconnected",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return model.ConnectionStateDisconnected
	}
	if status != nil && status.PreviouslyConnected && s.capability.CheckPermissions(ctx, userID) {
		return model.ConnectionStateConnected
	}
	return model.ConnectionStateDisconnected
}

// State returns the user's live connection state, initializing it on first use
func (s *ConnectionService) State(ctx context.Context, userID string) model.ConnectionState {
	return s.Initialize(ctx, userID)
}

func (s *ConnectionService) transition(userID string, to model.ConnectionState) {
	from := s.states[userID]
	s.states[userID] = to
	s.logger.Debug("connection state changed",
		zap.String("user_id", userID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}

func invalidState(state model.ConnectionState, op string) *model.SyncError {
	return model.NewSyncError(model.ErrorInvalidState, "%s is not allowed while %s", op, state)
}

// Connect requests permissions and runs a test sync. Allowed from disconnected and error_permissions.
func (s *ConnectionService) Connect(ctx context.Context, userID string) ConnectionOutcome {
	return s.connect(ctx, userID, "connect", model.ConnectionStateDisconnected, model.ConnectionStateErrorPermissions)
}

// Reconnect re-runs the permission and test-sync path after a sync error
func (s *ConnectionService) Reconnect(ctx context.Context, userID string) ConnectionOutcome {
	return s.connect(ctx, userID, "reconnect", model.ConnectionStateErrorSync)
}

// begin moves the user into via if the current state is one of from
func (s *ConnectionService) begin(ctx context.Context, userID string, via model.ConnectionState, from ...model.ConnectionState) (model.ConnectionState, bool) {
	s.Initialize(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[userID]
	for _, allowed := range from {
		if state == allowed {
			s.transition(userID, via)
			return via, true
		}
	}
	return state, false
}

// finish moves the user out of via; it reports false when a disconnect overtook the operation
func (s *ConnectionService) finish(userID string, via, to model.ConnectionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.states[userID] != via {
		return false
	}
	s.transition(userID, to)
	return true
}

// commit is finish followed by the status row write. Disconnect takes the same user lock,
// so a disconnect either overtakes the operation or lands after its write.
func (s *ConnectionService) commit(ctx context.Context, userID string, via, to model.ConnectionState, mutate func(*model.ConnectionStatus)) bool {
	release := s.users.lock(userID)
	defer release()

	if !s.finish(userID, via, to) {
		return false
	}
	if mutate != nil {
		s.saveStatus(ctx, userID, mutate)
	}
	return true
}

func (s *ConnectionService) connect(ctx context.Context, userID, op string, from ...model.ConnectionState) ConnectionOutcome {
	state, ok := s.begin(ctx, userID, model.ConnectionStateConnecting, from...)
	if !ok {
		return ConnectionOutcome{State: state, Error: invalidState(state, op)}
	}

	if !s.capability.RequestPermissions(ctx, userID) {
		denied := model.NewSyncError(model.ErrorPermissionsRevoked, "health store permissions were denied")
		committed := s.commit(ctx, userID, model.ConnectionStateConnecting, model.ConnectionStateErrorPermissions, func(st *model.ConnectionStatus) {
			st.IsConnected = false
			st.PermissionsGranted = false
			st.State = model.ConnectionStateErrorPermissions
			st.LastError = &denied.Message
		})
		if !committed {
			return ConnectionOutcome{State: s.State(ctx, userID), Error: denied}
		}
		s.logger.Info("wearable connect denied", zap.String("user_id", userID))
		return ConnectionOutcome{State: model.ConnectionStateErrorPermissions, Error: denied}
	}

	result := s.orchestrator.Run(ctx, userID, nil)
	if failure := hardFailure(result); failure != nil {
		committed := s.commit(ctx, userID, model.ConnectionStateConnecting, model.ConnectionStateErrorSync, func(st *model.ConnectionStatus) {
			st.IsConnected = false
			st.PermissionsGranted = true
			st.State = model.ConnectionStateErrorSync
			st.LastError = &failure.Message
		})
		if !committed {
			return ConnectionOutcome{State: s.State(ctx, userID), Sync: &result, Error: failure}
		}
		s.logger.Warn("wearable test sync failed",
			zap.String("user_id", userID),
			zap.String("error_type", string(failure.Type)),
		)
		return ConnectionOutcome{State: model.ConnectionStateErrorSync, Sync: &result, Error: failure}
	}

	committed := s.commit(ctx, userID, model.ConnectionStateConnecting, model.ConnectionStateConnected, func(st *model.ConnectionStatus) {
		if result.WearablePersisted() {
			st.RecordSync(result.Timestamp, s.capability.Platform(), result.Data)
		}
		st.IsConnected = true
		st.PermissionsGranted = true
		st.PreviouslyConnected = true
		st.State = model.ConnectionStateConnected
		st.LastError = nil
	})
	if !committed {
		return ConnectionOutcome{State: s.State(ctx, userID), Sync: &result}
	}
	s.auditConnection(ctx, userID, audit.OperationCreate, model.ConnectionStateConnected)

	s.logger.Info("wearable connected",
		zap.String("user_id", userID),
		zap.String("platform", string(s.capability.Platform())),
		zap.String("test_sync_mode", string(result.Mode)),
	)
	return ConnectionOutcome{State: model.ConnectionStateConnected, Sync: &result}
}

// Sync runs one orchestrated sync. Only a connected user can sync; any other state yields INVALID_STATE.
func (s *ConnectionService) Sync(ctx context.Context, userID string, date *time.Time) model.SyncResult {
	state, ok := s.begin(ctx, userID, model.ConnectionStateSyncing, model.ConnectionStateConnected)
	if !ok {
		return model.SyncResult{
			Success:   false,
			Errors:    []model.SyncError{*invalidState(state, "sync")},
			Mode:      model.SyncModeNone,
			Timestamp: time.Now(),
		}
	}

	result := s.orchestrator.Run(ctx, userID, date)

	failure := hardFailure(result)
	if failure == nil {
		var record func(*model.ConnectionStatus)
		if result.WearablePersisted() {
			record = func(st *model.ConnectionStatus) {
				st.RecordSync(result.Timestamp, s.capability.Platform(), result.Data)
			}
		}
		s.commit(ctx, userID, model.ConnectionStateSyncing, model.ConnectionStateConnected, record)
		return result
	}
	committed := s.commit(ctx, userID, model.ConnectionStateSyncing, model.ConnectionStateErrorSync, func(st *model.ConnectionStatus) {
		st.IsConnected = false
		st.State = model.ConnectionStateErrorSync
		st.LastError = &failure.Message
		if failure.Type == model.ErrorPermissionsRevoked {
			st.PermissionsGranted = false
		}
	})
	if !committed {
		return result
	}
	s.logger.Warn("wearable sync failed",
		zap.String("user_id", userID),
		zap.String("error_type", string(failure.Type)),
	)
	return result
}

// Disconnect clears the connection flags. From any state but unavailable the user ends up disconnected;
// an unavailable platform stays unavailable because capability detection is not re-run.
// An in-flight connect or sync that finishes afterwards leaves the cleared row alone.
func (s *ConnectionService) Disconnect(ctx context.Context, userID string) model.ConnectionState {
	s.Initialize(ctx, userID)

	release := s.users.lock(userID)
	s.mu.Lock()
	state := s.states[userID]
	if state != model.ConnectionStateUnavailable {
		s.transition(userID, model.ConnectionStateDisconnected)
	}
	s.mu.Unlock()

	s.saveStatus(ctx, userID, func(st *model.ConnectionStatus) {
		st.IsConnected = false
		st.PermissionsGranted = false
		st.PreviouslyConnected = false
		st.State = model.ConnectionStateDisconnected
		st.LastError = nil
	})
	release()
	s.auditConnection(ctx, userID, audit.OperationDelete, model.ConnectionStateDisconnected)

	if state == model.ConnectionStateUnavailable {
		return state
	}
	s.logger.Info("wearable disconnected", zap.String("user_id", userID), zap.String("from", string(state)))
	return model.ConnectionStateDisconnected
}

// saveStatus applies mutate to the stored status (or a fresh one) and upserts it
func (s *ConnectionService) saveStatus(ctx context.Context, userID string, mutate func(*model.ConnectionStatus)) {
	status, err := s.statuses.GetConnectionStatus(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load connection status", zap.Error(err), zap.String("user_id", userID))
	}
	if status == nil {
		status = &model.ConnectionStatus{UserID: userID, DeviceType: string(s.capability.Platform())}
	}
	status.Platform = s.capability.Platform()
	mutate(status)

	if err := s.statuses.UpsertConnectionStatus(ctx, status); err != nil {
		s.logger.Error("failed to save connection status",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("state", string(status.State)),
		)
	}
}

func (s *ConnectionService) auditConnection(ctx context.Context, userID string, op audit.OperationType, state model.ConnectionState) {
	err := s.audit.Log(ctx, audit.AuditLog{
		UserID:        userID,
		OperationType: op,
		ResourceType:  audit.ResourceWearableConnection,
		ResourceID:    userID,
		AdditionalData: map[string]interface{}{
			"platform": s.capability.Platform(),
			"state":    state,
		},
	})
	if err != nil {
		s.logger.Warn("failed to audit connection change", zap.Error(err), zap.String("user_id", userID))
	}
}

// hardFailure returns the wearable failure that puts a connection into error_sync.
// NO_DATA_AVAILABLE is not one: the device answered, it just had nothing new.
func hardFailure(result model.SyncResult) *model.SyncError {
	for i := range result.Errors {
		switch result.Errors[i].Type {
		case model.ErrorSyncTimeout, model.ErrorPermissionsRevoked, model.ErrorDeviceNotFound, model.ErrorSyncFailed:
			e := result.Errors[i]
			return &e
		}
	}
	return nil
}
