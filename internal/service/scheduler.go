package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

const (
	// DefaultSyncInterval is used when no interval is configured
	DefaultSyncInterval = 30 * time.Minute
	// DefaultIdleReset is how long a settled status stays visible before returning to idle
	DefaultIdleReset = 3 * time.Second
)

// SchedulerStatus is the UI-facing state of a user's auto-sync session
type SchedulerStatus string

const (
	SchedulerIdle    SchedulerStatus = "idle"
	SchedulerSyncing SchedulerStatus = "syncing"
	SchedulerSuccess SchedulerStatus = "success"
	SchedulerError   SchedulerStatus = "error"
)

type session struct {
	lock *SessionLock

	// guarded by Scheduler.mu
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status SchedulerStatus
	reset  *time.Timer
	last   *model.SyncResult
}

func (s *session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reset != nil {
		s.reset.Stop()
		s.reset = nil
	}
	s.status = SchedulerSyncing
}

func (s *session) settle(result model.SyncResult, idleReset time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = SchedulerError
	if result.Success {
		s.status = SchedulerSuccess
	}
	s.last = &result

	var timer *time.Timer
	timer = time.AfterFunc(idleReset, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.reset == timer {
			s.status = SchedulerIdle
			s.reset = nil
		}
	})
	s.reset = timer
}

// Scheduler runs periodic syncs per user session and guards them against manual triggers
type Scheduler struct {
	runner    SyncRunner
	statuses  ConnectionStatusRepositoryInterface
	enabled   bool
	interval  time.Duration
	idleReset time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewScheduler creates a new Scheduler
func NewScheduler(
	runner SyncRunner,
	statuses ConnectionStatusRepositoryInterface,
	enabled bool,
	interval time.Duration,
	idleReset time.Duration,
	logger *zap.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if idleReset <= 0 {
		idleReset = DefaultIdleReset
	}
	return &Scheduler{
		runner:    runner,
		statuses:  statuses,
		enabled:   enabled,
		interval:  interval,
		idleReset: idleReset,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
}

func (s *Scheduler) sessionLocked(userID string) *session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{lock: NewSessionLock(), status: SchedulerIdle}
		s.sessions[userID] = sess
	}
	return sess
}

// evictLocked drops the user's session once no loop runs and no sync holds its lock
func (s *Scheduler) evictLocked(userID string) bool {
	sess, ok := s.sessions[userID]
	if !ok || sess.cancel != nil || !sess.lock.TryLock() {
		return false
	}
	sess.lock.Unlock()
	delete(s.sessions, userID)
	return true
}

// Start activates auto-sync for the user: one sync right away, then one per interval.
// It reports false without error when auto-sync is disabled or the user never connected a wearable.
// The loop outlives ctx's cancellation and ends only through Stop.
func (s *Scheduler) Start(ctx context.Context, userID string) (bool, error) {
	if !s.enabled {
		s.logger.Debug("auto-sync disabled", zap.String("user_id", userID))
		return false, nil
	}

	status, err := s.statuses.GetConnectionStatus(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to read connection status: %w", err)
	}
	if status == nil || !status.PreviouslyConnected {
		s.logger.Debug("auto-sync not started, no wearable connected before", zap.String("user_id", userID))
		return false, nil
	}

	s.mu.Lock()
	sess := s.sessionLocked(userID)
	if sess.cancel != nil {
		s.mu.Unlock()
		return true, nil
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	sess.cancel = cancel
	sess.done = done
	s.mu.Unlock()

	go s.loop(loopCtx, userID, sess, done)

	s.logger.Info("auto-sync started",
		zap.String("user_id", userID),
		zap.Duration("interval", s.interval),
	)
	return true, nil
}

func (s *Scheduler) loop(ctx context.Context, userID string, sess *session, done chan struct{}) {
	defer close(done)

	s.run(ctx, userID, sess, nil)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, userID, sess, nil)
		}
	}
}

// run performs one sync unless one is already in flight for the session
func (s *Scheduler) run(ctx context.Context, userID string, sess *session, date *time.Time) (model.SyncResult, bool) {
	if !sess.lock.TryLock() {
		s.logger.Debug("sync already in progress, skipping", zap.String("user_id", userID))
		return model.SyncResult{}, false
	}
	return s.execute(ctx, userID, sess, date), true
}

// execute runs the sync on a session whose lock the caller already holds
func (s *Scheduler) execute(ctx context.Context, userID string, sess *session, date *time.Time) model.SyncResult {
	defer sess.lock.Unlock()

	sess.begin()
	result := s.runner.Sync(ctx, userID, date)
	sess.settle(result, s.idleReset)

	return result
}

// TriggerNow runs a sync immediately. It reports false when a sync for the session is already running.
func (s *Scheduler) TriggerNow(ctx context.Context, userID string, date *time.Time) (model.SyncResult, bool) {
	// the lock is taken under s.mu so Stop cannot evict the session in between
	s.mu.Lock()
	sess := s.sessionLocked(userID)
	acquired := sess.lock.TryLock()
	s.mu.Unlock()

	if !acquired {
		s.logger.Debug("sync already in progress, skipping", zap.String("user_id", userID))
		return model.SyncResult{}, false
	}
	return s.execute(ctx, userID, sess, date), true
}

// Stop ends the user's auto-sync loop and waits for it to exit. It reports whether a loop was running.
// The session itself is dropped unless a manual sync still holds it.
func (s *Scheduler) Stop(userID string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok || sess.cancel == nil {
		s.evictLocked(userID)
		s.mu.Unlock()
		return false
	}
	cancel, done := sess.cancel, sess.done
	sess.cancel = nil
	sess.done = nil
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.evictLocked(userID)
	s.mu.Unlock()

	s.logger.Info("auto-sync stopped", zap.String("user_id", userID))
	return true
}

// StopAll ends every running loop; used on shutdown
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	users := make([]string, 0, len(s.sessions))
	for userID := range s.sessions {
		users = append(users, userID)
	}
	s.mu.Unlock()

	for _, userID := range users {
		s.Stop(userID)
	}
}

// Running reports whether the user's auto-sync loop is active
func (s *Scheduler) Running(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return ok && sess.cancel != nil
}

// Status returns the user's scheduler status and the result of the last sync, if any
func (s *Scheduler) Status(userID string) (SchedulerStatus, *model.SyncResult) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return SchedulerIdle, nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.status, sess.last
}
