// Package healthsource turns per-metric health store queries into one daily snapshot.
package healthsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/platform"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/validator"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds one attempt at reading a day of data
	DefaultTimeout = 10 * time.Second
	// maxAttempts is the first attempt plus one immediate retry on timeout
	maxAttempts = 2
)

// Outcome is a successful day read
type Outcome struct {
	Snapshot   *model.HealthDataSnapshot
	Validation model.ValidationResult
	Attempts   int
}

// Source reads health data through a platform capability
type Source struct {
	capability platform.Capability
	timeout    time.Duration
	location   *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewSource creates a new Source. A zero timeout uses DefaultTimeout, a nil location uses time.Local.
func NewSource(capability platform.Capability, timeout time.Duration, location *time.Location, logger *zap.Logger) *Source {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if location == nil {
		location = time.Local
	}
	return &Source{
		capability: capability,
		timeout:    timeout,
		location:   location,
		now:        time.Now,
		logger:     logger,
	}
}

// Capability returns the platform adapter the source reads through
func (s *Source) Capability() platform.Capability {
	return s.capability
}

// Location returns the time zone days are computed in
func (s *Source) Location() *time.Location {
	return s.location
}

// DayBounds returns the first and last instant of the local day containing t
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// FetchRange reads every supported metric between start and end.
// Returns nil when the platform is unavailable, permissions are missing, or nothing usable came back.
func (s *Source) FetchRange(ctx context.Context, userID string, start, end time.Time) (*model.HealthDataSnapshot, error) {
	if !s.capability.IsAvailable(ctx) {
		return nil, nil
	}
	if !s.capability.CheckPermissions(ctx, userID) {
		return nil, nil
	}
	return s.collect(ctx, userID, start, end)
}

// collect issues one query per metric. A failing metric is logged and skipped.
func (s *Source) collect(ctx context.Context, userID string, start, end time.Time) (*model.HealthDataSnapshot, error) {
	metrics := s.capability.SupportedMetrics()
	samples := make(map[model.Metric][]model.Sample, len(metrics))

	for _, metric := range metrics {
		list, err := s.capability.QueryRange(ctx, userID, metric, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("metric query failed, continuing with partial snapshot",
				zap.String("user_id", userID),
				zap.String("metric", string(metric)),
				zap.Error(err),
			)
			continue
		}
		samples[metric] = list
	}

	snapshot := buildSnapshot(metrics, samples, defaultSourceName(s.capability.Platform()), s.now())
	if !snapshot.HasData() {
		return nil, nil
	}
	return snapshot, nil
}

// SyncTodayData reads today's data with a permission re-check, a timeout, and one retry on timeout
func (s *Source) SyncTodayData(ctx context.Context, userID string) (*Outcome, error) {
	return s.SyncDay(ctx, userID, s.now())
}

// SyncDay is SyncTodayData for an arbitrary local day.
// Failures are returned as *model.SyncError.
func (s *Source) SyncDay(ctx context.Context, userID string, day time.Time) (*Outcome, error) {
	if !s.capability.IsAvailable(ctx) {
		return nil, model.NewSyncError(model.ErrorDeviceNotFound, "health store not available on %s", s.capability.Platform())
	}
	if !s.capability.CheckPermissions(ctx, userID) {
		s.logger.Warn("health store permissions revoked",
			zap.String("user_id", userID),
			zap.String("platform", string(s.capability.Platform())),
		)
		return nil, model.NewSyncError(model.ErrorPermissionsRevoked, "health store permissions were revoked")
	}

	start, end := DayBounds(day, s.location)

	var snapshot *model.HealthDataSnapshot
	attempts := 0
	for attempts < maxAttempts {
		attempts++
		snap, err := s.fetchWithTimeout(ctx, userID, start, end)
		if err == nil {
			snapshot = snap
			break
		}

		var syncErr *model.SyncError
		if errors.As(err, &syncErr) && syncErr.Type == model.ErrorSyncTimeout && attempts < maxAttempts {
			s.logger.Warn("health data sync timed out, retrying",
				zap.String("user_id", userID),
				zap.Int("attempt", attempts),
				zap.Duration("timeout", s.timeout),
			)
			continue
		}

		s.logger.Warn("health data sync failed",
			zap.String("user_id", userID),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, err
	}

	if snapshot == nil {
		return nil, model.NewSyncError(model.ErrorNoDataAvailable, "no health data for %s", start.Format(time.DateOnly))
	}

	validation := validator.ValidateSnapshot(snapshot)
	if len(validation.Errors) > 0 || len(validation.Warnings) > 0 {
		s.logger.Info("health data has validation findings",
			zap.String("user_id", userID),
			zap.Strings("errors", validation.Errors),
			zap.Strings("warnings", validation.Warnings),
		)
	}

	s.logger.Info("health data synced",
		zap.String("user_id", userID),
		zap.String("source", snapshot.Source),
		zap.Int("fields", snapshot.MetricFieldCount()),
		zap.Int("attempts", attempts),
	)

	return &Outcome{
		Snapshot:   snapshot,
		Validation: validation,
		Attempts:   attempts,
	}, nil
}

type fetchResult struct {
	snapshot *model.HealthDataSnapshot
	err      error
}

// fetchWithTimeout races the collection against the timeout; the bridge may ignore ctx
func (s *Source) fetchWithTimeout(ctx context.Context, userID string, start, end time.Time) (*model.HealthDataSnapshot, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		snapshot, err := s.collect(attemptCtx, userID, start, end)
		done <- fetchResult{snapshot: snapshot, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, s.classify(ctx, r.err)
		}
		return r.snapshot, nil
	case <-attemptCtx.Done():
		return nil, s.classify(ctx, attemptCtx.Err())
	}
}

func (s *Source) classify(parent context.Context, err error) error {
	if parent.Err() != nil {
		return model.NewSyncError(model.ErrorSyncFailed, "sync cancelled: %v", parent.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewSyncError(model.ErrorSyncTimeout, "health store did not answer within %s", s.timeout)
	}
	return model.NewSyncError(model.ErrorSyncFailed, "%s", fmt.Sprint(err))
}

func defaultSourceName(p model.Platform) string {
	switch p {
	case model.PlatformIOS:
		return "Apple Health"
	case model.PlatformAndroid:
		return "Health Connect"
	default:
		return string(p)
	}
}
