package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// normalizeFunc turns a bridge sample into a model sample. ok=false drops it.
type normalizeFunc func(metric model.Metric, raw model.RawSample) (model.Sample, bool)

// bridgeAdapter holds what HealthKit and Health Connect share: the bridge calls,
// the metric to data-type table, and logging
type bridgeAdapter struct {
	platform  model.Platform
	bridge    Bridge
	dataTypes map[model.Metric]string
	metrics   []model.Metric
	normalize normalizeFunc
	logger    *zap.Logger
}

func (a *bridgeAdapter) Platform() model.Platform {
	return a.platform
}

func (a *bridgeAdapter) IsAvailable(ctx context.Context) bool {
	ok, err := a.bridge.Available(ctx, a.platform)
	if err != nil {
		a.logger.Warn("health store availability check failed",
			zap.String("platform", string(a.platform)),
			zap.Error(err),
		)
		return false
	}
	return ok
}

func (a *bridgeAdapter) RequestPermissions(ctx context.Context, userID string) bool {
	types := make([]string, 0, len(a.metrics))
	for _, m := range a.metrics {
		types = append(types, a.dataTypes[m])
	}

	granted, err := a.bridge.RequestAuthorization(ctx, userID, a.platform, types)
	if err != nil {
		a.logger.Warn("health store permission request failed",
			zap.String("platform", string(a.platform)),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false
	}

	a.logger.Info("health store permission request completed",
		zap.String("platform", string(a.platform)),
		zap.String("user_id", userID),
		zap.Bool("granted", granted),
	)
	return granted
}

func (a *bridgeAdapter) CheckPermissions(ctx context.Context, userID string) bool {
	granted, err := a.bridge.AuthorizationStatus(ctx, userID, a.platform)
	if err != nil {
		a.logger.Warn("health store permission check failed",
			zap.String("platform", string(a.platform)),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	return granted
}

func (a *bridgeAdapter) SupportedMetrics() []model.Metric {
	out := make([]model.Metric, len(a.metrics))
	copy(out, a.metrics)
	return out
}

func (a *bridgeAdapter) QueryRange(ctx context.Context, userID string, metric model.Metric, start, end time.Time) ([]model.Sample, error) {
	dataType, ok := a.dataTypes[metric]
	if !ok {
		return nil, fmt.Errorf("metric %s not supported on %s", metric, a.platform)
	}

	raw, err := a.bridge.QuerySamples(ctx, userID, a.platform, dataType, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", dataType, err)
	}

	samples := make([]model.Sample, 0, len(raw))
	for _, r := range raw {
		if s, ok := a.normalize(metric, r); ok {
			samples = append(samples, s)
		}
	}

	a.logger.Debug("health store query completed",
		zap.String("platform", string(a.platform)),
		zap.String("data_type", dataType),
		zap.Int("raw_count", len(raw)),
		zap.Int("sample_count", len(samples)),
	)

	return samples, nil
}

func baseSample(metric model.Metric, raw model.RawSample) model.Sample {
	return model.Sample{
		Metric:     metric,
		Value:      raw.Value,
		Unit:       raw.Unit,
		StartAt:    raw.StartAt,
		EndAt:      raw.EndAt,
		DeviceName: raw.DeviceName,
	}
}

func fahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}
