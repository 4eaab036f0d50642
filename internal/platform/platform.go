// Package platform exposes the device health store behind one capability interface,
// with one adapter per mobile platform.
package platform

import (
	"context"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// Capability is the uniform health-query interface every platform adapter implements
type Capability interface {
	Platform() model.Platform
	// IsAvailable is false when the runtime has no health store or the bridge failed to load
	IsAvailable(ctx context.Context) bool
	// RequestPermissions asks for read access. Denial is a normal outcome and returns false.
	RequestPermissions(ctx context.Context, userID string) bool
	// CheckPermissions re-checks access without prompting
	CheckPermissions(ctx context.Context, userID string) bool
	SupportedMetrics() []model.Metric
	QueryRange(ctx context.Context, userID string, metric model.Metric, start, end time.Time) ([]model.Sample, error)
}

// Bridge is the native health-store binding an adapter delegates to.
// Data types are the platform's own identifiers.
type Bridge interface {
	Available(ctx context.Context, platform model.Platform) (bool, error)
	RequestAuthorization(ctx context.Context, userID string, platform model.Platform, dataTypes []string) (bool, error)
	AuthorizationStatus(ctx context.Context, userID string, platform model.Platform) (bool, error)
	QuerySamples(ctx context.Context, userID string, platform model.Platform, dataType string, start, end time.Time) ([]model.RawSample, error)
}

// ParsePlatform maps a configured platform name onto a Platform.
// Anything that is not a mobile health store, a plain browser included, is unsupported.
func ParsePlatform(name string) model.Platform {
	switch name {
	case "ios", "iOS", "healthkit":
		return model.PlatformIOS
	case "android", "healthconnect", "health_connect":
		return model.PlatformAndroid
	default:
		return model.PlatformUnsupported
	}
}

// New returns the adapter for the platform. A nil bridge yields an adapter that is never available.
func New(p model.Platform, bridge Bridge, logger *zap.Logger) Capability {
	if bridge == nil {
		logger.Warn("health bridge not loaded, wearable sync unavailable",
			zap.String("platform", string(p)),
		)
		return NewUnsupported(p)
	}

	switch p {
	case model.PlatformIOS:
		return NewHealthKit(bridge, logger)
	case model.PlatformAndroid:
		return NewHealthConnect(bridge, logger)
	default:
		return NewUnsupported(p)
	}
}
