package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

type unsupported struct {
	platform model.Platform
}

// NewUnsupported returns an adapter that reports itself unavailable and grants nothing
func NewUnsupported(p model.Platform) Capability {
	return &unsupported{platform: p}
}

func (u *unsupported) Platform() model.Platform { return u.platform }
func (u *unsupported) IsAvailable(context.Context) bool { return false }
func (u *unsupported) RequestPermissions(context.Context, string) bool { return false }
func (u *unsupported) CheckPermissions(context.Context, string) bool { return false }
func (u *unsupported) SupportedMetrics() []model.Metric { return nil }

func (u *unsupported) QueryRange(context.Context, string, model.Metric, time.Time, time.Time) ([]model.Sample, error) {
	return nil, fmt.Errorf("health store not available on %s", u.platform)
}
