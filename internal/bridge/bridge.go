package bridge

import (
	"fmt"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/platform"
	"go.uber.org/zap"
)

// Bridge kinds accepted by New
const (
	KindStore  = "store"
	KindRemote = "remote"
)

// New returns the bridge for a configured kind
func New(kind, remoteURL string, remoteTimeout time.Duration, store SampleStore, logger *zap.Logger) (platform.Bridge, error) {
	switch kind {
	case KindStore:
		return NewStoreBridge(store, logger), nil
	case KindRemote:
		if remoteURL == "" {
			return nil, fmt.Errorf("remote bridge needs an agent URL")
		}
		return NewRemoteBridge(remoteURL, remoteTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown bridge kind %q", kind)
	}
}
