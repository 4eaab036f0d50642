package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

type availabilityResponse struct {
	Available bool `json:"available"`
}

type authorizationRequest struct {
	UserID    string         `json:"user_id"`
	Platform  model.Platform `json:"platform"`
	DataTypes []string       `json:"data_types"`
}

type authorizationResponse struct {
	Granted bool `json:"granted"`
}

type samplesResponse struct {
	Samples []model.RawSample `json:"samples"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RemoteBridge talks to a companion agent that has direct access to the device health store
type RemoteBridge struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewRemoteBridge creates a new RemoteBridge
func NewRemoteBridge(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteBridge {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RemoteBridge{
		httpClient: client,
		logger:     logger,
	}
}

func (b *RemoteBridge) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		b.logger.Error("companion agent call failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("failed to call companion agent %s: %w", op, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*errorResponse); ok && e.Error != "" {
			msg = e.Error
		}
		b.logger.Warn("companion agent returned error",
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg),
		)
		return fmt.Errorf("companion agent %s error: %s (status: %d)", op, msg, resp.StatusCode())
	}
	return nil
}

// Available asks the agent whether the platform health store is reachable
func (b *RemoteBridge) Available(ctx context.Context, platform model.Platform) (bool, error) {
	var out availabilityResponse
	resp, err := b.httpClient.R().
		SetContext(ctx).
		SetQueryParam("platform", string(platform)).
		SetResult(&out).
		SetError(&errorResponse{}).
		Get("/v1/availability")
	if err := b.check(resp, err, "availability"); err != nil {
		return false, err
	}
	return out.Available, nil
}

// RequestAuthorization asks the agent to prompt for read access to the given data types
func (b *RemoteBridge) RequestAuthorization(ctx context.Context, userID string, platform model.Platform, dataTypes []string) (bool, error) {
	var out authorizationResponse
	resp, err := b.httpClient.R().
		SetContext(ctx).
		SetBody(authorizationRequest{UserID: userID, Platform: platform, DataTypes: dataTypes}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Post("/v1/authorization")
	if err := b.check(resp, err, "authorization request"); err != nil {
		return false, err
	}
	return out.Granted, nil
}

// AuthorizationStatus re-checks the grant without prompting
func (b *RemoteBridge) AuthorizationStatus(ctx context.Context, userID string, platform model.Platform) (bool, error) {
	var out authorizationResponse
	resp, err := b.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"user_id":  userID,
			"platform": string(platform),
		}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Get("/v1/authorization")
	if err := b.check(resp, err, "authorization status"); err != nil {
		return false, err
	}
	return out.Granted, nil
}

// QuerySamples fetches samples of one native type
func (b *RemoteBridge) QuerySamples(ctx context.Context, userID string, platform model.Platform, dataType string, start, end time.Time) ([]model.RawSample, error) {
	var out samplesResponse
	resp, err := b.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"user_id":   userID,
			"platform":  string(platform),
			"data_type": dataType,
			"start":     start.Format(time.RFC3339),
			"end":       end.Format(time.RFC3339),
		}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Get("/v1/samples")
	if err := b.check(resp, err, "samples"); err != nil {
		return nil, err
	}

	b.logger.Debug("fetched samples from companion agent",
		zap.String("user_id", userID),
		zap.String("data_type", dataType),
		zap.Int("count", len(out.Samples)),
	)
	return out.Samples, nil
}
