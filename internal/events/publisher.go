// Package events announces finished syncs on a Redis stream
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// DefaultStream is the stream sync events are appended to
const DefaultStream = "wearable:sync_events"

// streamMaxLen caps the stream so it does not grow without bound
const streamMaxLen = 10000

// NewRedisClient creates a Redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisPublisher appends sync events to a Redis stream as JSON
type RedisPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewRedisPublisher creates a new RedisPublisher
func NewRedisPublisher(client *redis.Client, stream string, logger *zap.Logger) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// PublishSyncEvent adds the event to the stream
func (p *RedisPublisher) PublishSyncEvent(ctx context.Context, event model.SyncEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"user_id":   event.UserID,
			"data":      string(payload),
			"timestamp": event.Timestamp.Unix(),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish sync event: %w", err)
	}

	p.logger.Debug("sync event published",
		zap.String("stream", p.stream),
		zap.String("message_id", id),
		zap.String("user_id", event.UserID),
		zap.String("mode", string(event.Mode)),
	)
	return nil
}

// Ping checks the Redis connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// NopPublisher drops events; used when Redis is not configured
type NopPublisher struct{}

// PublishSyncEvent does nothing
func (NopPublisher) PublishSyncEvent(context.Context, model.SyncEvent) error {
	return nil
}
