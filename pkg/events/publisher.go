// Package events publishes lifecycle notifications for generated code.
// Delivery (email, chat) lives outside this service and subscribes to the channel.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

// Publisher emits code events. Publish errors never undo the operation that
// produced the event; callers log and continue.
type Publisher interface {
	Publish(ctx context.Context, event models.CodeEvent) error
}

type redisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher publishes events as JSON on a Redis pub/sub channel.
func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) Publisher {
	return &redisPublisher{
		client:  client,
		channel: channel,
		logger:  logger.Named("events"),
	}
}

var _ Publisher = (*redisPublisher)(nil)

func (p *redisPublisher) Publish(ctx context.Context, event models.CodeEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, raw).Result()
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug("Published event",
		zap.String("type", event.Type),
		zap.String("generated_code_id", event.GeneratedCodeID.String()),
		zap.Int64("receivers", receivers))
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event.
// Used when Redis is not configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, models.CodeEvent) error { return nil }
