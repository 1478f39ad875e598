package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abenov/mediavault/internal/asset"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher emits ingestion events on a Redis pub/sub channel. Delivery is
// at most once; subscribers get no ordering or durability guarantee.
type Publisher struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

// NewPublisher wraps an established Redis client.
func NewPublisher(rdb *redis.Client, channel string, log *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, channel: channel, log: log}
}

// AssetIngested publishes the event payload as JSON.
func (p *Publisher) AssetIngested(ctx context.Context, evt asset.IngestedEvent) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("event publisher not initialized")
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal asset_ingested event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish asset_ingested event: %w", err)
	}
	p.log.Debug("published asset_ingested event",
		zap.String("channel", p.channel),
		zap.String("asset_id", evt.Asset.ID.String()))
	return nil
}
