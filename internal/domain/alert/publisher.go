package alert

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const alertChannel = "trust:alerts"

// Publisher pushes alerts onto the staff stream. Implementations must be
// best-effort: a failed publish is logged, never surfaced to the caller.
type Publisher interface {
	Publish(ctx context.Context, a SafetyAlert)
}

// NopPublisher discards alerts. Used in tests and in deployments without
// a staff dashboard.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, SafetyAlert) {}

type redisPublisher struct {
	redis *redis.Client
	hub   *Hub
}

// NewPublisher returns a Publisher that fans out through Redis Pub/Sub so
// every API instance's hub sees the alert. Without Redis (or when the
// publish fails) it falls back to the local hub; with neither it drops.
func NewPublisher(redisClient *redis.Client, hub *Hub) Publisher {
	return &redisPublisher{redis: redisClient, hub: hub}
}

func (p *redisPublisher) Publish(ctx context.Context, a SafetyAlert) {
	data, err := json.Marshal(a)
	if err != nil {
		log.Error().Err(err).Str("kind", string(a.Kind)).Msg("Failed to marshal safety alert")
		return
	}

	if p.redis != nil {
		err := p.redis.Publish(ctx, alertChannel, data).Err()
		if err == nil {
			return
		}
		log.Error().Err(err).Str("kind", string(a.Kind)).Msg("Redis alert publish failed")
	}

	if p.hub != nil {
		p.hub.broadcastLocal(data)
	}
}
