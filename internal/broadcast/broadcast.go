// Package broadcast fans zone events out to external subscribers (chat
// gateways, spectator clients, cross-zone whisper relays) over Redis
// pub/sub, decoupling the simulation tick from however many consumers
// are listening and how slow they are.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wildforge/zonecore/internal/config"
	"github.com/wildforge/zonecore/internal/zone"
)

// Broadcaster publishes one zone's worth of tick events to the outside
// world. Implementations must never block the caller on a slow or
// absent subscriber.
type Broadcaster interface {
	Publish(ctx context.Context, key zone.Key, kind string, payload any) error
	Close() error
}

// envelope is the wire shape every published message takes, so a
// subscriber can dispatch on Kind without knowing the zone schema. Seq is
// a per-broadcaster monotonic counter a subscriber can use to detect a
// dropped or duplicated message after a reconnect.
type envelope struct {
	Seq        uint64 `json:"seq"`
	WorldID    int    `json:"world_id"`
	InstanceID int    `json:"instance_id"`
	Kind       string `json:"kind"`
	Payload    any    `json:"payload"`
}

// RedisBroadcaster publishes to one channel per (prefix, world, instance)
// and applies a token-bucket limiter per channel so a quiet zone doesn't
// starve a noisy one. Over-budget messages are dropped and logged; within
// the budget Publish sends synchronously on the caller's goroutine, so a
// stalled Redis connection delays the caller until the client gives up.
type RedisBroadcaster struct {
	client        *redis.Client
	channelPrefix string
	log           *zap.Logger

	limiters   map[string]*rate.Limiter
	perSubHz   float64
	queueBurst int
	seq        uint64
}

// NewRedisBroadcaster dials Redis using cfg.RedisAddr. It does not ping
// eagerly; the first Publish failure surfaces connectivity problems.
func NewRedisBroadcaster(cfg config.BroadcastConfig, log *zap.Logger) *RedisBroadcaster {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return &RedisBroadcaster{
		client:        client,
		channelPrefix: cfg.ChannelPrefix,
		log:           log,
		limiters:      make(map[string]*rate.Limiter),
		perSubHz:      cfg.PerSubscriberHz,
		queueBurst:    cfg.SubscriberQueue,
	}
}

func (b *RedisBroadcaster) channel(key zone.Key) string {
	return fmt.Sprintf("%s:%d:%d", b.channelPrefix, key.WorldID, key.InstanceID)
}

func (b *RedisBroadcaster) limiterFor(channel string) *rate.Limiter {
	if l, ok := b.limiters[channel]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(b.perSubHz), b.queueBurst)
	b.limiters[channel] = l
	return l
}

// Publish drops the message instead of blocking when the channel's rate
// budget is exhausted — a burst of telegraph ticks should thin out
// before it ever reaches the network, not queue up behind it.
func (b *RedisBroadcaster) Publish(ctx context.Context, key zone.Key, kind string, payload any) error {
	channel := b.channel(key)
	if !b.limiterFor(channel).Allow() {
		b.log.Debug("broadcast dropped: rate limit", zap.String("channel", channel), zap.String("kind", kind))
		return nil
	}

	body, err := json.Marshal(envelope{
		Seq:        atomic.AddUint64(&b.seq, 1),
		WorldID:    int(key.WorldID),
		InstanceID: int(key.InstanceID),
		Kind:       kind,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, channel, body).Err(); err != nil {
		b.log.Warn("broadcast publish failed", zap.String("channel", channel), zap.Error(err))
		return nil
	}
	return nil
}

func (b *RedisBroadcaster) Close() error {
	return b.client.Close()
}
