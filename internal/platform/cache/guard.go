// Package cache holds the redis helpers used to collapse concurrent webhook deliveries.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/payport/pkg/config"
)

const defaultTTL = 30 * time.Second

// DeliveryGuard marks a message as in flight so that a concurrent identical delivery
// can be answered without touching the order. It is an optimization only.
type DeliveryGuard interface {
	// Claim reports whether the caller owns key. Errors mean the guard is unavailable.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

// RedisGuard implements DeliveryGuard with SET NX.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewRedisGuard(client *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisGuard{client: client, prefix: "payport:delivery:", ttl: ttl, log: log}
}

func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim delivery: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		g.log.Warnw("failed to release delivery claim", "key", key, "err", err)
	}
}

// Noop claims every key.
type Noop struct{}

func (Noop) Claim(context.Context, string) (bool, error) { return true, nil }
func (Noop) Release(context.Context, string)              {}

// NewRedisClient opens a client for url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func newGuard(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (DeliveryGuard, error) {
	if cfg.Redis.URL == "" {
		log.Infow("redis not configured, webhook delivery guard disabled")
		return Noop{}, nil
	}
	client, err := NewRedisClient(context.Background(), cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
	log.Infow("redis connection established")
	return NewRedisGuard(client, cfg.Webhook.DedupeTTL, log), nil
}

var Module = fx.Options(
	fx.Provide(newGuard),
)
