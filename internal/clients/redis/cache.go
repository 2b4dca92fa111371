// Package redis holds the redis-backed read cache and the offline
// persistence queue.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

// NewClient dials redis from REDIS_ADDR-style settings.
func NewClient(addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Cache serves bounded-staleness reads and keeps the last valid weakness
// ranking for the SLA degrade path. Ranking fallbacks are written without a
// TTL so a stale answer is always available; model reads expire at the
// staleness budget.
type Cache struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewCache(rdb *goredis.Client, baseLog *logger.Logger) *Cache {
	return &Cache{rdb: rdb, log: baseLog.With("client", "RedisCache")}
}

func rankingKey(userID uuid.UUID) string { return "ranking:last:" + userID.String() }
func modelKey(userID uuid.UUID) string   { return "mastery:model:" + userID.String() }

func (c *Cache) SetLastRanking(ctx context.Context, userID uuid.UUID, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal ranking: %w", err)
	}
	return c.rdb.Set(ctx, rankingKey(userID), raw, 0).Err()
}

// GetLastRanking returns (nil, nil) on a miss.
func (c *Cache) GetLastRanking(ctx context.Context, userID uuid.UUID, out interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, rankingKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal cached ranking: %w", err)
	}
	return true, nil
}

func (c *Cache) SetModel(ctx context.Context, userID uuid.UUID, value interface{}, staleness time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	return c.rdb.Set(ctx, modelKey(userID), raw, staleness).Err()
}

func (c *Cache) GetModel(ctx context.Context, userID uuid.UUID, out interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, modelKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal cached model: %w", err)
	}
	return true, nil
}

func (c *Cache) InvalidateModel(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, modelKey(userID)).Err()
}

// PurgeUser removes every cached artifact for a user (erasure path).
func (c *Cache) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, rankingKey(userID), modelKey(userID)).Err()
}
