package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/skillforge/skillforge-backend/internal/clients/redis"
	"github.com/skillforge/skillforge-backend/internal/content"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

type Clients struct {
	Redis        *goredis.Client
	Cache        *redis.Cache
	OfflineQueue *redis.OfflineQueue
	Content      content.Provider
}

func wireClients(cfg Config, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	rdb, err := redis.NewClient(cfg.RedisAddr)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}

	provider, err := content.NewHTTPProvider(cfg.ContentProviderURL, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init content provider: %w", err)
	}

	return Clients{
		Redis:        rdb,
		Cache:        redis.NewCache(rdb, log),
		OfflineQueue: redis.NewOfflineQueue(rdb, log),
		Content:      provider,
	}, nil
}
