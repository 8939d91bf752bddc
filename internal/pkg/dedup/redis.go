package dedup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/threadbot-backend/internal/pkg/ctxutil"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

type redisCache struct {
	log       *logger.Logger
	rdb       *goredis.Client
	retention time.Duration
}

// NewRedisCache returns a cache backed by Redis SETNX with the retention
// window as key TTL, so duplicate detection survives process restarts.
func NewRedisCache(log *logger.Logger, addr string) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
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

	return &redisCache{
		log:       log.With("service", "RedisDedupCache"),
		rdb:       rdb,
		retention: defaultRetention,
	}, nil
}

func (c *redisCache) Seen(ctx context.Context, updateID int64) bool {
	ctx = ctxutil.Default(ctx)
	added, err := c.rdb.SetNX(ctx, dedupKey(updateID), 1, c.retention).Result()
	if err != nil {
		// Best-effort filter: fail open and let the update through.
		c.log.Warn("dedup check failed", "update_id", updateID, "error", err)
		return false
	}
	return !added
}

func (c *redisCache) Forget(ctx context.Context, updateID int64) {
	ctx = ctxutil.Default(ctx)
	if err := c.rdb.Del(ctx, dedupKey(updateID)).Err(); err != nil {
		c.log.Warn("dedup release failed", "update_id", updateID, "error", err)
	}
}

func dedupKey(updateID int64) string {
	return "dedup:update:" + strconv.FormatInt(updateID, 10)
}
