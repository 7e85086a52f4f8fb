package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/school-admin/internal"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from config and pings it once so a bad
// address fails at startup.
func NewRedisClient(ctx context.Context, cfg internal.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolTimeout:  2 * time.Second,
	})

	pingCtx, cancel := internal.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}
	return client, nil
}
