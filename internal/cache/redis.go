package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a shared cache backend. All Redis failures are swallowed and
// logged; they must never turn a lookup into a call failure.
type Redis struct {
	client *redis.Client
	logger *log.Logger
}

func NewRedis(logger *log.Logger, addr, password string, db int) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		logger: logger,
	}
}

var _ Cache = (*Redis)(nil)

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Printf("cache get failed key=%s err=%v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Printf("cache set failed key=%s err=%v", key, err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
