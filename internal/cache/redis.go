package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisOpTimeout = 2 * time.Second

// RedisCache shares clips between processes through a Redis instance. Keys
// are namespaced with a prefix and expire after the configured TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	mu    sync.Mutex
	stats Stats
}

// NewRedisCache connects to the Redis instance at url (redis://...) and
// verifies it with a PING.
func NewRedisCache(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisCache{client: client, prefix: prefix, ttl: ttl}, nil
}

func (rc *RedisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := rc.client.Get(ctx, rc.prefix+key).Bytes()

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if err != nil {
		rc.stats.Misses++
		return nil, false
	}
	rc.stats.Hits++
	rc.stats.LastAccess = time.Now()
	return data, true
}

func (rc *RedisCache) Put(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return rc.client.Set(ctx, rc.prefix+key, value, rc.ttl).Err()
}

func (rc *RedisCache) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	err := rc.client.Del(ctx, rc.prefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Clear removes every key under the prefix.
func (rc *RedisCache) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*redisOpTimeout)
	defer cancel()

	iter := rc.client.Scan(ctx, 0, rc.prefix+"*", 256).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 256 {
			if err := rc.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return rc.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Size is not tracked for the shared tier.
func (rc *RedisCache) Size() int64 { return 0 }

func (rc *RedisCache) Stats() Stats {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	s := rc.stats
	s.computeHitRate()
	return s
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
