package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "turforacle:event:"
	defaultTTL       = 30 * 24 * time.Hour
)

// RedisDeduper shares the replay guard between oracle instances using
// SET NX with an expiry.
type RedisDeduper struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisDeduper wraps an existing client.
func NewRedisDeduper(client redis.Cmdable, opts ...RedisOption) *RedisDeduper {
	d := &RedisDeduper{client: client, prefix: defaultKeyPrefix, ttl: defaultTTL}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *RedisDeduper) key(hash string) string { return d.prefix + hash }

// SeenAndRecord implements Deduper.
func (d *RedisDeduper) SeenAndRecord(ctx context.Context, hash string) (bool, error) {
	created, err := d.client.SetNX(ctx, d.key(hash), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return !created, nil
}

// Unrecord implements Deduper.
func (d *RedisDeduper) Unrecord(ctx context.Context, hash string) error {
	if err := d.client.Del(ctx, d.key(hash)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
