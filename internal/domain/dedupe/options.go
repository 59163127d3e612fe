package dedupe

import "time"

// Option configures an InMemoryDeduper.
type Option func(*InMemoryDeduper)

// WithMaxSize sets the maximum number of hashes kept in memory. Values <= 0
// disable eviction.
func WithMaxSize(maxSize int) Option {
	return func(d *InMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// RedisOption configures a RedisDeduper.
type RedisOption func(*RedisDeduper)

// WithKeyPrefix namespaces the keys written to Redis.
func WithKeyPrefix(prefix string) RedisOption {
	return func(d *RedisDeduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithTTL sets how long a hash is remembered. Zero keeps keys forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(d *RedisDeduper) {
		if ttl >= 0 {
			d.ttl = ttl
		}
	}
}
