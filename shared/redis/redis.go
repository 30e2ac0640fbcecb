package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-character-chat/backend/internal/artifact"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "audio:artifact:"

// RedisLedger stores artifact records in Redis so a restarted process can
// tell live files apart from orphans during its startup sweep.
type RedisLedger struct {
	client *redis.Client
}

// NewRedisLedger connects to the given Redis URL. Both redis:// URLs and
// bare host:port addresses are accepted.
func NewRedisLedger(url string) (*RedisLedger, error) {
	opts, err := parseOptions(url)
	if err != nil {
		return nil, err
	}
	return &RedisLedger{client: redis.NewClient(opts)}, nil
}

func parseOptions(url string) (*redis.Options, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("redis url is empty")
	}
	if strings.Contains(url, "://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: url}, nil
}

func key(name string) string {
	return keyPrefix + name
}

// Put stores rec until its expiry time
func (r *RedisLedger) Put(ctx context.Context, rec artifact.Record) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode artifact record: %w", err)
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.client.Set(ctx, key(rec.Name), data, ttl).Err()
}

// Get returns the record for name; ok is false when Redis has none
func (r *RedisLedger) Get(ctx context.Context, name string) (artifact.Record, bool, error) {
	var rec artifact.Record

	data, err := r.client.Get(ctx, key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return rec, false, fmt.Errorf("failed to decode artifact record: %w", err)
	}
	return rec, true, nil
}

func (r *RedisLedger) Delete(ctx context.Context, name string) error {
	return r.client.Del(ctx, key(name)).Err()
}

// Ping checks connectivity; used by the health checker
func (r *RedisLedger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLedger) Close() error {
	return r.client.Close()
}
