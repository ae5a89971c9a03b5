package authorizer

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"idregistry/pkg/platform/sentinel"
)

// RedisSequence keeps the replay ledger in Redis so the counter survives
// restarts and stays consistent across registry instances. Advance is a
// compare-and-increment script, making "verify then consume" safe even when
// two instances validate the same signature concurrently: only one advance
// lands.
type RedisSequence struct {
	client *redis.Client
	key    string
}

// advanceScript increments the counter only if it still holds the expected
// value. Returns the value after the call, or -1 on a mismatch.
var advanceScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '1')
if current ~= tonumber(ARGV[1]) then
    return -1
end
redis.call('SET', KEYS[1], current + 1)
return current + 1
`)

// NewRedisSequence creates a Redis-backed replay ledger under key.
func NewRedisSequence(client *redis.Client, key string) *RedisSequence {
	return &RedisSequence{client: client, key: key}
}

func (s *RedisSequence) Next(ctx context.Context) (uint64, error) {
	value, err := s.client.Get(ctx, s.key).Uint64()
	if err == redis.Nil {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	return value, nil
}

func (s *RedisSequence) Advance(ctx context.Context, current uint64) error {
	result, err := advanceScript.Run(ctx, s.client, []string{s.key}, current).Int64()
	if err != nil {
		return fmt.Errorf("advance sequence: %w", err)
	}
	if result < 0 {
		return fmt.Errorf("sequence already advanced past %d: %w", current, sentinel.ErrInvalidSignature)
	}
	return nil
}
