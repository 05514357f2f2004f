package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/draftgate/draftgate/internal/storage"
	"github.com/redis/go-redis/v9"
)

// incrWithCeiling rejects-and-undoes instead of check-then-incr so the
// whole decision happens in one script execution. The DECR keeps the
// counter pinned at the ceiling while rejected retries come in.
var incrWithCeiling = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if count > tonumber(ARGV[1]) then
	redis.call("DECR", KEYS[1])
	return {0, count - 1}
end
return {1, count}
`)

// RedisStore implements Store on redis fixed-window keys. The window index
// is part of the key, so a new window starts from a fresh counter and the
// old key expires on its own.
type RedisStore struct {
	redis *storage.RedisClient
}

func NewRedisStore(redis *storage.RedisClient) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) IncrWithCeiling(ctx context.Context, key string, ceiling int, window time.Duration, now time.Time) (Result, error) {
	redisKey := fmt.Sprintf("quota:%s:%d", key, windowBucket(now, window))
	resetAt := windowResetAt(now, window)

	raw, err := incrWithCeiling.Run(ctx, s.redis.Client,
		[]string{redisKey}, ceiling, window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("quota increment failed: %w", err)
	}

	vals, ok := raw.([]interface{})
	if !ok || len(vals) != 2 {
		return Result{}, fmt.Errorf("unexpected quota script reply: %v", raw)
	}

	allowed, _ := vals[0].(int64)
	count, _ := vals[1].(int64)

	return Result{
		Allowed: allowed == 1,
		Count:   int(count),
		ResetAt: resetAt,
	}, nil
}

func (s *RedisStore) Peek(ctx context.Context, key string, window time.Duration, now time.Time) (int, error) {
	redisKey := fmt.Sprintf("quota:%s:%d", key, windowBucket(now, window))

	raw, err := s.redis.Client.Get(ctx, redisKey).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("quota read failed: %w", err)
	}
	return raw, nil
}
