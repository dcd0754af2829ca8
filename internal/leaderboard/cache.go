package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jjudge-oj/grader/config"
	"github.com/jjudge-oj/grader/types"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "leaderboard:"

// Cache stores computed standings per contest in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewCache wraps client. A non-positive ttl keeps entries until invalidated.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached standings. ok is false on a cache miss.
func (c *Cache) Get(ctx context.Context, contestID int64) (entries []types.LeaderboardEntry, ok bool, err error) {
	data, err := c.client.Get(ctx, key(contestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt entries are treated as a miss and overwritten by the next Set.
		return nil, false, nil
	}
	return entries, true, nil
}

// setIfCurrent stores standings only while the generation is unchanged, so a
// rebuild that raced with an invalidation cannot repopulate stale data.
var setIfCurrent = redis.NewScript(`
	local current = tonumber(redis.call("get", KEYS[2]) or "0")
	if current ~= tonumber(ARGV[1]) then
		return 0
	end
	if tonumber(ARGV[3]) > 0 then
		redis.call("set", KEYS[1], ARGV[2], "PX", ARGV[3])
	else
		redis.call("set", KEYS[1], ARGV[2])
	end
	return 1
`)

// Generation returns the invalidation counter of a contest. Read it before
// computing standings and hand it to Set.
func (c *Cache) Generation(ctx context.Context, contestID int64) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(contestID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores standings computed at generation. stored is false when the
// contest was invalidated in the meantime.
func (c *Cache) Set(ctx context.Context, contestID, generation int64, entries []types.LeaderboardEntry) (stored bool, err error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return false, err
	}
	keys := []string{key(contestID), generationKey(contestID)}
	n, err := setIfCurrent.Run(ctx, c.client, keys, generation, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Invalidate bumps the generation and drops the cached standings.
func (c *Cache) Invalidate(ctx context.Context, contestID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(contestID))
		pipe.Del(ctx, key(contestID))
		return nil
	})
	return err
}

func key(contestID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, contestID)
}

func generationKey(contestID int64) string {
	return fmt.Sprintf("%s%d:gen", keyPrefix, contestID)
}
