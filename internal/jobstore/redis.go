package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Belphemur/MediaFetch/internal/apperrors"
	"github.com/Belphemur/MediaFetch/internal/config"
	"github.com/Belphemur/MediaFetch/internal/models"
)

const defaultKeyPrefix = "mediafetch:jobs:"

func init() {
	Register("redis", newRedisStore)
}

// redisStore keeps job records in Redis/Valkey so several servers can answer
// GetJob for each other's submissions.
//
// Requires Redis 7.4+ or Valkey 8+ for per-field hash TTL (HPEXPIRE command).
//
// Data lives in two keys regardless of the number of jobs:
//
//   - {prefix}data — a Hash of job id to JSON record, each field expiring after the TTL.
//   - {prefix}lru  — a Sorted Set of job ids scored by last-access µs timestamp.
//
// Lua scripts keep the read-and-touch and the write-and-evict steps atomic.
type redisStore struct {
	client  *redis.Client
	ttl     time.Duration
	maxSize int
	onEvict EvictCallback
	logger  zerolog.Logger
	dataKey string
	lruKey  string
}

// getAndTouch returns the record and refreshes its LRU score.
//
// KEYS[1] = data hash, KEYS[2] = LRU sorted set
// ARGV[1] = current µs timestamp, ARGV[2] = job id
var getAndTouch = redis.NewScript(`
local val = redis.call('HGET', KEYS[1], ARGV[2])
if val then
    redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
end
return val
`)

// putAndEvict stores the record with a per-field TTL and trims the store back
// to maxSize, dropping the least recently used ids. Ids whose hash field has
// already expired are cleaned from the sorted set on the way.
//
// KEYS[1] = data hash, KEYS[2] = LRU sorted set
// ARGV[1] = record, ARGV[2] = current µs timestamp, ARGV[3] = job id,
// ARGV[4] = maxSize, ARGV[5] = TTL in milliseconds
//
// Returns the evicted ids.
var putAndEvict = redis.NewScript(`
local id      = ARGV[3]
local maxSize = tonumber(ARGV[4])
local ttlMs   = tonumber(ARGV[5])

redis.call('HSET', KEYS[1], id, ARGV[1])
if ttlMs > 0 then
    redis.call('HPEXPIRE', KEYS[1], ttlMs, 'FIELDS', 1, id)
end
redis.call('ZADD', KEYS[2], ARGV[2], id)

local size = redis.call('ZCARD', KEYS[2])
local evicted = {}
while size > maxSize do
    local oldest = redis.call('ZPOPMIN', KEYS[2], 1)
    if #oldest == 0 then break end
    redis.call('HDEL', KEYS[1], oldest[1])
    table.insert(evicted, oldest[1])
    size = size - 1
end

return evicted
`)

func newRedisStore(cfg ProviderConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &redisStore{
		client:  client,
		ttl:     cfg.TTL,
		maxSize: cfg.Size,
		onEvict: cfg.OnEvict,
		logger:  config.GetLogger().With().Str("component", "jobstore").Str("provider", "redis").Logger(),
		dataKey: prefix + "data",
		lruKey:  prefix + "lru",
	}, nil
}

func (r *redisStore) keys() []string {
	return []string{r.dataKey, r.lruKey}
}

func (r *redisStore) Get(ctx context.Context, id string) (*models.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	raw, err := getAndTouch.Run(ctx, r.client, r.keys(), now, id).Text()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewJobNotFoundError(id)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("job_id", id).Msg("Failed to read job")
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}

	var job models.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &job, nil
}

func (r *redisStore) Put(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	evicted, err := putAndEvict.Run(ctx, r.client, r.keys(),
		data, now, job.ID, strconv.Itoa(r.maxSize), strconv.FormatInt(r.ttl.Milliseconds(), 10),
	).StringSlice()
	if err != nil {
		r.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to store job")
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}

	if r.onEvict != nil {
		for _, id := range evicted {
			r.onEvict(id)
		}
	}
	return nil
}

func (r *redisStore) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := r.client.HLen(ctx, r.dataKey).Result()
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to count jobs")
		return 0
	}
	return int(n)
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
