package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"todolis-backend/pkg/models"

	"github.com/redis/go-redis/v9"
)

const (
	keySummary    = "goals:summary:"
	keyGeneration = "goals:summary:gen:"
)

// SummaryCache caches goal summaries per space in Redis.
//
// Every Invalidate bumps a per-space generation counter. Set stores a summary
// only while the generation is still the one Get reported, so a load that
// overlapped a write never lands in the cache.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSummaryCache returns a SummaryCache. A zero ttl keeps entries until invalidated.
func NewSummaryCache(rdb *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient 连接Redis并检查连通性
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func summaryKey(spaceID string) string {
	return keySummary + spaceID
}

func generationKey(spaceID string) string {
	return keyGeneration + spaceID
}

// Get returns the cached summary (nil on a miss) and the current generation.
func (c *SummaryCache) Get(ctx context.Context, spaceID string) (*models.GoalSummary, int64, error) {
	var sumCmd, genCmd *redis.StringCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		sumCmd = pipe.Get(ctx, summaryKey(spaceID))
		genCmd = pipe.Get(ctx, generationKey(spaceID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	gen, err := genCmd.Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		return nil, 0, err
	}

	b, err := sumCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, 0, err
	}
	var s models.GoalSummary
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, 0, err
	}
	return &s, gen, nil
}

// Set stores summary if the generation of spaceID still equals gen. A stale
// generation is not an error; the value is simply dropped.
func (c *SummaryCache) Set(ctx context.Context, spaceID string, gen int64, summary models.GoalSummary) error {
	b, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	genKey := generationKey(spaceID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if errors.Is(err, redis.Nil) {
			cur = 0
		} else if err != nil {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, summaryKey(spaceID), b, c.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

var errStaleGeneration = errors.New("summary generation moved on")

// Invalidate removes the entry of spaceID and bumps its generation
// (called on every goal write).
func (c *SummaryCache) Invalidate(ctx context.Context, spaceID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(spaceID))
		pipe.Del(ctx, summaryKey(spaceID))
		return nil
	})
	return err
}
