package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

// Cache tags. Every cached read query is filed under one tag; every mutating
// operation invalidates the tags it can affect via the map below, so the tag
// list for each operation lives in exactly one place.
const (
	TagModels          = "models"
	TagClassifications = "classifications"
	TagDatasetRecords  = "dataset-records"
	TagHistory         = "history"
)

const (
	OpTrain         = "train"
	OpClassify      = "classify"
	OpDeleteModel   = "delete-model"
	OpCreateHistory = "create-history"
	OpDeleteHistory = "delete-history"
)

var invalidations = map[string][]string{
	OpTrain:         {TagModels, TagDatasetRecords},
	OpClassify:      {TagClassifications, TagDatasetRecords, TagModels},
	OpDeleteModel:   {TagModels, TagClassifications},
	OpCreateHistory: {TagHistory},
	OpDeleteHistory: {TagHistory},
}

// TagsFor returns the cache tags a mutating operation invalidates.
func TagsFor(op string) []string {
	return invalidations[op]
}

type Cache struct {
	client *redis.Client
}

func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Cache initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Cache{client: client}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, "q:"+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	return true, nil
}

// Set stores a value under key and files the key into each tag's member set,
// so tag invalidation can find every key it owns.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, "q:"+key, data, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, "tag:"+tag, "q:"+key)
		// The tag set must outlive its longest-lived member.
		pipe.Expire(ctx, "tag:"+tag, ttl+time.Minute)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	return nil
}

func (c *Cache) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		keys, err := c.client.SMembers(ctx, "tag:"+tag).Result()
		if err != nil {
			return fmt.Errorf("failed to list tag members: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete tagged keys: %w", err)
			}
		}

		if err := c.client.Del(ctx, "tag:"+tag).Err(); err != nil {
			return fmt.Errorf("failed to delete tag set: %w", err)
		}

		logger.Debug("Cache tag invalidated", zap.String("tag", tag), zap.Int("keys", len(keys)))
	}

	return nil
}

// InvalidateFor invalidates every tag the given operation affects.
func (c *Cache) InvalidateFor(ctx context.Context, op string) error {
	tags, ok := invalidations[op]
	if !ok {
		return fmt.Errorf("unknown cache invalidation operation %q", op)
	}
	return c.InvalidateTags(ctx, tags...)
}
