package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

const (
	keyPrefix = "cancelwatch:"
	LatestKey = keyPrefix + "result:latest"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisResult keeps every run's classification under its own key, its
// excessive companies as a set, and the latest run under LatestKey.
type RedisResult struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisResult(client redis.Cmdable, ttl time.Duration) *RedisResult {
	return &RedisResult{client: client, ttl: ttl}
}

func (r *RedisResult) Store(ctx context.Context, result entity.Classification) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, ResultKey(result.RunID), payload, r.ttl)
	pipe.Set(ctx, LatestKey, payload, 0)

	if len(result.Excessive) > 0 {
		members := make([]any, 0, len(result.Excessive))
		for _, company := range result.Excessive {
			members = append(members, company)
		}
		pipe.SAdd(ctx, ExcessiveKey(result.RunID), members...)
		if r.ttl > 0 {
			pipe.Expire(ctx, ExcessiveKey(result.RunID), r.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store result in redis: %w", err)
	}

	return nil
}

func ResultKey(runID uuid.UUID) string {
	return keyPrefix + "result:" + runID.String()
}

func ExcessiveKey(runID uuid.UUID) string {
	return keyPrefix + "excessive:" + runID.String()
}
