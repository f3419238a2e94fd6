package util

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reviewhub/internal/app/reviews/entity"
	"reviewhub/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "summary:"

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFromExisting оборачивает уже созданный клиент (для тестов с miniredis)
func NewRedisClientFromExisting(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// SetSummary кеширует рейтинг товара
func (r *RedisClient) SetSummary(ctx context.Context, summary *entity.RatingSummary, ttl time.Duration) error {
	timer := metrics.NewRedisTimer("reviewhub", metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := r.client.Set(ctx, summaryKeyPrefix+summary.ProductID, data, ttl).Err(); err != nil {
		metrics.RecordRedisError("reviewhub", metrics.RedisOpSet)
		return fmt.Errorf("failed to set summary in cache: %w", err)
	}

	return nil
}

// GetSummary читает рейтинг товара из кеша. Промах - (nil, nil)
func (r *RedisClient) GetSummary(ctx context.Context, productID string) (*entity.RatingSummary, error) {
	timer := metrics.NewRedisTimer("reviewhub", metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, summaryKeyPrefix+productID).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss("reviewhub", summaryKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError("reviewhub", metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get summary from cache: %w", err)
	}

	metrics.RecordCacheHit("reviewhub", summaryKeyPrefix)

	var summary entity.RatingSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	return &summary, nil
}

// DeleteSummary инвалидирует кеш рейтинга товара
// Вызывается после каждого мутирующего действия над отзывами товара
func (r *RedisClient) DeleteSummary(ctx context.Context, productID string) error {
	timer := metrics.NewRedisTimer("reviewhub", metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := r.client.Del(ctx, summaryKeyPrefix+productID).Err(); err != nil {
		metrics.RecordRedisError("reviewhub", metrics.RedisOpDel)
		return fmt.Errorf("failed to delete summary from cache: %w", err)
	}

	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
