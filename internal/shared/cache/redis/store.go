// Package redis Redis 缓存实现
//
// 实现了 cache 包中定义的仪表盘汇总缓存接口
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"fleet-admin/internal/shared/cache"
)

// keySummary 汇总数据在 Redis 中的键
const keySummary = "fleet:dashboard:summary"

// Store Redis 缓存层
type Store struct {
	client *redis.Client
}

// NewStore 创建 Redis 缓存实例
func NewStore(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &Store{client: client}, nil
}

// NewStoreFromURL 从 URL 创建 Redis 缓存实例
func NewStoreFromURL(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis] Connected to %s", opts.Addr)
	return &Store{client: client}, nil
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

// GetSummary 读取缓存的汇总数据
func (s *Store) GetSummary(ctx context.Context) (*cache.DashboardSummary, bool, error) {
	raw, err := s.client.Get(ctx, keySummary).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get summary: %w", err)
	}

	var summary cache.DashboardSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		// 损坏的缓存值按未命中处理，下次写入覆盖
		return nil, false, nil
	}
	return &summary, true, nil
}

// SetSummary 写入汇总数据，带短 TTL
func (s *Store) SetSummary(ctx context.Context, summary *cache.DashboardSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := s.client.Set(ctx, keySummary, raw, cache.TTLSummary).Err(); err != nil {
		return fmt.Errorf("failed to set summary: %w", err)
	}
	return nil
}

// InvalidateSummary 主动失效（任何车队实体变更后调用）
func (s *Store) InvalidateSummary(ctx context.Context) error {
	if err := s.client.Del(ctx, keySummary).Err(); err != nil {
		return fmt.Errorf("failed to invalidate summary: %w", err)
	}
	return nil
}

var _ cache.SummaryCache = (*Store)(nil)
