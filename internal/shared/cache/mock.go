// Package cache 缓存层 mock 实现
package cache

import (
	"context"
)

// NoOpCache 不做任何操作的 SummaryCache 实现
// Redis 未配置时注入它，所有读取都表现为未命中。
type NoOpCache struct{}

// NewNoOpCache 创建 NoOpCache 实例
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetSummary(ctx context.Context) (*DashboardSummary, bool, error) {
	return nil, false, nil
}

func (c *NoOpCache) SetSummary(ctx context.Context, summary *DashboardSummary) error {
	return nil
}

func (c *NoOpCache) InvalidateSummary(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

var _ SummaryCache = (*NoOpCache)(nil)
