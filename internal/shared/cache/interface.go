// Package cache 缓存层抽象接口
//
// 提供仪表盘汇总数据的短 TTL 缓存，当前由 Redis 实现；
// Redis 不可用时由 NoOpCache 兜底（每次都落到存储层重算）。
package cache

import (
	"context"
	"time"
)

// TTLSummary 仪表盘汇总缓存的有效期
const TTLSummary = 30 * time.Second

// DashboardSummary 仪表盘首页卡片的计数汇总
type DashboardSummary struct {
	Users            int64            `json:"users"`
	Brands           int64            `json:"brands"`
	VehicleModels    int64            `json:"vehicle_models"`
	Vehicles         int64            `json:"vehicles"`
	VehiclesByStatus map[string]int64 `json:"vehicles_by_status"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// SummaryCache 仪表盘汇总缓存接口
//
// GetSummary 未命中返回 (nil, false, nil)，不是错误。
type SummaryCache interface {
	GetSummary(ctx context.Context) (*DashboardSummary, bool, error)
	SetSummary(ctx context.Context, summary *DashboardSummary) error
	InvalidateSummary(ctx context.Context) error
	Close() error
}
