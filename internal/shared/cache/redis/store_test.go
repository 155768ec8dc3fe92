package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"fleet-admin/internal/shared/cache"
)

// testStore 创建测试用 Redis 缓存，Redis 不可用时跳过
func testStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	s, err := NewStore(addr, "", 1)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	ctx := context.Background()
	s.client.Del(ctx, keySummary)

	t.Cleanup(func() {
		s.client.Del(context.Background(), keySummary)
		s.Close()
	})

	return s
}

func TestSummaryRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// 空缓存未命中
	got, hit, err := s.GetSummary(ctx)
	if err != nil || hit || got != nil {
		t.Fatalf("empty cache = (%+v, %v, %v)", got, hit, err)
	}

	summary := &cache.DashboardSummary{
		Users:         3,
		Brands:        2,
		VehicleModels: 5,
		Vehicles:      12,
		VehiclesByStatus: map[string]int64{
			"available": 7,
			"in_use":    5,
		},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SetSummary(ctx, summary); err != nil {
		t.Fatalf("SetSummary: %v", err)
	}

	got, hit, err = s.GetSummary(ctx)
	if err != nil || !hit {
		t.Fatalf("GetSummary = (%v, %v)", hit, err)
	}
	if got.Vehicles != 12 || got.VehiclesByStatus["available"] != 7 {
		t.Fatalf("summary = %+v", got)
	}

	if err := s.InvalidateSummary(ctx); err != nil {
		t.Fatalf("InvalidateSummary: %v", err)
	}
	if _, hit, _ := s.GetSummary(ctx); hit {
		t.Fatal("summary should be invalidated")
	}
}
