// Package dashboard 仪表盘汇总 - HTTP 处理
//
// 汇总就是几条 COUNT 的组合，但首页每次打开都要请求，
// 所以套了一层短 TTL 缓存；写路径在各领域包里做失效。
package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"fleet-admin/internal/shared/cache"
	"fleet-admin/internal/shared/model"
)

// Store 仪表盘需要的计数能力
type Store interface {
	CountUsers(ctx context.Context) (int64, error)
	CountBrands(ctx context.Context) (int64, error)
	CountVehicleModels(ctx context.Context) (int64, error)
	CountVehicles(ctx context.Context) (int64, error)
	CountVehiclesByStatus(ctx context.Context, status model.VehicleStatus) (int64, error)
}

// Handler 仪表盘 HTTP 处理器
type Handler struct {
	store   Store
	summary cache.SummaryCache
}

// NewHandler 创建仪表盘处理器
func NewHandler(store Store, summary cache.SummaryCache) *Handler {
	if summary == nil {
		summary = cache.NewNoOpCache()
	}
	return &Handler{store: store, summary: summary}
}

// RegisterRoutes 注册仪表盘路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/dashboard/summary", h.GetSummary)
}

// GetSummary 获取仪表盘汇总
// 缓存命中直接返回；未命中落到存储层重算并回填。
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cached, hit, err := h.summary.GetSummary(ctx); err == nil && hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := h.computeSummary(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute dashboard summary")
		return
	}

	// 回填失败不影响响应
	if err := h.summary.SetSummary(ctx, summary); err != nil {
		log.Printf("[dashboard] cache summary: %v", err)
	}
	writeJSON(w, http.StatusOK, summary)
}

// computeSummary 从存储层重算汇总
func (h *Handler) computeSummary(ctx context.Context) (*cache.DashboardSummary, error) {
	users, err := h.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	brands, err := h.store.CountBrands(ctx)
	if err != nil {
		return nil, err
	}
	models, err := h.store.CountVehicleModels(ctx)
	if err != nil {
		return nil, err
	}
	vehicles, err := h.store.CountVehicles(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64)
	for _, status := range []model.VehicleStatus{
		model.VehicleStatusAvailable,
		model.VehicleStatusInUse,
		model.VehicleStatusMaintenance,
		model.VehicleStatusRetired,
	} {
		n, err := h.store.CountVehiclesByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		byStatus[string(status)] = n
	}

	return &cache.DashboardSummary{
		Users:            users,
		Brands:           brands,
		VehicleModels:    models,
		Vehicles:         vehicles,
		VehiclesByStatus: byStatus,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
