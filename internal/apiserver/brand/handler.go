// Package brand 品牌目录 - HTTP 处理
//
// 品牌是车型的父实体。删除品牌前检查引用：
// 还有车型挂在品牌下时拒绝删除，返回 409。
package brand

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fleet-admin/internal/shared/cache"
	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storage"
)

// Notifier 领域变更通知（WebSocket 广播）
type Notifier interface {
	Notify(entity, action, id string)
}

// Store 品牌处理器需要的存储能力
type Store interface {
	storage.BrandStore
	// CountModelsByBrand 删除前的引用检查
	CountModelsByBrand(ctx context.Context, brandID string) (int64, error)
}

// Handler 品牌 HTTP 处理器
type Handler struct {
	store   Store
	summary cache.SummaryCache
	events  Notifier
}

// NewHandler 创建品牌处理器
func NewHandler(store Store, summary cache.SummaryCache, events Notifier) *Handler {
	if summary == nil {
		summary = cache.NewNoOpCache()
	}
	return &Handler{store: store, summary: summary, events: events}
}

// RegisterRoutes 注册品牌路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/brands", h.ListBrands)
	mux.HandleFunc("POST /api/v1/brands", h.CreateBrand)
	mux.HandleFunc("GET /api/v1/brands/{id}", h.GetBrand)
	mux.HandleFunc("PUT /api/v1/brands/{id}", h.UpdateBrand)
	mux.HandleFunc("DELETE /api/v1/brands/{id}", h.DeleteBrand)
}

// updateBrandRequest 部分更新：nil 字段保持原值
type updateBrandRequest struct {
	Name    *string `json:"name"`
	Country *string `json:"country"`
}

// ListBrands 列出品牌
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.store.ListBrands(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list brands")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"brands": brands, "count": len(brands)})
}

// GetBrand 获取单个品牌
func (h *Handler) GetBrand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	brand, err := h.store.GetBrandByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get brand")
		return
	}
	if brand == nil {
		writeError(w, http.StatusNotFound, "brand not found")
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

// CreateBrand 创建品牌
func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var brand model.Brand
	if err := json.NewDecoder(r.Body).Decode(&brand); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := brand.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	brand.ID = generateID("brd")
	brand.CreatedAt = now
	brand.UpdatedAt = now

	if err := h.store.CreateBrand(r.Context(), &brand); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "brand already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create brand")
		return
	}

	h.summary.InvalidateSummary(r.Context())
	h.notify("created", brand.ID)
	writeJSON(w, http.StatusCreated, brand)
}

// UpdateBrand 更新品牌
func (h *Handler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateBrandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	brand, err := h.store.GetBrandByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get brand")
		return
	}
	if brand == nil {
		writeError(w, http.StatusNotFound, "brand not found")
		return
	}

	if req.Name != nil {
		brand.Name = *req.Name
	}
	if req.Country != nil {
		brand.Country = *req.Country
	}
	if err := brand.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	brand.UpdatedAt = time.Now()
	if err := h.store.UpdateBrand(r.Context(), brand); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "brand not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update brand")
		return
	}

	h.notify("updated", brand.ID)
	writeJSON(w, http.StatusOK, brand)
}

// DeleteBrand 删除品牌
// 还有车型引用该品牌时拒绝删除。
func (h *Handler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	brand, err := h.store.GetBrandByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get brand")
		return
	}
	if brand == nil {
		writeError(w, http.StatusNotFound, "brand not found")
		return
	}

	refs, err := h.store.CountModelsByBrand(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete brand")
		return
	}
	if refs > 0 {
		writeError(w, http.StatusConflict, "brand has vehicle models and cannot be deleted")
		return
	}

	if err := h.store.DeleteBrand(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "brand not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete brand")
		return
	}

	h.summary.InvalidateSummary(r.Context())
	h.notify("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// 工具函数
// ============================================================================

func (h *Handler) notify(action, id string) {
	if h.events != nil {
		h.events.Notify("brand", action, id)
	}
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
