// Package vehiclemodel 车型目录 - HTTP 处理
//
// 车型隶属于品牌。创建/更新时校验品牌存在；
// 删除前检查引用：还有车辆挂在车型下时拒绝删除，返回 409。
package vehiclemodel

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

// Store 车型处理器需要的存储能力
type Store interface {
	storage.VehicleModelStore
	// GetBrandByID 品牌存在性校验
	GetBrandByID(ctx context.Context, id string) (*model.Brand, error)
	// CountVehiclesByModel 删除前的引用检查
	CountVehiclesByModel(ctx context.Context, modelID string) (int64, error)
}

// Handler 车型 HTTP 处理器
type Handler struct {
	store   Store
	summary cache.SummaryCache
	events  Notifier
}

// NewHandler 创建车型处理器
func NewHandler(store Store, summary cache.SummaryCache, events Notifier) *Handler {
	if summary == nil {
		summary = cache.NewNoOpCache()
	}
	return &Handler{store: store, summary: summary, events: events}
}

// RegisterRoutes 注册车型路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/vehicle-models", h.ListVehicleModels)
	mux.HandleFunc("POST /api/v1/vehicle-models", h.CreateVehicleModel)
	mux.HandleFunc("GET /api/v1/vehicle-models/{id}", h.GetVehicleModel)
	mux.HandleFunc("PUT /api/v1/vehicle-models/{id}", h.UpdateVehicleModel)
	mux.HandleFunc("DELETE /api/v1/vehicle-models/{id}", h.DeleteVehicleModel)
}

// updateVehicleModelRequest 部分更新：nil 字段保持原值
type updateVehicleModelRequest struct {
	Name    *string `json:"name"`
	BrandID *string `json:"brand_id"`
}

// ListVehicleModels 列出车型，可按品牌过滤
func (h *Handler) ListVehicleModels(w http.ResponseWriter, r *http.Request) {
	brandID := r.URL.Query().Get("brand_id")
	models, err := h.store.ListVehicleModels(r.Context(), brandID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list vehicle models")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vehicle_models": models, "count": len(models)})
}

// GetVehicleModel 获取单个车型
func (h *Handler) GetVehicleModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	vm, err := h.store.GetVehicleModelByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle model")
		return
	}
	if vm == nil {
		writeError(w, http.StatusNotFound, "vehicle model not found")
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

// CreateVehicleModel 创建车型
func (h *Handler) CreateVehicleModel(w http.ResponseWriter, r *http.Request) {
	var vm model.VehicleModel
	if err := json.NewDecoder(r.Body).Decode(&vm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := vm.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	brand, err := h.store.GetBrandByID(r.Context(), vm.BrandID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create vehicle model")
		return
	}
	if brand == nil {
		writeError(w, http.StatusBadRequest, "brand not found")
		return
	}

	now := time.Now()
	vm.ID = generateID("vmd")
	vm.CreatedAt = now
	vm.UpdatedAt = now

	if err := h.store.CreateVehicleModel(r.Context(), &vm); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create vehicle model")
		return
	}

	h.summary.InvalidateSummary(r.Context())
	h.notify("created", vm.ID)
	writeJSON(w, http.StatusCreated, vm)
}

// UpdateVehicleModel 更新车型
func (h *Handler) UpdateVehicleModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateVehicleModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vm, err := h.store.GetVehicleModelByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle model")
		return
	}
	if vm == nil {
		writeError(w, http.StatusNotFound, "vehicle model not found")
		return
	}

	if req.Name != nil {
		vm.Name = *req.Name
	}
	if req.BrandID != nil {
		vm.BrandID = *req.BrandID
	}
	if err := vm.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.BrandID != nil {
		brand, err := h.store.GetBrandByID(r.Context(), vm.BrandID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update vehicle model")
			return
		}
		if brand == nil {
			writeError(w, http.StatusBadRequest, "brand not found")
			return
		}
	}

	vm.UpdatedAt = time.Now()
	if err := h.store.UpdateVehicleModel(r.Context(), vm); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vehicle model not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update vehicle model")
		return
	}

	h.notify("updated", vm.ID)
	writeJSON(w, http.StatusOK, vm)
}

// DeleteVehicleModel 删除车型
// 还有车辆引用该车型时拒绝删除。
func (h *Handler) DeleteVehicleModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	vm, err := h.store.GetVehicleModelByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle model")
		return
	}
	if vm == nil {
		writeError(w, http.StatusNotFound, "vehicle model not found")
		return
	}

	refs, err := h.store.CountVehiclesByModel(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete vehicle model")
		return
	}
	if refs > 0 {
		writeError(w, http.StatusConflict, "vehicle model has vehicles and cannot be deleted")
		return
	}

	if err := h.store.DeleteVehicleModel(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vehicle model not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete vehicle model")
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
		h.events.Notify("vehicle_model", action, id)
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
