// Package vehicle 车辆管理 - HTTP 处理
//
// 车辆同时引用品牌和车型，写入前校验两者存在且车型确实属于
// 该品牌。照片本体存对象存储，车辆记录只保存照片键。
package vehicle

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"fleet-admin/internal/shared/cache"
	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/objstore"
	"fleet-admin/internal/shared/storage"
)

// maxPhotoSize 单张照片上传上限
const maxPhotoSize = 10 << 20 // 10 MiB

// Notifier 领域变更通知（WebSocket 广播）
type Notifier interface {
	Notify(entity, action, id string)
}

// Store 车辆处理器需要的存储能力
type Store interface {
	storage.VehicleStore
	// GetBrandByID / GetVehicleModelByID 引用完整性校验
	GetBrandByID(ctx context.Context, id string) (*model.Brand, error)
	GetVehicleModelByID(ctx context.Context, id string) (*model.VehicleModel, error)
}

// PhotoStore 照片对象存储能力，由 objstore.Client 实现
type PhotoStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Handler 车辆 HTTP 处理器
type Handler struct {
	store   Store
	photos  PhotoStore // nil = 未配置对象存储，照片接口返回 503
	summary cache.SummaryCache
	events  Notifier
}

// NewHandler 创建车辆处理器
func NewHandler(store Store, photos PhotoStore, summary cache.SummaryCache, events Notifier) *Handler {
	if summary == nil {
		summary = cache.NewNoOpCache()
	}
	return &Handler{store: store, photos: photos, summary: summary, events: events}
}

// RegisterRoutes 注册车辆路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/vehicles", h.ListVehicles)
	mux.HandleFunc("POST /api/v1/vehicles", h.CreateVehicle)
	mux.HandleFunc("GET /api/v1/vehicles/{id}", h.GetVehicle)
	mux.HandleFunc("PUT /api/v1/vehicles/{id}", h.UpdateVehicle)
	mux.HandleFunc("DELETE /api/v1/vehicles/{id}", h.DeleteVehicle)

	mux.HandleFunc("POST /api/v1/vehicles/{id}/photos", h.UploadPhoto)
	mux.HandleFunc("GET /api/v1/vehicles/{id}/photos/{photoID}", h.DownloadPhoto)
	mux.HandleFunc("DELETE /api/v1/vehicles/{id}/photos/{photoID}", h.DeletePhoto)
}

// updateVehicleRequest 部分更新：nil 字段保持原值
type updateVehicleRequest struct {
	Plate   *string `json:"plate"`
	BrandID *string `json:"brand_id"`
	ModelID *string `json:"model_id"`
	Year    *int    `json:"year"`
	Color   *string `json:"color"`
	Mileage *int    `json:"mileage"`
	Status  *string `json:"status"`
}

// ============================================================================
// CRUD
// ============================================================================

// ListVehicles 列出车辆，支持按品牌/车型/状态过滤
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	filter := storage.VehicleFilter{
		BrandID: r.URL.Query().Get("brand_id"),
		ModelID: r.URL.Query().Get("model_id"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := model.VehicleStatus(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid vehicle status")
			return
		}
		filter.Status = status
	}

	vehicles, err := h.store.ListVehicles(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vehicles": vehicles, "count": len(vehicles)})
}

// GetVehicle 获取单辆车
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v, err := h.store.GetVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CreateVehicle 创建车辆
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v model.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if v.Status == "" {
		v.Status = model.VehicleStatusAvailable
	}
	if err := v.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.checkReferences(r.Context(), v.BrandID, v.ModelID); err != nil {
		writeRefError(w, err)
		return
	}

	now := time.Now()
	v.ID = generateID("veh")
	v.PhotoKeys = []string{}
	v.CreatedAt = now
	v.UpdatedAt = now

	if err := h.store.CreateVehicle(r.Context(), &v); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create vehicle")
		return
	}

	h.summary.InvalidateSummary(r.Context())
	h.notify("created", v.ID)
	writeJSON(w, http.StatusCreated, v)
}

// UpdateVehicle 更新车辆
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := h.store.GetVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	if req.Plate != nil {
		v.Plate = *req.Plate
	}
	if req.BrandID != nil {
		v.BrandID = *req.BrandID
	}
	if req.ModelID != nil {
		v.ModelID = *req.ModelID
	}
	if req.Year != nil {
		v.Year = *req.Year
	}
	if req.Color != nil {
		v.Color = *req.Color
	}
	if req.Mileage != nil {
		v.Mileage = *req.Mileage
	}
	if req.Status != nil {
		v.Status = model.VehicleStatus(*req.Status)
	}
	if err := v.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 品牌或车型变了才重新做引用校验
	if req.BrandID != nil || req.ModelID != nil {
		if err := h.checkReferences(r.Context(), v.BrandID, v.ModelID); err != nil {
			writeRefError(w, err)
			return
		}
	}

	v.UpdatedAt = time.Now()
	if err := h.store.UpdateVehicle(r.Context(), v); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vehicle not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update vehicle")
		return
	}

	h.summary.InvalidateSummary(r.Context())
	h.notify("updated", v.ID)
	writeJSON(w, http.StatusOK, v)
}

// DeleteVehicle 删除车辆及其全部照片
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	v, err := h.store.GetVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	if err := h.store.DeleteVehicle(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vehicle not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete vehicle")
		return
	}

	// 照片清理尽力而为，失败不回滚车辆删除
	if h.photos != nil && len(v.PhotoKeys) > 0 {
		if err := h.photos.DeletePrefix(r.Context(), objstore.PhotoKey(id, "")); err != nil {
			writeJSON(w, http.StatusOK, map[string]string{"warning": "vehicle deleted but photo cleanup failed"})
			return
		}
	}

	h.summary.InvalidateSummary(r.Context())
	h.notify("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// 照片
// ============================================================================

// UploadPhoto 上传车辆照片（multipart 字段名 photo）
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage not configured")
		return
	}

	id := r.PathValue("id")
	v, err := h.store.GetVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	photoID := generateID("pho")
	key := objstore.PhotoKey(id, photoID)
	contentType := header.Header.Get("Content-Type")

	if err := h.photos.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to upload photo")
		return
	}

	v.PhotoKeys = append(v.PhotoKeys, key)
	v.UpdatedAt = time.Now()
	if err := h.store.UpdateVehicle(r.Context(), v); err != nil {
		// 回滚已上传对象，避免悬空照片
		h.photos.Delete(r.Context(), key)
		writeError(w, http.StatusInternalServerError, "failed to record photo")
		return
	}

	h.notify("updated", id)
	writeJSON(w, http.StatusCreated, map[string]string{"photo_id": photoID, "key": key})
}

// DownloadPhoto 下载车辆照片
func (h *Handler) DownloadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage not configured")
		return
	}

	id := r.PathValue("id")
	photoID := r.PathValue("photoID")

	v, err := h.store.GetVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	key := objstore.PhotoKey(id, photoID)
	if !containsKey(v.PhotoKeys, key) {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}

	reader, contentType, err := h.photos.Download(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	defer reader.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	io.Copy(w, reader)
}

// DeletePhoto 删除单张车辆照片
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage not configured")
		return
	}

	id := r.PathValue("id")
	photoID := r.PathValue("photoID")

	v, err := h.store.GetVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get vehicle")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}

	key := objstore.PhotoKey(id, photoID)
	if !containsKey(v.PhotoKeys, key) {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}

	if err := h.photos.Delete(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}

	keys := make([]string, 0, len(v.PhotoKeys)-1)
	for _, k := range v.PhotoKeys {
		if k != key {
			keys = append(keys, k)
		}
	}
	v.PhotoKeys = keys
	v.UpdatedAt = time.Now()
	if err := h.store.UpdateVehicle(r.Context(), v); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record photo removal")
		return
	}

	h.notify("updated", id)
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// 引用校验
// ============================================================================

var (
	errBrandNotFound      = errors.New("brand not found")
	errModelNotFound      = errors.New("vehicle model not found")
	errModelBrandMismatch = errors.New("vehicle model does not belong to the given brand")
)

// checkReferences 校验品牌/车型存在且车型隶属于该品牌
func (h *Handler) checkReferences(ctx context.Context, brandID, modelID string) error {
	brand, err := h.store.GetBrandByID(ctx, brandID)
	if err != nil {
		return err
	}
	if brand == nil {
		return errBrandNotFound
	}

	vm, err := h.store.GetVehicleModelByID(ctx, modelID)
	if err != nil {
		return err
	}
	if vm == nil {
		return errModelNotFound
	}
	if vm.BrandID != brandID {
		return errModelBrandMismatch
	}
	return nil
}

func writeRefError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBrandNotFound),
		errors.Is(err, errModelNotFound),
		errors.Is(err, errModelBrandMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to verify vehicle references")
	}
}

// ============================================================================
// 工具函数
// ============================================================================

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func (h *Handler) notify(action, id string) {
	if h.events != nil {
		h.events.Notify("vehicle", action, id)
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
