// Package user 员工账号管理 - HTTP 处理
//
// 全部路由仅限管理员访问。删除操作还要通过 auth.CanDeleteUser 的
// 逐账号检查：不能删自己，不能删带保护标记的账号。
package user

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fleet-admin/internal/apiserver/auth"
	"fleet-admin/internal/shared/cache"
	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storage"
)

// Notifier 领域变更通知（WebSocket 广播）
type Notifier interface {
	Notify(entity, action, id string)
}

// Handler 员工账号 HTTP 处理器
type Handler struct {
	store   storage.UserStore
	summary cache.SummaryCache
	events  Notifier
}

// NewHandler 创建员工账号处理器
func NewHandler(store storage.UserStore, summary cache.SummaryCache, events Notifier) *Handler {
	if summary == nil {
		summary = cache.NewNoOpCache()
	}
	return &Handler{store: store, summary: summary, events: events}
}

// RegisterRoutes 注册员工账号路由（全部仅限管理员）
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/users", auth.AdminOnly(h.ListUsers))
	mux.HandleFunc("POST /api/v1/users", auth.AdminOnly(h.CreateUser))
	mux.HandleFunc("GET /api/v1/users/{id}", auth.AdminOnly(h.GetUser))
	mux.HandleFunc("PUT /api/v1/users/{id}", auth.AdminOnly(h.UpdateUser))
	mux.HandleFunc("DELETE /api/v1/users/{id}", auth.AdminOnly(h.DeleteUser))
}

// ============================================================================
// 请求类型
// ============================================================================

type createUserRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Company  string `json:"company"`
	Profile  string `json:"profile"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
}

// updateUserRequest 部分更新：nil 字段保持原值
type updateUserRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Company  *string `json:"company"`
	Profile  *string `json:"profile"`
	Phone    *string `json:"phone"`
	Status   *string `json:"status"`
}

// ============================================================================
// Handlers
// ============================================================================

// ListUsers 列出员工账号
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}

// GetUser 获取单个员工账号
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CreateUser 创建员工账号
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Password) < model.MinPasswordLen {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("password must be at least %d characters", model.MinPasswordLen))
		return
	}

	now := time.Now()
	user := &model.User{
		ID:        generateID("usr"),
		FullName:  req.FullName,
		Email:     model.NormalizeEmail(req.Email),
		Company:   req.Company,
		Profile:   model.UserProfile(req.Profile),
		Phone:     req.Phone,
		Status:    model.UserStatus(req.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.Profile == "" {
		user.Profile = model.ProfileTechnician
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 预检查给出友好提示；并发窗口由存储层唯一索引兜底
	existing, err := h.store.GetUserByEmail(r.Context(), user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already in use")
		return
	}

	digest, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	user.PasswordDigest = digest

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.summary.InvalidateSummary(r.Context())
	h.notify("created", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// UpdateUser 更新员工账号（部分更新，密码可选重置）
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = model.NormalizeEmail(*req.Email)
	}
	if req.Company != nil {
		user.Company = *req.Company
	}
	if req.Profile != nil {
		user.Profile = model.UserProfile(*req.Profile)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Status != nil {
		user.Status = model.UserStatus(*req.Status)
	}
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Password != nil {
		if len(*req.Password) < model.MinPasswordLen {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("password must be at least %d characters", model.MinPasswordLen))
			return
		}
		digest, err := auth.HashPassword(*req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
		user.PasswordDigest = digest
	}

	user.UpdatedAt = time.Now()
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			writeError(w, http.StatusConflict, "email already in use")
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}

	h.notify("updated", user.ID)
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser 删除员工账号
// 逐账号授权检查在任何存储写入之前完成。
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	target, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	actor := auth.GetPrincipal(r.Context())
	if err := auth.CanDeleteUser(actor, target); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
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
		h.events.Notify("user", action, id)
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
