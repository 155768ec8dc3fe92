package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storage"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store storage.UserStore
	authn *Authenticator
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store storage.UserStore, cfg Config) *Handler {
	return &Handler{store: store, authn: NewAuthenticator(store), cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
	mux.HandleFunc("PUT /api/v1/auth/password", h.ChangePassword)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type loginResponse struct {
	Principal *model.Principal `json:"principal"`
	Token     string           `json:"token"`
}

// ============================================================================
// Handlers
// ============================================================================

// Login 员工登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("[auth.login] authenticate error: %v", err)
		loginAttempts.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !res.OK {
		if res.Reason == ReasonInactiveAccount {
			loginAttempts.WithLabelValues("inactive").Inc()
			writeError(w, http.StatusForbidden, res.Reason)
		} else {
			loginAttempts.WithLabelValues("invalid_credentials").Inc()
			writeError(w, http.StatusUnauthorized, res.Reason)
		}
		return
	}

	token, err := GenerateToken(h.cfg, res.Principal)
	if err != nil {
		log.Printf("[auth.login] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// 浏览器端走 Cookie，API 客户端用响应里的 token
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	loginAttempts.WithLabelValues("success").Inc()
	log.Printf("[auth] user logged in: %s", res.Principal.Email)
	writeJSON(w, http.StatusOK, loginResponse{Principal: res.Principal, Token: token})
}

// Logout 退出登录
// 服务端没有会话表，退出就是清掉客户端的 Cookie。
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me 获取当前登录身份
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), p.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword 修改自己的密码
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "old_password and new_password are required")
		return
	}
	if len(req.NewPassword) < model.MinPasswordLen {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("new password must be at least %d characters", model.MinPasswordLen))
		return
	}

	user, err := h.store.GetUserByID(r.Context(), p.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if !VerifyPassword(req.OldPassword, user.PasswordDigest) {
		writeError(w, http.StatusUnauthorized, "incorrect old password")
		return
	}

	digest, err := HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.store.UpdateUserDigest(r.Context(), user.ID, digest); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保引导管理员存在（启动时调用）
// 如果配置了 adminEmail 且该账号不存在，则创建一个带保护标记的管理员。
func EnsureAdminUser(store storage.UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	email := model.NormalizeEmail(adminEmail)
	existing, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] admin user already exists: %s (%s)", email, existing.ID)
		return nil
	}

	digest, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:             generateID("usr"),
		FullName:       "Administrator",
		Email:          email,
		PasswordDigest: digest,
		Profile:        model.ProfileAdmin,
		Status:         model.UserStatusActive,
		IsProtected:    true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] created protected admin user: %s (%s)", email, user.ID)
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

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
