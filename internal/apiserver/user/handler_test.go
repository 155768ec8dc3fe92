package user

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fleet-admin/internal/apiserver/auth"
	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storagetypes"
)

// ============================================================================
// Mock 存储
// ============================================================================

type mockUserStore struct {
	users   map[string]*model.User
	failing bool
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*model.User)}
}

func (m *mockUserStore) CreateUser(ctx context.Context, user *model.User) error {
	if m.failing {
		return fmt.Errorf("store unavailable")
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return storagetypes.ErrDuplicate
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if m.failing {
		return nil, fmt.Errorf("store unavailable")
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.failing {
		return nil, fmt.Errorf("store unavailable")
	}
	for _, u := range m.users {
		if u.Email == model.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	if m.failing {
		return nil, fmt.Errorf("store unavailable")
	}
	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockUserStore) UpdateUser(ctx context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return storagetypes.ErrNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return storagetypes.ErrDuplicate
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserStore) UpdateUserDigest(ctx context.Context, id, digest string) error {
	u, ok := m.users[id]
	if !ok {
		return storagetypes.ErrNotFound
	}
	u.PasswordDigest = digest
	return nil
}

func (m *mockUserStore) DeleteUser(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return storagetypes.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserStore) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// mockNotifier 记录广播的变更事件
type mockNotifier struct {
	calls []string
}

func (m *mockNotifier) Notify(entity, action, id string) {
	m.calls = append(m.calls, entity+"/"+action)
}

// ============================================================================
// 测试辅助
// ============================================================================

func adminPrincipal() *model.Principal {
	return &model.Principal{ID: "usr-admin", FullName: "Admin", Email: "admin@fleet.local", Profile: model.ProfileAdmin}
}

func techPrincipal() *model.Principal {
	return &model.Principal{ID: "usr-tech", FullName: "Tech", Email: "tech@fleet.local", Profile: model.ProfileTechnician}
}

func seedUser(store *mockUserStore, id, email string, protected bool) *model.User {
	u := &model.User{
		ID:             id,
		FullName:       "Seeded User",
		Email:          email,
		Profile:        model.ProfileTechnician,
		Status:         model.UserStatusActive,
		IsProtected:    protected,
		PasswordDigest: "$2a$12$fakefakefakefakefakefakefakefakefakefakefakefakefakefa",
	}
	store.users[id] = u
	return u
}

func setupMux(store *mockUserStore, events *mockNotifier) *http.ServeMux {
	mux := http.NewServeMux()
	var notifier Notifier
	if events != nil {
		notifier = events
	}
	NewHandler(store, nil, notifier).RegisterRoutes(mux)
	return mux
}

func doRequest(mux *http.ServeMux, p *model.Principal, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// 路由权限
// ============================================================================

func TestRoutesRequireAdmin(t *testing.T) {
	mux := setupMux(newMockUserStore(), nil)

	tests := []struct {
		name      string
		principal *model.Principal
		want      int
	}{
		{"admin allowed", adminPrincipal(), http.StatusOK},
		{"technician forbidden", techPrincipal(), http.StatusForbidden},
		{"unauthenticated forbidden", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(mux, tt.principal, http.MethodGet, "/api/v1/users", nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

// ============================================================================
// 创建
// ============================================================================

func TestCreateUser(t *testing.T) {
	store := newMockUserStore()
	events := &mockNotifier{}
	mux := setupMux(store, events)

	body := map[string]string{
		"full_name": "Ana Souza",
		"email":     "Ana.Souza@Fleet.Local",
		"password":  "secret-pw",
		"profile":   "technician",
	}
	rec := doRequest(mux, adminPrincipal(), http.MethodPost, "/api/v1/users", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// 摘要绝不出现在响应里
	if strings.Contains(rec.Body.String(), "digest") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Errorf("response leaks password digest: %s", rec.Body.String())
	}

	var created model.User
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Email != "ana.souza@fleet.local" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.Status != model.UserStatusActive {
		t.Errorf("status = %q, want active default", created.Status)
	}

	stored := store.users[created.ID]
	if stored == nil {
		t.Fatal("user not persisted")
	}
	if stored.PasswordDigest == "" || stored.PasswordDigest == "secret-pw" {
		t.Errorf("password not hashed: %q", stored.PasswordDigest)
	}
	if len(events.calls) == 0 || events.calls[0] != "user/created" {
		t.Errorf("notify calls = %v", events.calls)
	}
}

func TestCreateUser_Invalid(t *testing.T) {
	mux := setupMux(newMockUserStore(), nil)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short password", map[string]string{"full_name": "A", "email": "a@b.com", "password": "abc"}},
		{"bad email", map[string]string{"full_name": "A", "email": "not-an-email", "password": "secret-pw"}},
		{"missing name", map[string]string{"email": "a@b.com", "password": "secret-pw"}},
		{"unknown profile", map[string]string{"full_name": "A", "email": "a@b.com", "password": "secret-pw", "profile": "root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(mux, adminPrincipal(), http.MethodPost, "/api/v1/users", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := newMockUserStore()
	seedUser(store, "usr-1", "ana@fleet.local", false)
	mux := setupMux(store, nil)

	body := map[string]string{"full_name": "Other", "email": "ANA@fleet.local", "password": "secret-pw"}
	rec := doRequest(mux, adminPrincipal(), http.MethodPost, "/api/v1/users", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

// ============================================================================
// 更新
// ============================================================================

func TestUpdateUser_Partial(t *testing.T) {
	store := newMockUserStore()
	seedUser(store, "usr-1", "ana@fleet.local", false)
	mux := setupMux(store, nil)

	body := map[string]string{"phone": "11-9999-0000"}
	rec := doRequest(mux, adminPrincipal(), http.MethodPut, "/api/v1/users/usr-1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	u := store.users["usr-1"]
	if u.Phone != "11-9999-0000" {
		t.Errorf("phone = %q", u.Phone)
	}
	// 未指定字段保持原值
	if u.Email != "ana@fleet.local" || u.FullName != "Seeded User" {
		t.Errorf("untouched fields changed: %+v", u)
	}
}

func TestUpdateUser_PasswordReset(t *testing.T) {
	store := newMockUserStore()
	old := seedUser(store, "usr-1", "ana@fleet.local", false).PasswordDigest
	mux := setupMux(store, nil)

	body := map[string]string{"password": "new-secret"}
	rec := doRequest(mux, adminPrincipal(), http.MethodPut, "/api/v1/users/usr-1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.users["usr-1"].PasswordDigest == old {
		t.Error("digest unchanged after password reset")
	}

	rec = doRequest(mux, adminPrincipal(), http.MethodPut, "/api/v1/users/usr-1", map[string]string{"password": "abc"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short password: status = %d, want 400", rec.Code)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	mux := setupMux(newMockUserStore(), nil)
	rec := doRequest(mux, adminPrincipal(), http.MethodPut, "/api/v1/users/usr-missing", map[string]string{"phone": "1"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// ============================================================================
// 删除
// ============================================================================

func TestDeleteUser(t *testing.T) {
	store := newMockUserStore()
	seedUser(store, "usr-1", "ana@fleet.local", false)
	events := &mockNotifier{}
	mux := setupMux(store, events)

	rec := doRequest(mux, adminPrincipal(), http.MethodDelete, "/api/v1/users/usr-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if _, ok := store.users["usr-1"]; ok {
		t.Error("user still present after delete")
	}
	if len(events.calls) == 0 || events.calls[0] != "user/deleted" {
		t.Errorf("notify calls = %v", events.calls)
	}
}

func TestDeleteUser_SelfDeleteForbidden(t *testing.T) {
	store := newMockUserStore()
	seedUser(store, "usr-admin", "admin@fleet.local", false)
	mux := setupMux(store, nil)

	rec := doRequest(mux, adminPrincipal(), http.MethodDelete, "/api/v1/users/usr-admin", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "own account") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if _, ok := store.users["usr-admin"]; !ok {
		t.Error("user deleted despite refusal")
	}
}

func TestDeleteUser_ProtectedForbidden(t *testing.T) {
	store := newMockUserStore()
	seedUser(store, "usr-boot", "root@fleet.local", true)
	mux := setupMux(store, nil)

	rec := doRequest(mux, adminPrincipal(), http.MethodDelete, "/api/v1/users/usr-boot", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "protected") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if _, ok := store.users["usr-boot"]; !ok {
		t.Error("protected user deleted")
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	mux := setupMux(newMockUserStore(), nil)
	rec := doRequest(mux, adminPrincipal(), http.MethodDelete, "/api/v1/users/usr-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
