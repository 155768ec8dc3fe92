package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fleet-admin/internal/shared/model"
)

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())
		if p != nil {
			w.Header().Set("X-Principal", p.ID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_RejectsWithoutToken(t *testing.T) {
	cfg := Config{SessionSecret: "test-secret"}
	srv := Middleware(cfg)(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestMiddleware_PublicRoutes(t *testing.T) {
	cfg := Config{SessionSecret: "test-secret"}
	srv := Middleware(cfg)(protectedEcho(t))

	for _, path := range []string{"/api/v1/auth/login", "/health", "/metrics", "/ws/events"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("path %s: status = %d, want 200", path, w.Code)
		}
	}
}

func TestMiddleware_BearerToken(t *testing.T) {
	cfg := Config{SessionSecret: "test-secret"}
	srv := Middleware(cfg)(protectedEcho(t))

	tok, err := GenerateToken(cfg, testPrincipal())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Principal") != "usr-001" {
		t.Errorf("principal not injected: %q", w.Header().Get("X-Principal"))
	}
}

func TestMiddleware_SessionCookie(t *testing.T) {
	cfg := Config{SessionSecret: "test-secret"}
	srv := Middleware(cfg)(protectedEcho(t))

	tok, _ := GenerateToken(cfg, testPrincipal())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestMiddleware_TamperedToken(t *testing.T) {
	cfg := Config{SessionSecret: "test-secret"}
	srv := Middleware(cfg)(protectedEcho(t))

	tok, _ := GenerateToken(Config{SessionSecret: "other-secret"}, testPrincipal())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

// 未配置密钥 = 无认证模式，全部放行
func TestMiddleware_Disabled(t *testing.T) {
	srv := Middleware(Config{})(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAdminOnly(t *testing.T) {
	handler := AdminOnly(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name string
		p    *model.Principal
		want int
	}{
		{"admin allowed", &model.Principal{ID: "a", Profile: model.ProfileAdmin}, http.StatusOK},
		{"technician forbidden", &model.Principal{ID: "t", Profile: model.ProfileTechnician}, http.StatusForbidden},
		{"unknown profile forbidden", &model.Principal{ID: "x", Profile: "root"}, http.StatusForbidden},
		{"anonymous forbidden", nil, http.StatusForbidden},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/usr-1", nil)
			if tt.p != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.p))
			}
			w := httptest.NewRecorder()
			handler(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
