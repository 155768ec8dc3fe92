// Package server 路由配置与核心基础设施
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包。
// 仍保留在本包的模块：
//   - events.go: WebSocket 事件网关
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"fleet-admin/internal/apiserver/auth"
	"fleet-admin/internal/apiserver/brand"
	"fleet-admin/internal/apiserver/dashboard"
	"fleet-admin/internal/apiserver/user"
	"fleet-admin/internal/apiserver/vehicle"
	"fleet-admin/internal/apiserver/vehiclemodel"
	"fleet-admin/internal/shared/cache"
	"fleet-admin/internal/shared/objstore"
	"fleet-admin/internal/shared/storage"
	"fleet-admin/pkg/logging"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域处理器
//   - 管理存储层/缓存/对象存储连接
//   - 维护 WebSocket 事件网关和 Prometheus 指标
type Handler struct {
	store   storage.PersistentStore
	summary cache.SummaryCache // 仪表盘汇总缓存（Redis 或 NoOp）
	photos  *objstore.Client   // 车辆照片对象存储，nil = 未配置
	authCfg auth.Config

	gateway *EventGateway
	metrics *Metrics
	logger  *logging.Logger
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, summary cache.SummaryCache, photos *objstore.Client, authCfg auth.Config) *Handler {
	if summary == nil {
		summary = cache.NewNoOpCache()
	}
	h := &Handler{
		store:   store,
		summary: summary,
		photos:  photos,
		authCfg: authCfg,
	}
	h.metrics = NewMetrics("fleet")
	h.gateway = NewEventGateway(h.metrics)
	h.logger = logging.Default("api-server")
	return h
}

// Gateway 返回事件网关（测试用）
func (h *Handler) Gateway() *EventGateway {
	return h.gateway
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health
//
// 认证 (Auth):
//   - POST /api/v1/auth/login
//   - POST /api/v1/auth/logout
//   - GET  /api/v1/auth/me
//   - PUT  /api/v1/auth/password
//
// 员工账号 (User，仅限管理员):
//   - GET/POST /api/v1/users, GET/PUT/DELETE /api/v1/users/{id}
//
// 车辆目录 (Brand / VehicleModel):
//   - GET/POST /api/v1/brands, GET/PUT/DELETE /api/v1/brands/{id}
//   - GET/POST /api/v1/vehicle-models, GET/PUT/DELETE /api/v1/vehicle-models/{id}
//
// 车辆 (Vehicle):
//   - GET/POST /api/v1/vehicles, GET/PUT/DELETE /api/v1/vehicles/{id}
//   - POST /api/v1/vehicles/{id}/photos
//   - GET/DELETE /api/v1/vehicles/{id}/photos/{photoID}
//
// 仪表盘:
//   - GET /api/v1/dashboard/summary
//
// WebSocket:
//   - GET /ws/events - 领域变更实时推送
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 路由
	authHandler := auth.NewHandler(h.store, h.authCfg)
	authHandler.RegisterRoutes(mux)

	// 员工账号（仅限管理员）
	userHandler := user.NewHandler(h.store, h.summary, h.gateway)
	userHandler.RegisterRoutes(mux)

	// 车辆目录
	brandHandler := brand.NewHandler(h.store, h.summary, h.gateway)
	brandHandler.RegisterRoutes(mux)
	modelHandler := vehiclemodel.NewHandler(h.store, h.summary, h.gateway)
	modelHandler.RegisterRoutes(mux)

	// 车辆（照片存储未配置时传 nil，照片接口返回 503）
	var photoStore vehicle.PhotoStore
	if h.photos != nil {
		photoStore = h.photos
	}
	vehicleHandler := vehicle.NewHandler(h.store, photoStore, h.summary, h.gateway)
	vehicleHandler.RegisterRoutes(mux)

	// 仪表盘
	dashHandler := dashboard.NewHandler(h.store, h.summary)
	dashHandler.RegisterRoutes(mux)

	// 应用指标中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authCfg)(apiHandler)

	// 访问日志 + CORS
	loggedHandler := h.loggingMiddleware(authedHandler)
	corsHandler := corsMiddleware(loggedHandler)

	// 顶层路由，WebSocket 绕过 metrics 中间件（避免 http.Hijacker 问题）
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /ws/events", h.gateway.HandleWebSocket)
	topMux.Handle("/", corsHandler)

	return topMux
}

// Health 服务健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// loggingMiddleware 结构化访问日志
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		h.logger.HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), r.RemoteAddr)
	})
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
