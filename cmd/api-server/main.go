// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-admin/internal/apiserver/auth"
	"fleet-admin/internal/apiserver/server"
	"fleet-admin/internal/config"
	"fleet-admin/internal/shared/cache"
	rediscache "fleet-admin/internal/shared/cache/redis"
	"fleet-admin/internal/shared/objstore"
	"fleet-admin/internal/shared/storage"
	"fleet-admin/internal/shared/storage/dbutil"
	"fleet-admin/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换数据库和 Redis）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化持久化存储
	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()
	log.Printf("Connected to database [driver=%s]", cfg.Driver)

	// 初始化 Redis 汇总缓存（未配置或不可用时退回 NoOp）
	var summary cache.SummaryCache = cache.NewNoOpCache()
	if cfg.RedisURL != "" {
		rc, err := rediscache.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable, falling back to no-op cache: %v", err)
		} else {
			summary = rc
			log.Println("Connected to Redis")
		}
	}
	defer summary.Close()

	// 初始化 MinIO 对象存储（未配置时照片接口返回 503）
	var photos *objstore.Client
	if cfg.MinIO.Enabled() {
		client, err := objstore.NewClient(cfg.MinIO)
		if err != nil {
			log.Printf("MinIO unavailable, photo storage disabled: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := client.EnsureBucket(ctx); err != nil {
				log.Printf("MinIO bucket check failed, photo storage disabled: %v", err)
			} else {
				photos = client
				log.Println("Connected to MinIO")
			}
			cancel()
		}
	}

	// 引导管理员账号
	if err := auth.EnsureAdminUser(store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	authCfg := auth.Config{SessionSecret: cfg.SessionSecret}
	if !authCfg.Enabled() {
		log.Println("WARNING: SESSION_SECRET not set, authentication disabled")
	}

	h := server.NewHandler(store, summary, photos, authCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// newStore 按配置的驱动创建持久化存储
func newStore(cfg *config.Config) (storage.PersistentStore, error) {
	if cfg.Driver == dbutil.DriverMongoDB {
		return mongostore.NewStore(cfg.MongoURI, cfg.MongoDBName)
	}
	return storage.NewPersistentStoreFromDSN(cfg.Driver, cfg.DatabaseURL)
}
