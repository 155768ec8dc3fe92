// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（密码、密钥）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 凭据单一数据源：密码/密钥只存在 .env 中，YAML 不存任何密码。
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fleet-admin/internal/shared/storage/dbutil"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env Environment

	// 存储
	Driver      dbutil.DriverType // mongodb | sqlite | postgres
	MongoURI    string
	MongoDBName string
	DatabaseURL string // sqlite DSN 或 postgres URL

	// 可选基础设施
	RedisURL string // 空 = 不启用缓存
	MinIO    MinIOConfig

	// HTTP
	APIPort string

	// 认证（只从环境变量读取）
	SessionSecret string
	AdminEmail    string
	AdminPassword string
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))
	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:         env,
		Driver:      dbutil.DriverType(getEnv("DB_DRIVER", yamlCfg.Database.Driver)),
		MongoURI:    getEnv("MONGO_URI", yamlCfg.Database.MongoURI),
		MongoDBName: getEnv("MONGO_DB", yamlCfg.Database.MongoName),
		APIPort:     getEnv("API_PORT", yamlCfg.Server.Port),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	switch cfg.Driver {
	case dbutil.DriverSQLite:
		cfg.DatabaseURL = getEnv("SQLITE_DSN", yamlCfg.Database.SQLiteDSN)
	case dbutil.DriverPostgres:
		cfg.DatabaseURL = buildDatabaseURL(yamlCfg.Database, os.Getenv("DB_PASSWORD"))
	}

	if yamlCfg.Redis.Enabled {
		cfg.RedisURL = buildRedisURL(yamlCfg.Redis, os.Getenv("REDIS_PASSWORD"))
	}

	cfg.MinIO = yamlCfg.MinIO
	cfg.MinIO.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
	cfg.MinIO.SecretKey = os.Getenv("MINIO_SECRET_KEY")

	return cfg
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Driver:    "mongodb",
			MongoURI:  "mongodb://localhost:27017",
			MongoName: "fleet_admin",
			SQLiteDSN: "file:fleet.db?cache=shared&mode=rwc",
			Host:      "localhost", Port: 5432, User: "fleet", Name: "fleet_admin", SSLMode: "disable",
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379, DB: 0},
	}

	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// buildDatabaseURL 构建 PostgreSQL 连接字符串
func buildDatabaseURL(db DatabaseConfig, password string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, password, db.Host, db.Port, db.Name, db.SSLMode)
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(redis RedisConfig, password string) string {
	if password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", password, redis.Host, redis.Port, redis.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Driver: %s, DB: %s, Redis: %s}",
		c.Env, c.Driver, maskPassword(c.DatabaseURL), maskPassword(c.RedisURL))
}

// maskPassword 隐藏连接串中的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:/]*:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
