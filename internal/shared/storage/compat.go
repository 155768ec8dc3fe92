// Package storage 多数据库工厂
//
// 多数据库支持：
//   - 使用 NewPersistentStoreFromDSN(driverType, dsn) 创建持久化存储
//   - 或直接使用 mongostore.NewStore() / NewSQLiteStore() 创建特定数据库存储
package storage

import (
	"fmt"

	"fleet-admin/internal/shared/storage/dbutil"
	postgresdriver "fleet-admin/internal/shared/storage/driver/postgres"
	sqlitedriver "fleet-admin/internal/shared/storage/driver/sqlite"
	"fleet-admin/internal/shared/storage/repository"
)

// RepositoryStore 是 repository.Store 的类型别名
type RepositoryStore = repository.Store

// Compile-time interface check
var _ PersistentStore = (*repository.Store)(nil)

// NewSQLiteStore 创建 SQLite 存储（含自动建表）
func NewSQLiteStore(dsn string) (*RepositoryStore, error) {
	db, err := sqlitedriver.Open(dsn)
	if err != nil {
		return nil, err
	}
	dialect := sqlitedriver.NewDialect()
	if err := dialect.AutoMigrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite auto-migrate failed: %w", err)
	}
	return repository.NewStore(db, dialect), nil
}

// NewPostgresStore 创建 PostgreSQL 存储（含幂等建表）
func NewPostgresStore(databaseURL string) (*RepositoryStore, error) {
	db, err := postgresdriver.Open(databaseURL)
	if err != nil {
		return nil, err
	}
	dialect := postgresdriver.NewDialect()
	if err := dialect.AutoMigrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres auto-migrate failed: %w", err)
	}
	return repository.NewStore(db, dialect), nil
}

// NewPersistentStoreFromDSN 根据驱动类型和 DSN 创建持久化存储
// 支持的驱动类型：postgres, sqlite
// mongodb 需要额外的数据库名参数，在 main 中直接调用 mongostore.NewStore
func NewPersistentStoreFromDSN(driver dbutil.DriverType, dsn string) (PersistentStore, error) {
	switch driver {
	case dbutil.DriverPostgres:
		return NewPostgresStore(dsn)
	case dbutil.DriverSQLite:
		return NewSQLiteStore(dsn)
	case dbutil.DriverMongoDB:
		return nil, fmt.Errorf("mongodb driver requires a database name; use mongostore.NewStore(uri, dbName)")
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
