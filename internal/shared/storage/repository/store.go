// Package repository 数据库无关的业务逻辑存储层
//
// 通过 dbutil.Dialect 接口屏蔽不同数据库的 SQL 差异，
// 所有 SQL 以 PostgreSQL 风格编写，运行时由 Dialect.Rebind() 转换。
package repository

import (
	"database/sql"
	"encoding/json"

	"fleet-admin/internal/shared/storage/dbutil"
	"fleet-admin/internal/shared/storagetypes"
)

// Store 通用存储实现
// 实现了 storage.PersistentStore 接口
type Store struct {
	db      *sql.DB
	dialect dbutil.Dialect
}

// NewStore 创建通用存储
func NewStore(db *sql.DB, dialect dbutil.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// DB 返回底层数据库连接（仅用于测试）
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect 返回当前方言
func (s *Store) Dialect() dbutil.Dialect {
	return s.dialect
}

// rebind 快捷方法：将 PG 风格 SQL 转换为当前方言
func (s *Store) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// wrapWriteErr 将底层写入错误转换为领域错误
func (s *Store) wrapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if s.dialect.IsUniqueViolation(err) {
		return storagetypes.ErrDuplicate
	}
	return err
}

// marshalKeys 照片键列表以 JSON 存入 TEXT 列
func marshalKeys(keys []string) string {
	if keys == nil {
		keys = []string{}
	}
	b, _ := json.Marshal(keys)
	return string(b)
}

func unmarshalKeys(raw string) []string {
	var keys []string
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &keys)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys
}

// affectedOrNotFound 按行数判断目标是否存在
func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storagetypes.ErrNotFound
	}
	return nil
}
