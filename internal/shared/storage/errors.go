// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（mongostore/repository）负责将底层错误转换为这些领域错误。
// 实际定义在 storagetypes 包中（避免与驱动实现循环导入），此处重导出。
package storage

import "fleet-admin/internal/shared/storagetypes"

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows / mongo.ErrNoDocuments
	ErrNotFound = storagetypes.ErrNotFound

	// ErrDuplicate 唯一键冲突（重复 ID 或重复邮箱）
	ErrDuplicate = storagetypes.ErrDuplicate

	// ErrConflict 并发冲突
	ErrConflict = storagetypes.ErrConflict
)
