// Package storagetypes 存储层共享类型
//
// 单独成包以避免 storage ↔ repository 之间的循环导入：
// 驱动实现只依赖这里，storage 包再将类型重导出给业务层。
package storagetypes

import (
	"errors"

	"fleet-admin/internal/shared/model"
)

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows / mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate 唯一键冲突（重复 ID 或重复邮箱）
	ErrDuplicate = errors.New("duplicate: entity already exists")

	// ErrConflict 并发冲突
	ErrConflict = errors.New("conflict: concurrent modification detected")
)

// VehicleFilter 车辆列表过滤条件，零值表示不过滤
type VehicleFilter struct {
	BrandID string
	ModelID string
	Status  model.VehicleStatus
}
