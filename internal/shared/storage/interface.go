// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（文档库）、repository/（SQL）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storagetypes"
)

// ============================================================================
// 员工账号
// ============================================================================

// UserStore 员工账号存储
//
// 按邮箱查找使用规范化后的邮箱（小写、去空白）。
// 查找未命中返回 (nil, nil)，不是错误。
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	// UpdateUserDigest 只更新密码摘要，登录时的摘要升级走这里
	UpdateUserDigest(ctx context.Context, id, digest string) error
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int64, error)
}

// ============================================================================
// 车辆目录
// ============================================================================

// BrandStore 品牌存储
type BrandStore interface {
	CreateBrand(ctx context.Context, brand *model.Brand) error
	GetBrandByID(ctx context.Context, id string) (*model.Brand, error)
	ListBrands(ctx context.Context) ([]*model.Brand, error)
	UpdateBrand(ctx context.Context, brand *model.Brand) error
	DeleteBrand(ctx context.Context, id string) error
	CountBrands(ctx context.Context) (int64, error)
}

// VehicleModelStore 车型存储
type VehicleModelStore interface {
	CreateVehicleModel(ctx context.Context, vm *model.VehicleModel) error
	GetVehicleModelByID(ctx context.Context, id string) (*model.VehicleModel, error)
	ListVehicleModels(ctx context.Context, brandID string) ([]*model.VehicleModel, error)
	UpdateVehicleModel(ctx context.Context, vm *model.VehicleModel) error
	DeleteVehicleModel(ctx context.Context, id string) error
	// CountModelsByBrand 品牌删除前的引用检查
	CountModelsByBrand(ctx context.Context, brandID string) (int64, error)
	CountVehicleModels(ctx context.Context) (int64, error)
}

// ============================================================================
// 车辆
// ============================================================================

// VehicleStore 车辆存储
type VehicleStore interface {
	CreateVehicle(ctx context.Context, v *model.Vehicle) error
	GetVehicleByID(ctx context.Context, id string) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, filter VehicleFilter) ([]*model.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *model.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
	// CountVehiclesByModel 车型删除前的引用检查
	CountVehiclesByModel(ctx context.Context, modelID string) (int64, error)
	CountVehicles(ctx context.Context) (int64, error)
	CountVehiclesByStatus(ctx context.Context, status model.VehicleStatus) (int64, error)
}

// VehicleFilter 车辆列表过滤条件（类型重导出，避免循环导入）
type VehicleFilter = storagetypes.VehicleFilter

// ============================================================================
// 组合接口
// ============================================================================

// PersistentStore 持久化存储的完整能力集合
// 由 mongostore.Store 和 repository.Store 实现
type PersistentStore interface {
	UserStore
	BrandStore
	VehicleModelStore
	VehicleStore

	Close() error
}
