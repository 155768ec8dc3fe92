// Package model 定义核心数据模型
//
// catalog.go 包含车辆目录相关的数据模型：
//   - Brand：品牌
//   - VehicleModel：车型，隶属于某个品牌
package model

import (
	"fmt"
	"strings"
	"time"
)

// Brand 品牌
type Brand struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Name      string    `json:"name" bson:"name" db:"name"`
	Country   string    `json:"country,omitempty" bson:"country,omitempty" db:"country"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// Validate 校验品牌字段
func (b *Brand) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(b.Name) > 50 {
		return fmt.Errorf("name must be at most 50 characters")
	}
	return nil
}

// VehicleModel 车型
//
// BrandID 引用 Brand.ID。引用完整性由应用层维护：
// 删除品牌前必须确认没有车型引用它。
type VehicleModel struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Name      string    `json:"name" bson:"name" db:"name"`
	BrandID   string    `json:"brand_id" bson:"brand_id" db:"brand_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// Validate 校验车型字段
func (m *VehicleModel) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(m.Name) > 50 {
		return fmt.Errorf("name must be at most 50 characters")
	}
	if m.BrandID == "" {
		return fmt.Errorf("brand_id is required")
	}
	return nil
}
