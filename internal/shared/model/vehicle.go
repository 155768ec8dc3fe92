// Package model 定义核心数据模型
//
// vehicle.go 包含车辆记录及其状态枚举。
package model

import (
	"fmt"
	"strings"
	"time"
)

// VehicleStatus 车辆状态
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusInUse       VehicleStatus = "in_use"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusRetired     VehicleStatus = "retired"
)

// Valid 状态是否为已知枚举值
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusInUse, VehicleStatusMaintenance, VehicleStatusRetired:
		return true
	}
	return false
}

// Vehicle 车辆记录
//
// BrandID/ModelID 引用目录实体，且 ModelID 指向的车型必须属于 BrandID
// 指向的品牌，由应用层在写入前校验。
// PhotoKeys 保存对象存储中的照片键，图片本体不进数据库。
type Vehicle struct {
	ID        string        `json:"id" bson:"_id" db:"id"`
	Plate     string        `json:"plate" bson:"plate" db:"plate"`
	BrandID   string        `json:"brand_id" bson:"brand_id" db:"brand_id"`
	ModelID   string        `json:"model_id" bson:"model_id" db:"model_id"`
	Year      int           `json:"year" bson:"year" db:"year"`
	Color     string        `json:"color,omitempty" bson:"color,omitempty" db:"color"`
	Mileage   int           `json:"mileage" bson:"mileage" db:"mileage"`
	Status    VehicleStatus `json:"status" bson:"status" db:"status"`
	PhotoKeys []string      `json:"photo_keys" bson:"photo_keys" db:"photo_keys"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// Validate 校验车辆字段
func (v *Vehicle) Validate() error {
	if strings.TrimSpace(v.Plate) == "" {
		return fmt.Errorf("plate is required")
	}
	if len(v.Plate) > 20 {
		return fmt.Errorf("plate must be at most 20 characters")
	}
	if v.BrandID == "" {
		return fmt.Errorf("brand_id is required")
	}
	if v.ModelID == "" {
		return fmt.Errorf("model_id is required")
	}
	if v.Year != 0 && (v.Year < 1950 || v.Year > time.Now().Year()+1) {
		return fmt.Errorf("year out of range")
	}
	if v.Mileage < 0 {
		return fmt.Errorf("mileage must not be negative")
	}
	if !v.Status.Valid() {
		return fmt.Errorf("invalid vehicle status")
	}
	return nil
}
