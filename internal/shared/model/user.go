// Package model 定义核心数据模型
//
// user.go 包含员工账号相关的数据模型定义：
//   - User：员工账号记录
//   - UserProfile：角色枚举（admin / technician）
//   - UserStatus：账号状态枚举（active / inactive）
//   - Principal：认证成功后缓存的非敏感身份视图
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// UserProfile 用户角色
//
// 角色是封闭枚举：所有权限判定点必须通过 Valid() 校验，
// 避免拼错的角色字符串悄悄放行或拒绝。
type UserProfile string

const (
	ProfileAdmin      UserProfile = "admin"
	ProfileTechnician UserProfile = "technician"
)

// Valid 角色是否为已知枚举值
func (p UserProfile) Valid() bool {
	return p == ProfileAdmin || p == ProfileTechnician
}

// UserStatus 账号状态
//
// inactive 账号即使密码正确也无法登录。
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Valid 状态是否为已知枚举值
func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// User 员工账号
//
// PasswordDigest 永远不出现在 JSON 序列化结果中。
// IsProtected 标记系统保留账号（如引导创建的管理员），任何人都不能删除。
type User struct {
	ID             string      `json:"id" bson:"_id" db:"id"`
	FullName       string      `json:"full_name" bson:"full_name" db:"full_name"`
	Email          string      `json:"email" bson:"email" db:"email"`
	PasswordDigest string      `json:"-" bson:"password_digest" db:"password_digest"`
	Company        string      `json:"company,omitempty" bson:"company,omitempty" db:"company"`
	Profile        UserProfile `json:"profile" bson:"profile" db:"profile"`
	Phone          string      `json:"phone,omitempty" bson:"phone,omitempty" db:"phone"`
	Status         UserStatus  `json:"status" bson:"status" db:"status"`
	IsProtected    bool        `json:"is_protected" bson:"is_protected" db:"is_protected"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// 字段长度约束
const (
	MaxFullNameLen = 50
	MaxCompanyLen  = 50
	MaxPhoneLen    = 20

	// MinPasswordLen 密码最小长度，由调用方在哈希前校验
	MinPasswordLen = 6
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail 统一邮箱形式：去空白 + 小写
// 查找和唯一性判断都基于规范化后的值。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail 邮箱格式是否合法
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// Validate 校验账号字段（不含密码，密码在哈希前单独校验）
func (u *User) Validate() error {
	if strings.TrimSpace(u.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	if len(u.FullName) > MaxFullNameLen {
		return fmt.Errorf("full_name must be at most %d characters", MaxFullNameLen)
	}
	if !ValidEmail(u.Email) {
		return fmt.Errorf("invalid email format")
	}
	if len(u.Company) > MaxCompanyLen {
		return fmt.Errorf("company must be at most %d characters", MaxCompanyLen)
	}
	if len(u.Phone) > MaxPhoneLen {
		return fmt.Errorf("phone must be at most %d characters", MaxPhoneLen)
	}
	if !u.Profile.Valid() {
		return fmt.Errorf("profile must be admin or technician")
	}
	if !u.Status.Valid() {
		return fmt.Errorf("status must be active or inactive")
	}
	return nil
}

// Principal 认证成功后缓存的身份视图
//
// 只包含非敏感字段，可以安全地序列化进客户端会话缓存。
type Principal struct {
	ID       string      `json:"id"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Profile  UserProfile `json:"profile"`
}

// Valid 必填字段是否齐全
// 缓存的会话缺任何必填字段都视为损坏，持有方应清除并退回未登录态。
func (p *Principal) Valid() bool {
	return p != nil && p.ID != "" && p.FullName != "" && p.Email != "" && p.Profile.Valid()
}

// NewPrincipal 从账号记录提取身份视图（丢弃密码摘要）
func NewPrincipal(u *User) *Principal {
	return &Principal{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Profile:  u.Profile,
	}
}
