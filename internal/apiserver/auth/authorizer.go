package auth

import (
	"errors"

	"fleet-admin/internal/shared/model"
)

// ============================================================================
// 删除授权
//
// 账号删除前的三道检查，全部在任何存储写入之前完成：
//   1. 只有管理员能删除账号
//   2. 不能删除自己（防止把自己锁在系统外）
//   3. 带保护标记的账号（引导创建的管理员）谁都不能删
// ============================================================================

var (
	// ErrAdminRequired 操作者不是管理员
	ErrAdminRequired = errors.New("admin access required")

	// ErrSelfDelete 操作者试图删除自己的账号
	ErrSelfDelete = errors.New("cannot delete your own account")

	// ErrProtectedAccount 目标账号带保护标记
	ErrProtectedAccount = errors.New("this account is protected and cannot be deleted")
)

// CanDeleteUser 判定 actor 是否允许删除 target
// 角色是封闭枚举：未知角色按无权限处理，不会因拼写错误悄悄放行。
func CanDeleteUser(actor *model.Principal, target *model.User) error {
	if actor == nil || actor.Profile != model.ProfileAdmin {
		return ErrAdminRequired
	}
	if actor.ID == target.ID {
		return ErrSelfDelete
	}
	if target.IsProtected {
		return ErrProtectedAccount
	}
	return nil
}

// CanManageUsers 判定 actor 是否允许进入用户管理功能
func CanManageUsers(actor *model.Principal) error {
	if actor == nil || actor.Profile != model.ProfileAdmin {
		return ErrAdminRequired
	}
	return nil
}
