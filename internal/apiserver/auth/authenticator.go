package auth

import (
	"context"
	"fmt"
	"log"

	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storage"
)

// 拒绝原因
//
// 未知邮箱和密码错误共用同一个通用原因，不向调用方暴露账号是否存在。
// 停用账号在密码验证通过后才区分出来，便于一线支持排查。
const (
	ReasonInvalidCredentials = "invalid email or password"
	ReasonInactiveAccount    = "account is inactive"
)

// Result 认证结果
// 认证失败是正常业务结果，不是 error；error 只表示存储层故障。
type Result struct {
	OK        bool
	Reason    string
	Principal *model.Principal
}

func declined(reason string) *Result {
	return &Result{OK: false, Reason: reason}
}

// Authenticator 邮箱+密码 → 认证结果的唯一入口
type Authenticator struct {
	store storage.UserStore
}

// NewAuthenticator 创建认证器
func NewAuthenticator(store storage.UserStore) *Authenticator {
	return &Authenticator{store: store}
}

// Authenticate 校验邮箱与密码
//
// 流程：规范化邮箱查找 → 摘要校验 → 状态检查 → 提取 Principal。
// 状态检查放在摘要校验之后：不持有正确密码的人探测不到账号停用状态。
// 旧格式摘要在登录成功后惰性升级，升级失败只记日志，不影响本次登录。
// 密码明文绝不写入日志。
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*Result, error) {
	user, err := a.store.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if user == nil {
		return declined(ReasonInvalidCredentials), nil
	}

	if !VerifyPassword(password, user.PasswordDigest) {
		return declined(ReasonInvalidCredentials), nil
	}

	if user.Status != model.UserStatusActive {
		return declined(ReasonInactiveAccount), nil
	}

	if NeedsRehash(user.PasswordDigest) {
		a.rehash(ctx, user.ID, password)
	}

	return &Result{OK: true, Principal: model.NewPrincipal(user)}, nil
}

// rehash 将旧格式摘要升级为当前格式（尽力而为）
func (a *Authenticator) rehash(ctx context.Context, userID, password string) {
	digest, err := HashPassword(password)
	if err != nil {
		log.Printf("[auth] rehash generate failed for user %s: %v", userID, err)
		return
	}
	if err := a.store.UpdateUserDigest(ctx, userID, digest); err != nil {
		log.Printf("[auth] rehash persist failed for user %s: %v", userID, err)
	}
}
