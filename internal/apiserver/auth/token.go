package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"fleet-admin/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyPrincipal contextKey = "auth_principal"

// Config 认证配置
type Config struct {
	// SessionSecret 会话令牌签名密钥，从 SESSION_SECRET 环境变量读取
	SessionSecret string `yaml:"-"`
}

// Enabled 是否启用认证
// 未配置密钥时放行所有请求（仅限本地开发）。
func (c Config) Enabled() bool {
	return c.SessionSecret != ""
}

// ============================================================================
// 会话令牌
//
// 会话就是客户端持有的一份非敏感身份字段，没有服务端会话表，
// 也没有过期时间（刻意不设 exp，客户端登出即失效）。
// ============================================================================

// Claims 会话令牌声明
type Claims struct {
	jwt.RegisteredClaims
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Profile  string `json:"profile,omitempty"`
}

// GenerateToken 为认证通过的身份签发 HS256 令牌
func GenerateToken(cfg Config, p *model.Principal) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: p.ID,
		},
		FullName: p.FullName,
		Email:    p.Email,
		Profile:  string(p.Profile),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SessionSecret))
}

// ParseToken 解析令牌并还原 Principal
//
// 签名无效、算法不符或必填身份字段缺失都视为无效令牌；
// 缺字段的令牌等同于损坏的会话缓存，持有方应要求重新登录。
func ParseToken(cfg Config, tokenString string) (*model.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.SessionSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	p := &model.Principal{
		ID:       claims.Subject,
		FullName: claims.FullName,
		Email:    claims.Email,
		Profile:  model.UserProfile(claims.Profile),
	}
	if !p.Valid() {
		return nil, fmt.Errorf("token missing required identity fields")
	}
	return p, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithPrincipal 将认证身份注入 context
func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// GetPrincipal 从 context 获取认证身份
func GetPrincipal(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(ctxKeyPrincipal).(*model.Principal)
	return p
}
