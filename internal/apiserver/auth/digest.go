// Package auth 员工认证：密码摘要、令牌签发、HTTP 中间件与删除授权
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ============================================================================
// 密码摘要
//
// 存量记录经历过三代格式，摘要自带格式判别前缀：
//   - "$2a$" / "$2b$" / "$2y$"：bcrypt，当前格式，新摘要只产生这种
//   - "v1$<salt>$<sum>"：早期自制的加盐 FNV 摘要，非密码学安全
//   - 其他：最早期的明文存储
// 校验按存储格式分派，写入永远用当前格式。
// ============================================================================

// bcryptCost bcrypt 工作因子
const bcryptCost = 12

// HashPassword 用当前格式（bcrypt）生成摘要
// 盐由 bcrypt 每次随机生成并内嵌在输出里，校验不需要旁路信息。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// VerifyPassword 校验密码与存储摘要是否匹配
//
// 摘要缺失或格式损坏一律返回 false，不暴露"无摘要"与"密码错误"的区别。
func VerifyPassword(password, digest string) bool {
	switch {
	case digest == "":
		return false
	case strings.HasPrefix(digest, "$2a$"),
		strings.HasPrefix(digest, "$2b$"),
		strings.HasPrefix(digest, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	case strings.HasPrefix(digest, "v1$"):
		return verifyLegacyV1(password, digest)
	default:
		// 明文存量记录
		return subtle.ConstantTimeCompare([]byte(password), []byte(digest)) == 1
	}
}

// NeedsRehash 存储摘要是否为旧格式
// 旧格式在登录成功后惰性升级为当前格式。
func NeedsRehash(digest string) bool {
	return !strings.HasPrefix(digest, "$2a$") &&
		!strings.HasPrefix(digest, "$2b$") &&
		!strings.HasPrefix(digest, "$2y$")
}

// ============================================================================
// v1 旧格式（只保留校验能力）
// ============================================================================

// legacyHashV1 历史格式：v1$<hex盐>$<FNV-1a(盐+密码)的hex>
// 仅存在于迁移前写入的记录，测试数据也用它构造存量摘要。
func legacyHashV1(password, salt string) string {
	h := fnv.New64a()
	h.Write([]byte(salt))
	h.Write([]byte(password))
	return fmt.Sprintf("v1$%s$%x", salt, h.Sum64())
}

// newLegacySaltV1 生成 v1 格式的随机盐（仅测试构造存量数据时使用）
func newLegacySaltV1() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func verifyLegacyV1(password, digest string) bool {
	parts := strings.SplitN(digest, "$", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return false
	}
	expect := legacyHashV1(password, parts[1])
	return subtle.ConstantTimeCompare([]byte(expect), []byte(digest)) == 1
}
