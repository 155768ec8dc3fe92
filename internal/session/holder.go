// Package session 客户端会话持有
//
// 会话就是一份缓存在客户端本地的非敏感身份字段（外加服务端签发的令牌），
// 没有过期时间，也没有服务端会话表。Holder 是进程内唯一的会话入口，
// 所有"当前登录者是谁"的判断都从这里走，不允许散落的全局状态。
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"fleet-admin/internal/shared/model"
)

// Cache 键值缓存抽象
// fleetctl 注入文件实现，测试注入内存实现。
type Cache interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// cacheKey 会话在缓存中的固定键
const cacheKey = "session"

// persisted 缓存中的序列化形式
type persisted struct {
	Principal *model.Principal `json:"principal"`
	Token     string           `json:"token"`
}

// Holder 会话状态机
//
// 两个状态：未登录（principal == nil）和已登录。
// 每个客户端进程构造一个，启动时 Restore，之后由 Login/Logout 驱动。
type Holder struct {
	mu        sync.RWMutex
	cache     Cache
	principal *model.Principal
	token     string
}

// NewHolder 创建会话持有器（初始为未登录态）
func NewHolder(cache Cache) *Holder {
	return &Holder{cache: cache}
}

// Restore 从缓存恢复上次的会话
//
// 缓存值完整且必填字段齐全 → 进入已登录态。
// 缓存缺失、无法解析或缺必填字段 → 清掉残值，保持未登录态；
// 损坏的缓存绝不能变成一个"半登录"状态。
func (h *Holder) Restore() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	raw, ok, err := h.cache.Get(cacheKey)
	if err != nil {
		return fmt.Errorf("session: read cache: %w", err)
	}
	if !ok {
		return nil
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil || !p.Principal.Valid() || p.Token == "" {
		// 残缺会话：清除并回到未登录态
		_ = h.cache.Delete(cacheKey)
		return nil
	}

	h.principal = p.Principal
	h.token = p.Token
	return nil
}

// Login 进入已登录态并持久化
func (h *Holder) Login(p *model.Principal, token string) error {
	if !p.Valid() {
		return fmt.Errorf("session: principal missing required fields")
	}
	if token == "" {
		return fmt.Errorf("session: empty token")
	}

	raw, err := json.Marshal(persisted{Principal: p, Token: token})
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.cache.Set(cacheKey, string(raw)); err != nil {
		return fmt.Errorf("session: persist: %w", err)
	}
	h.principal = p
	h.token = token
	return nil
}

// Logout 回到未登录态并清除持久化的会话
func (h *Holder) Logout() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.principal = nil
	h.token = ""
	if err := h.cache.Delete(cacheKey); err != nil {
		return fmt.Errorf("session: clear cache: %w", err)
	}
	return nil
}

// Current 返回当前登录身份，未登录时返回 nil
func (h *Holder) Current() *model.Principal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.principal
}

// Token 返回当前会话令牌，未登录时返回空字符串
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Authenticated 是否处于已登录态
func (h *Holder) Authenticated() bool {
	return h.Current() != nil
}
