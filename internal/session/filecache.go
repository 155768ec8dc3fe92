package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileCache 文件实现的键值缓存
//
// 整个缓存是一个 JSON 对象文件，0600 权限（令牌在里面）。
// 只有 fleetctl 这种单进程客户端使用，不做并发写保护。
type FileCache struct {
	path string
}

// NewFileCache 创建文件缓存
// path 为空时落到 ~/.fleetctl/session.json。
func NewFileCache(path string) (*FileCache, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("session: resolve home dir: %w", err)
		}
		path = filepath.Join(home, ".fleetctl", "session.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("session: create cache dir: %w", err)
	}
	return &FileCache{path: path}, nil
}

func (c *FileCache) load() (map[string]string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		// 损坏的缓存文件按空缓存处理，下次写入时覆盖
		return map[string]string{}, nil
	}
	return m, nil
}

func (c *FileCache) save(m map[string]string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

func (c *FileCache) Get(key string) (string, bool, error) {
	m, err := c.load()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (c *FileCache) Set(key, value string) error {
	m, err := c.load()
	if err != nil {
		return err
	}
	m[key] = value
	return c.save(m)
}

func (c *FileCache) Delete(key string) error {
	m, err := c.load()
	if err != nil {
		return err
	}
	delete(m, key)
	return c.save(m)
}

var _ Cache = (*FileCache)(nil)
