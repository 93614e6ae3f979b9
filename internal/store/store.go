// 包 store 提供缓存存储实现（SQLite/Redis/内存），以字节串键值保存原始数据与登录标记。
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"linkedin-analytics/internal/config"
)

// 缓存键。
const (
	KeyData = "linkedInAnalyticsData"
	KeyUser = "linkedInAnalyticsUser"
)

// ErrNotFound 表示键不存在。
var ErrNotFound = errors.New("store: key not found")

// BlobStore 为键值缓存的最小接口。
type BlobStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Reset(ctx context.Context) error
	Close() error
}

var (
	_ BlobStore = (*SQLite)(nil)
	_ BlobStore = (*Redis)(nil)
	_ BlobStore = (*Memory)(nil)
)

// Open 按配置打开缓存后端。
func Open(ctx context.Context, c config.Cache) (BlobStore, error) {
	switch c.Type {
	case "", "sqlite":
		return OpenSQLite(c.DSN)
	case "redis":
		return OpenRedis(ctx, RedisOptions{
			Host:     c.Host,
			Port:     c.Port,
			Password: c.Password,
			DB:       c.DB,
			TTL:      c.TTL(),
		})
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", c.Type)
	}
}

// Memory 为进程内实现，用于测试与不需要持久化的场景。
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemory() *Memory { return &Memory{m: map[string][]byte{}} }

func (s *Memory) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("key required")
	}
	cp := append([]byte(nil), value...)
	s.mu.Lock()
	s.m[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

func (s *Memory) Reset(_ context.Context) error {
	s.mu.Lock()
	s.m = map[string][]byte{}
	s.mu.Unlock()
	return nil
}

func (s *Memory) Close() error { return nil }
