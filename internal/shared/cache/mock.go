package cache

import (
	"context"
	"sync"
	"time"
)

// NoOpCache 空操作缓存实现（用于测试或未配置 Redis 的部署）
// 永远不处于冷却状态。
type NoOpCache struct{}

// NewNoOpCache 创建 NoOpCache 实例
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) SetOTPCooldown(_ context.Context, _ string, _ time.Duration) error {
	return nil
}

func (c *NoOpCache) InOTPCooldown(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (c *NoOpCache) Close() error {
	return nil
}

var _ Cache = (*NoOpCache)(nil)

// MemoryCache 内存缓存实现（单元测试覆盖冷却逻辑时使用）
type MemoryCache struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryCache 创建 MemoryCache 实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock 注入时钟（测试用）
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *MemoryCache) SetOTPCooldown(_ context.Context, phone string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires[phone] = c.now().Add(ttl)
	return nil
}

func (c *MemoryCache) InOTPCooldown(_ context.Context, phone string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline, ok := c.expires[phone]
	if !ok {
		return false, nil
	}
	if c.now().After(deadline) {
		delete(c.expires, phone)
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) Close() error {
	return nil
}

var _ Cache = (*MemoryCache)(nil)
