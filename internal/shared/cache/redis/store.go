// Package redis Redis 缓存实现
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyOTPCooldown 冷却键格式：otp:cooldown:{phone}
const KeyOTPCooldown = "otp:cooldown:%s"

// Store Redis 缓存存储
type Store struct {
	client *redis.Client
}

// NewStoreFromURL 从 URL 创建 Redis 缓存实例
func NewStoreFromURL(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Cache] Connected to %s", opts.Addr)
	return &Store{client: client}, nil
}

// NewStoreFromClient 从现有 Redis 客户端创建缓存实例
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// SetOTPCooldown 设置冷却键，依赖 Redis TTL 自动过期
func (s *Store) SetOTPCooldown(ctx context.Context, phone string, ttl time.Duration) error {
	key := fmt.Sprintf(KeyOTPCooldown, phone)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// InOTPCooldown 冷却键存在即处于冷却窗口内
func (s *Store) InOTPCooldown(ctx context.Context, phone string) (bool, error) {
	key := fmt.Sprintf(KeyOTPCooldown, phone)
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}
