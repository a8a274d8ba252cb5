// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"pitwall-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// LimiterStore 抽象固定窗口的计数存储。
// 进程内实现用于单实例部署；多实例部署应切换到 Redis 实现共享计数。
// 计数在并发突发下只保证尽力而为的精度，用于滥用缓解而非安全控制。
type LimiterStore interface {
	// Incr 将窗口内 key 的计数加一并返回当前值，窗口过期自动重置。
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// ---- 进程内实现 ----

type memoryEntry struct {
	count       int64
	windowStart time.Time
}

type memoryLimiterStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryLimiterStore 创建进程内的固定窗口计数存储。
func NewMemoryLimiterStore() LimiterStore {
	return &memoryLimiterStore{entries: make(map[string]*memoryEntry)}
}

func (s *memoryLimiterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, ok := s.entries[key]
	if !ok || now.Sub(entry.windowStart) >= window {
		entry = &memoryEntry{windowStart: now}
		s.entries[key] = entry
	}
	entry.count++
	return entry.count, nil
}

// ---- Redis 实现 ----

type redisLimiterStore struct {
	client *redis.Client
}

// NewRedisLimiterStore 创建 Redis 支撑的固定窗口计数存储。
func NewRedisLimiterStore(client *redis.Client) LimiterStore {
	return &redisLimiterStore{client: client}
}

func (s *redisLimiterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		// 首次计数时设置窗口过期
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// RateLimit 按客户端地址做固定窗口限流，超限返回 429。
// 存储故障时放行请求：限流是滥用缓解，不应成为可用性瓶颈。
func RateLimit(store LimiterStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := store.Incr(c.Request.Context(), c.ClientIP(), window)
		if err != nil {
			log.Warnf("[RateLimit] 计数存储异常，放行请求: %v", err)
			c.Next()
			return
		}
		if count > int64(maxRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "请求过于频繁，请稍后重试",
				"data":    nil,
			})
			return
		}
		c.Next()
	}
}
