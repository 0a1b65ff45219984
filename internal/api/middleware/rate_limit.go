package middleware

import (
	"fmt"
	"math"
	"sync"
	"time"

	"recipe-helper/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter 以客戶端 IP 區分的令牌桶限流器
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	window time.Duration

	mu       sync.Mutex
	clients  map[string]*clientLimiter
	lastScan time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 每個客戶端在 window 內最多 requests 次，可瞬間用完
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		window:   window,
		clients:  make(map[string]*clientLimiter),
		lastScan: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.evictIdle(now)

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// evictIdle 移除超過兩個視窗未出現的客戶端，呼叫者需持有鎖
func (rl *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(rl.lastScan) < rl.window {
		return
	}
	rl.lastScan = now
	for key, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > 2*rl.window {
			delete(rl.clients, key)
		}
	}
}

// Middleware 限流中間件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := fmt.Sprintf("%d", int(math.Ceil(rl.window.Seconds()/float64(max(rl.burst, 1)))))

	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			common.LogWarn("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(common.ErrTooManyRequests.Status, common.ErrTooManyRequests.Response(false))
			return
		}

		c.Next()
	}
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return NewRateLimiter(requests, window).Middleware()
}
