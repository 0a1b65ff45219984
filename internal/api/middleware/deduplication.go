package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"recipe-helper/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultDedupWindow = time.Second

// deduplicator 記錄近期 POST 請求指紋
type deduplicator struct {
	window time.Duration

	mu        sync.Mutex
	requests  map[string]time.Time
	lastPurge time.Time
}

// Deduplication 請求去重中間件：window 內相同路徑與內容的 POST 請求回傳 429
func Deduplication(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = defaultDedupWindow
	}
	d := &deduplicator{
		window:    window,
		requests:  make(map[string]time.Time),
		lastPurge: time.Now(),
	}

	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrRequestTooLarge.Response(false))
				return
			}

			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		// 生成請求指紋
		fingerprint := c.Request.Method + ":" + c.Request.URL.Path + ":" + c.ClientIP()
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		if d.seen(fingerprint, time.Now()) {
			common.LogDebug("重複請求", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(common.ErrTooManyRequests.Status, common.ErrTooManyRequests.Response(false))
			return
		}

		c.Next()
	}
}

// seen 檢查指紋是否在視窗內出現過，並記錄本次請求
func (d *deduplicator) seen(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	// 定期清理過期指紋
	if now.Sub(d.lastPurge) > 10*d.window {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
		d.lastPurge = now
	}

	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}
