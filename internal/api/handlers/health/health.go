package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-helper/internal/core/ai/cache"
	"recipe-helper/internal/core/ai/queue"
	"recipe-helper/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Catalog   CatalogStatus          `json:"catalog"`
	Assistant bool                   `json:"assistant_enabled"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
}

// CatalogStatus 目錄狀態
type CatalogStatus struct {
	Recipes int `json:"recipes"`
	Diets   int `json:"diets"`
}

// Sources 健康檢查讀取的狀態來源；Queue 與 Cache 可為 nil
type Sources struct {
	Catalog   func() CatalogStatus
	Queue     *queue.Manager
	Cache     cache.Store
	Assistant bool
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	src     Sources
}

// NewHandler 創建健康檢查處理器
func NewHandler(version string, src Sources) *Handler {
	return &Handler{version: version, src: src}
}

// queueStatus 隊列狀態，未啟用時為 nil
func (h *Handler) queueStatus() *queue.Status {
	if h.src.Queue == nil {
		return nil
	}
	status := h.src.Queue.Status()
	return &status
}

// cacheStats 記憶體緩存統計；Redis 或未啟用時為 nil
func (h *Handler) cacheStats() *cache.Stats {
	m, ok := h.src.Cache.(*cache.Manager)
	if !ok || m == nil {
		return nil
	}
	stats := m.Stats()
	return &stats
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Catalog:   h.src.Catalog(),
		Assistant: h.src.Assistant,
		Queue:     h.queueStatus(),
		Cache:     h.cacheStats(),
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器；目錄載入後即可服務
func (h *Handler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"recipes": h.src.Catalog().Recipes,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
