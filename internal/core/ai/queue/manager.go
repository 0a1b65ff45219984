package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"recipe-helper/internal/core/ai"
	"recipe-helper/internal/infrastructure/config"
	"recipe-helper/internal/pkg/common"

	"go.uber.org/zap"
)

// request 隊列請求
type request struct {
	ctx      context.Context
	messages []ai.Message
	result   chan result
}

// result 處理結果
type result struct {
	content string
	err     error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 隊列管理器，以固定數量的 worker 轉送對話請求，限制同時打到上游的請求數
type Manager struct {
	chat      ai.Chatter
	maxSize   int
	workers   int
	queue     chan *request
	done      chan struct{}
	processed int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager 創建新的隊列管理器並啟動 worker
func NewManager(chat ai.Chatter, cfg config.QueueConfig) *Manager {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	m := &Manager{
		chat:    chat,
		maxSize: maxSize,
		workers: workers,
		queue:   make(chan *request, maxSize),
		done:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// Model 上游使用的模型名稱
func (m *Manager) Model() string {
	return m.chat.Model()
}

// Chat 將請求加入隊列並等待結果；隊列已滿時立即回傳 ErrQueueFull
func (m *Manager) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	select {
	case <-m.done:
		return "", common.ErrQueueClosed
	default:
	}

	req := &request{ctx: ctx, messages: messages, result: make(chan result, 1)}

	// 加入隊列
	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
	default:
		common.LogWarn("Assistant queue is full", zap.Int("max_queue_size", m.maxSize))
		return "", common.ErrQueueFull
	}

	select {
	case res := <-req.result:
		if res.err != nil && ctx.Err() != nil {
			return "", common.ErrGatewayTimeout.Wrap(ctx.Err())
		}
		return res.content, res.err
	case <-ctx.Done():
		return "", common.ErrGatewayTimeout.Wrap(ctx.Err())
	case <-m.done:
		return "", common.ErrQueueClosed
	}
}

// Prompt 以單一 system 與 user 訊息送出請求
func (m *Manager) Prompt(ctx context.Context, system, user string) (string, error) {
	return m.Chat(ctx, []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
}

// Status 獲取隊列狀態
func (m *Manager) Status() Status {
	return Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 關閉隊列管理器並等待 worker 結束，可重複呼叫
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			m.handle(req)
		}
	}
}

func (m *Manager) handle(req *request) {
	// 等待期間已取消的請求不再送出
	if err := req.ctx.Err(); err != nil {
		req.result <- result{err: err}
		return
	}

	content, err := m.chat.Chat(req.ctx, req.messages)
	atomic.AddInt64(&m.processed, 1)
	if err != nil && !errors.Is(err, context.Canceled) {
		common.LogDebug("Queued request failed", zap.Error(err))
	}
	req.result <- result{content: content, err: err}
}
