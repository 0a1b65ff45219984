package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-helper/internal/infrastructure/config"
	"recipe-helper/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	// ErrAssistantDisabled 未設定 API Key 或已停用
	ErrAssistantDisabled = common.ErrAssistantDisabled
	// ErrEmptyResponse 模型沒有回傳內容
	ErrEmptyResponse = errors.New("empty response from assistant")
)

// Client OpenAI 相容的 chat/completions 客戶端
type Client struct {
	client      *resty.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewClient 創建客戶端；助理未啟用時回傳 ErrAssistantDisabled
func NewClient(cfg config.AssistantConfig) (*Client, error) {
	if !cfg.Active() {
		return nil, ErrAssistantDisabled
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Recipe Helper")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Model 使用中的模型名稱
func (c *Client) Model() string {
	return c.model
}

// Chat 發送對話並回傳第一個選項的內容
func (c *Client) Chat(ctx context.Context, messages []Message) (content string, err error) {
	start := time.Now()
	defer func() { common.LogAICall(c.model, time.Since(start), err) }()

	req := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	var result ChatResponse
	var apiErr APIError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", common.ErrGatewayTimeout.Wrap(err)
		}
		return "", common.ErrAIServiceError.Wrap(fmt.Errorf("failed to send request: %w", err))
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		common.LogError("AI service returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", c.model),
			zap.String("response", msg),
		)
		return "", common.ErrAIServiceError.Wrap(fmt.Errorf("status %d: %s", resp.StatusCode(), msg))
	}

	if len(result.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content = strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	common.LogDebug("AI 回應完成",
		zap.String("model", c.model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)
	return content, nil
}

// Prompt 以單一 system 與 user 訊息發送請求
func (c *Client) Prompt(ctx context.Context, system, user string) (string, error) {
	return c.Chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
}
