package ai

import (
	"context"
	"fmt"
	"strings"

	"recipe-helper/internal/core/ai/cache"
	"recipe-helper/internal/core/recipe"
	"recipe-helper/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultSystemPrompt 烹飪助理的預設 system prompt
const DefaultSystemPrompt = "You are a helpful cooking assistant. Answer concisely and use numbered steps when describing actions."

// Chatter 能回覆對話的後端，*Client 實作此介面
type Chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Model() string
}

// Assistant 針對選定食譜回答自由提問
type Assistant struct {
	chat         Chatter
	store        cache.Store
	systemPrompt string
}

// NewAssistant 創建助理；store 可為 nil（不快取）
func NewAssistant(chat Chatter, store cache.Store, systemPrompt string) *Assistant {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Assistant{chat: chat, store: store, systemPrompt: systemPrompt}
}

// Enabled 是否可用；nil 助理視為停用
func (a *Assistant) Enabled() bool {
	return a != nil && a.chat != nil
}

// Ask 以食譜為上下文回答問題，相同問題會從快取取得
func (a *Assistant) Ask(ctx context.Context, question string, r recipe.Recipe) (string, error) {
	if !a.Enabled() {
		return "", ErrAssistantDisabled
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", common.NewValidationError("question is empty")
	}

	key := cache.Key("qa", a.chat.Model(), recipe.Normalize(r.Title), recipe.Normalize(question))
	if a.store != nil {
		if answer, ok := a.store.Get(ctx, key); ok {
			return answer, nil
		}
	}

	answer, err := a.chat.Chat(ctx, BuildQAMessages(a.systemPrompt, question, r))
	if err != nil {
		return "", err
	}

	if a.store != nil {
		if err := a.store.Set(ctx, key, answer); err != nil {
			common.LogWarn("快取寫入失敗", zap.Error(err))
		}
	}
	return answer, nil
}

// BuildQAMessages 組合 system prompt、食譜摘要與使用者問題
func BuildQAMessages(systemPrompt, question string, r recipe.Recipe) []Message {
	summary := fmt.Sprintf("Title: %s\nTime: %s\nIngredients: %s\nSteps: %s",
		r.Title, r.Time, strings.Join(r.Ingredients, ", "), strings.Join(r.Steps, " | "))
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Recipe context:\n" + summary},
		{Role: "user", Content: "User question: " + question},
	}
}
