package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-helper/internal/core/ai/cache"
	"recipe-helper/internal/core/recipe"
	"recipe-helper/internal/infrastructure/config"
	"recipe-helper/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatter struct {
	answer string
	err    error
	calls  int
	last   []Message
}

func (f *fakeChatter) Chat(_ context.Context, messages []Message) (string, error) {
	f.calls++
	f.last = messages
	return f.answer, f.err
}

func (f *fakeChatter) Model() string { return "fake-model" }

var soup = recipe.Recipe{
	Title:       "Tomato Soup",
	Time:        "30 minutes",
	Ingredients: []string{"tomato", "onion"},
	Steps:       []string{"Chop.", "Simmer."},
}

func TestAssistant_Ask(t *testing.T) {
	chat := &fakeChatter{answer: "1. Simmer longer."}
	a := NewAssistant(chat, nil, "")

	answer, err := a.Ask(context.Background(), "  Can I freeze it? ", soup)
	require.NoError(t, err)
	assert.Equal(t, "1. Simmer longer.", answer)

	require.Len(t, chat.last, 3)
	assert.Equal(t, Message{Role: "system", Content: DefaultSystemPrompt}, chat.last[0])
	assert.Equal(t, "Recipe context:\nTitle: Tomato Soup\nTime: 30 minutes\nIngredients: tomato, onion\nSteps: Chop. | Simmer.", chat.last[1].Content)
	assert.Equal(t, "User question: Can I freeze it?", chat.last[2].Content)
}

func TestAssistant_CachesAnswers(t *testing.T) {
	store := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Minute})
	t.Cleanup(func() { _ = store.Close() })

	chat := &fakeChatter{answer: "Yes."}
	a := NewAssistant(chat, store, "custom prompt")

	for _, q := range []string{"Can I freeze it?", "can i freeze it?  "} {
		answer, err := a.Ask(context.Background(), q, soup)
		require.NoError(t, err)
		assert.Equal(t, "Yes.", answer)
	}
	assert.Equal(t, 1, chat.calls)
	assert.Equal(t, "custom prompt", chat.last[0].Content)

	_, err := a.Ask(context.Background(), "Different question", soup)
	require.NoError(t, err)
	assert.Equal(t, 2, chat.calls)
}

func TestAssistant_Disabled(t *testing.T) {
	var a *Assistant
	assert.False(t, a.Enabled())
	_, err := a.Ask(context.Background(), "hi", soup)
	assert.ErrorIs(t, err, ErrAssistantDisabled)

	_, err = NewAssistant(nil, nil, "").Ask(context.Background(), "hi", soup)
	assert.ErrorIs(t, err, ErrAssistantDisabled)
}

func TestAssistant_Errors(t *testing.T) {
	backend := errors.New("down")
	a := NewAssistant(&fakeChatter{err: backend}, nil, "")

	_, err := a.Ask(context.Background(), "hi", soup)
	assert.ErrorIs(t, err, backend)

	_, err = a.Ask(context.Background(), "   ", soup)
	assert.True(t, common.IsValidationError(err))
}
