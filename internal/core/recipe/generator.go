package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-helper/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrGeneration 模型回覆無法轉為有效食譜
var ErrGeneration = errors.New("recipe generation failed")

// Prompter 能以 system/user 提示取得文字回覆的後端
type Prompter interface {
	Prompt(ctx context.Context, system, user string) (string, error)
}

// GenerateRequest 生成食譜的條件
type GenerateRequest struct {
	Ingredients []string `json:"ingredients"`
	Diet        string   `json:"diet,omitempty"`
	MealType    string   `json:"meal_type,omitempty"`
}

// Generator 透過聊天模型產生與目錄格式相同的食譜
type Generator struct {
	prompter Prompter
}

// NewGenerator 創建食譜生成器
func NewGenerator(p Prompter) *Generator {
	return &Generator{prompter: p}
}

const generatorSystemPrompt = "You are a recipe writer. Reply with a single JSON object only, no prose and no code fences."

// Generate 根據食材與偏好生成一筆食譜
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (Recipe, error) {
	ingredients := make([]string, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if n := Normalize(ing); n != "" {
			ingredients = append(ingredients, n)
		}
	}
	if len(ingredients) == 0 {
		return Recipe{}, fmt.Errorf("%w: no ingredients", ErrGeneration)
	}

	content, err := g.prompter.Prompt(ctx, generatorSystemPrompt, buildGeneratePrompt(ingredients, req))
	if err != nil {
		return Recipe{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	raw, ok := common.ExtractJSONObject(content)
	if !ok {
		return Recipe{}, fmt.Errorf("%w: no JSON object in response", ErrGeneration)
	}
	common.LogDebug("AI 回應內容 (recipe/generate)",
		zap.Int("ai_response_length", len(raw)),
	)

	var result Recipe
	if err := common.ParseJSON(raw, &result); err != nil {
		return Recipe{}, fmt.Errorf("%w: parse response: %w", ErrGeneration, err)
	}

	// 檢查並補充空值
	result.Title = strings.TrimSpace(result.Title)
	if result.Title == "" {
		return Recipe{}, fmt.Errorf("%w: missing title", ErrGeneration)
	}
	steps := make([]string, 0, len(result.Steps))
	for _, s := range result.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return Recipe{}, fmt.Errorf("%w: recipe steps cannot be empty", ErrGeneration)
	}
	result.Steps = steps
	if diet := strings.TrimSpace(req.Diet); diet != "" && !result.HasDiet(diet) {
		result.Diets = append(result.Diets, diet)
	}

	return result.withDefaults(), nil
}

func buildGeneratePrompt(ingredients []string, req GenerateRequest) string {
	var sb strings.Builder
	sb.WriteString("Create one beginner-friendly recipe.\n")
	fmt.Fprintf(&sb, "Available ingredients: %s\n", strings.Join(ingredients, ", "))
	if d := strings.TrimSpace(req.Diet); d != "" {
		fmt.Fprintf(&sb, "Dietary requirement: %s\n", d)
	}
	if m := strings.TrimSpace(req.MealType); m != "" {
		fmt.Fprintf(&sb, "Meal type: %s\n", m)
	}
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Prefer the available ingredients; keep extra ingredients to pantry staples.\n")
	sb.WriteString("2. Ingredient names are short lower-case nouns without quantities.\n")
	sb.WriteString("3. Nutrition values are per recipe estimates; omit the object if unsure.\n")
	sb.WriteString("Return JSON in exactly this shape:\n")
	sb.WriteString(`{"title":"...","ingredients":["..."],"steps":["..."],"time":"20 minutes","diets":["..."],"allergens":["..."],"nutrition":{"calories":0,"protein_g":0,"carbs_g":0,"fat_g":0}}`)
	sb.WriteString("\n")
	return sb.String()
}
