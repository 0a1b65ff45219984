package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"

	core "recipe-helper/internal/core/recipe"
)

// IngredientList 接受逗號分隔字串或字串陣列，解析後為正規化食材
type IngredientList []string

// UnmarshalJSON 實作 json.Unmarshaler
func (l *IngredientList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = IngredientList{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*l = core.ParseIngredients(text)
		return nil
	case len(data) > 0 && data[0] == '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(IngredientList, 0, len(items))
		for _, item := range items {
			if n := core.Normalize(item); n != "" {
				out = append(out, n)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("ingredients must be a string or an array of strings")
	}
}

// MatchRequest 食材比對請求
type MatchRequest struct {
	Ingredients IngredientList `json:"ingredients"`
	MinMatch    *int           `json:"min_match,omitempty"` // 省略時使用設定值
	Diet        string         `json:"diet,omitempty"`
	Limit       *int           `json:"limit,omitempty"` // 省略時取前 TopN 筆，0 表示全部
}

// ListResponse 目錄列表響應
type ListResponse struct {
	Recipes []core.Recipe `json:"recipes"`
	Count   int           `json:"count"`
}

// MatchResponse 比對結果，Count 為符合條件的總數
type MatchResponse struct {
	Matches []core.Match `json:"matches"`
	Count   int          `json:"count"`
}

// ExplainResponse 食譜說明
type ExplainResponse struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Allergens string `json:"allergens"`
	Nutrition string `json:"nutrition"`
}

// SubstituteResponse 替代食材建議
type SubstituteResponse struct {
	Ingredient string `json:"ingredient"`
	Suggestion string `json:"suggestion"`
	Found      bool   `json:"found"`
}

// CookQARequest 針對目錄中的食譜提問
type CookQARequest struct {
	Question    string `json:"question" binding:"required"`
	RecipeTitle string `json:"recipe_title" binding:"required"`
}

// CookQAResponse 助理回覆
type CookQAResponse struct {
	Answer      string `json:"answer"`
	RecipeTitle string `json:"recipe_title"`
}

// GenerateRequest 生成食譜請求
type GenerateRequest struct {
	Ingredients IngredientList `json:"ingredients"`
	Diet        string         `json:"diet,omitempty"`
	MealType    string         `json:"meal_type,omitempty"`
}

// GenerateResponse 生成結果，Index 為加入目錄後的 1-based 位置
type GenerateResponse struct {
	Recipe core.Recipe `json:"recipe"`
	Index  int         `json:"index"`
}
