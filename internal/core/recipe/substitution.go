package recipe

// NoSuggestion 查無替代食材時的固定回覆
const NoSuggestion = "I don't have a suggestion for that ingredient"

// Substitutions 食材替代表，鍵為正規化後的食材名稱
type Substitutions map[string]string

// DefaultSubstitutions 內建的替代建議
func DefaultSubstitutions() Substitutions {
	return Substitutions{
		"butter":     "oil",
		"milk":       "plant milk or water",
		"egg":        "mashed banana or applesauce (for baking)",
		"sour cream": "yogurt",
		"cream":      "milk",
		"broth":      "water + seasoning",
		"chicken":    "tofu or chickpeas",
		"beef":       "lentils or mushrooms",
		"fish":       "tofu or beans",
	}
}

// NewSubstitutions 以設定覆蓋內建替代表；空白鍵或空白建議會被略過
func NewSubstitutions(overrides map[string]string) Substitutions {
	subs := DefaultSubstitutions()
	for k, v := range overrides {
		key := Normalize(k)
		if key == "" || Normalize(v) == "" {
			continue
		}
		subs[key] = v
	}
	return subs
}

// Lookup 查詢替代建議，ok 表示是否有對應
func (s Substitutions) Lookup(ingredient string) (string, bool) {
	v, ok := s[Normalize(ingredient)]
	return v, ok
}

// Suggest 查詢替代建議，查無時回傳 NoSuggestion
func (s Substitutions) Suggest(ingredient string) string {
	if v, ok := s.Lookup(ingredient); ok {
		return v
	}
	return NoSuggestion
}
