package recipe

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize 轉小寫、去除前後空白，並統一為 NFC 形式
func Normalize(token string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(token)))
}

// ParseIngredients 以逗號或分號切分自由輸入的食材清單。
// 保留輸入順序與重複項目；空白片段會被丟棄。
func ParseIngredients(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';'
	})

	ingredients := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := Normalize(part); token != "" {
			ingredients = append(ingredients, token)
		}
	}
	return ingredients
}

// ingredientSet 將食材清單轉為正規化後的集合
func ingredientSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if token := Normalize(item); token != "" {
			set[token] = struct{}{}
		}
	}
	return set
}

// isDigits 判斷字串是否全為 ASCII 數字
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
