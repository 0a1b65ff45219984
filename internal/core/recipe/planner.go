package recipe

import (
	"math"
	"regexp"
	"strconv"
)

// CostPerIngredient 粗估每項食材的成本
const CostPerIngredient = 1.75

var firstNumber = regexp.MustCompile(`\d+`)

// ShoppingItem 購物清單項目
type ShoppingItem struct {
	Name string `json:"name"`
	Have bool   `json:"have"`
}

// Timers 建議的備料與烹調計時
type Timers struct {
	Prep  int  `json:"prep_minutes"`
	Cook  int  `json:"cook_minutes"`
	Total int  `json:"total_minutes"`
	Known bool `json:"known"` // false 表示時間描述中沒有數字，使用預設值
}

// ShoppingList 依食譜食材順序標示已有與缺少的項目
func ShoppingList(r Recipe, have []string) []ShoppingItem {
	owned := ingredientSet(have)
	items := make([]ShoppingItem, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		_, ok := owned[Normalize(ing)]
		items = append(items, ShoppingItem{Name: ing, Have: ok})
	}
	return items
}

// Missing 缺少的食材
func Missing(items []ShoppingItem) []string {
	missing := make([]string, 0)
	for _, item := range items {
		if !item.Have {
			missing = append(missing, item.Name)
		}
	}
	return missing
}

// EstimateCost 粗估成本（食材數 × CostPerIngredient，四捨五入到分）
func EstimateCost(r Recipe) float64 {
	return math.Round(float64(len(r.Ingredients))*CostPerIngredient*100) / 100
}

// SuggestTimers 以時間描述中的第一個整數作為總分鐘數，拆分備料與烹調時間
func SuggestTimers(duration string) Timers {
	m := firstNumber.FindString(duration)
	total, err := strconv.Atoi(m)
	if m == "" || err != nil {
		return Timers{Prep: 10, Cook: 15, Total: 25}
	}
	prep := max(5, total/4)
	cook := max(5, total-prep)
	return Timers{Prep: prep, Cook: cook, Total: total, Known: true}
}
