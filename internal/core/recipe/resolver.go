package recipe

import (
	"sort"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

// suggestionThreshold Jaro-Winkler 相似度下限
const suggestionThreshold = 0.7

// FindByTitleOrIndex 以 1 起算的目錄序號或標題片段尋找食譜。
// 全數字的查詢先視為目錄序號；超出範圍或非數字時，回傳第一個標題包含查詢字串的食譜。
func (c *Catalog) FindByTitleOrIndex(query string) (Recipe, bool) {
	q := Normalize(query)
	if q == "" {
		return Recipe{}, false
	}
	if isDigits(q) {
		if idx, err := strconv.Atoi(q); err == nil {
			if r, ok := c.At(idx - 1); ok {
				return r, true
			}
		}
	}
	return c.findByTitle(q)
}

// ResolveSelection 解析使用者對已顯示清單的選擇。
// 數字只對應 shown（使用者實際看到的排序結果），超出範圍即視為找不到；
// 其他輸入改以標題片段搜尋整個目錄。
func (c *Catalog) ResolveSelection(query string, shown []Match) (Recipe, bool) {
	q := Normalize(query)
	if q == "" {
		return Recipe{}, false
	}
	if isDigits(q) {
		idx, err := strconv.Atoi(q)
		if err != nil || idx < 1 || idx > len(shown) {
			return Recipe{}, false
		}
		return shown[idx-1].Recipe.clone(), true
	}
	return c.findByTitle(q)
}

func (c *Catalog) findByTitle(q string) (Recipe, bool) {
	for _, r := range c.recipes {
		if strings.Contains(Normalize(r.Title), q) {
			return r.clone(), true
		}
	}
	return Recipe{}, false
}

// SuggestTitles 為找不到的查詢提供相近標題（僅供提示，不影響解析結果）
func (c *Catalog) SuggestTitles(query string, limit int) []string {
	q := Normalize(query)
	if q == "" || limit <= 0 {
		return nil
	}

	type scored struct {
		title string
		score float64
		order int
	}
	candidates := make([]scored, 0)
	for i, r := range c.recipes {
		title := Normalize(r.Title)
		score := matchr.JaroWinkler(q, title, false)
		for _, word := range strings.Fields(title) {
			if s := matchr.JaroWinkler(q, word, false); s > score {
				score = s
			}
		}
		if score >= suggestionThreshold {
			candidates = append(candidates, scored{title: r.Title, score: score, order: i})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	out := make([]string, 0, limit)
	for _, cand := range candidates {
		if len(out) == limit {
			break
		}
		out = append(out, cand.title)
	}
	return out
}
