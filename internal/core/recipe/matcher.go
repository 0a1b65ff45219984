package recipe

import "sort"

// Match 依可用食材為目錄中的食譜評分並排序。
//
// 輸入食材視為集合（重複項目只計一次）。diet 為空字串時不篩選，
// 否則只保留帶有該飲食標籤的食譜。共同食材數量小於 minMatch 的食譜不會出現在結果中。
// 排序：共同食材數量遞減，相同時依標題字典序遞增，再相同時維持目錄順序。
func (c *Catalog) Match(ingredients []string, minMatch int, diet string) []Match {
	have := ingredientSet(ingredients)
	want := Normalize(diet)

	matches := make([]Match, 0)
	for _, r := range c.recipes {
		if want != "" && !r.HasDiet(want) {
			continue
		}

		count := 0
		for ing := range ingredientSet(r.Ingredients) {
			if _, ok := have[ing]; ok {
				count++
			}
		}
		if count >= minMatch {
			matches = append(matches, Match{Recipe: r.clone(), Count: count})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Count != matches[j].Count {
			return matches[i].Count > matches[j].Count
		}
		return matches[i].Recipe.Title < matches[j].Recipe.Title
	})
	return matches
}

// Top 取前 n 筆；n <= 0 時回傳全部
func Top(matches []Match, n int) []Match {
	if n <= 0 || n >= len(matches) {
		return matches
	}
	return matches[:n]
}
