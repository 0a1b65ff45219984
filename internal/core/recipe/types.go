package recipe

// DefaultTime 未提供時間描述時的顯示值
const DefaultTime = "N/A"

// Recipe 目錄中的一筆食譜，載入後不再修改
type Recipe struct {
	Title       string     `json:"title"`
	Ingredients []string   `json:"ingredients"`
	Steps       []string   `json:"steps"`
	Time        string     `json:"time"`
	Diets       []string   `json:"diets"`
	Allergens   []string   `json:"allergens"`
	Nutrition   *Nutrition `json:"nutrition,omitempty"` // nil 代表未知，不代表 0
}

// Nutrition 營養估計（盡力而為）
type Nutrition struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Match 配對結果
type Match struct {
	Recipe Recipe `json:"recipe"`
	Count  int    `json:"match_count"`
}

// withDefaults 將缺少的選填欄位補成空集合，確保存取時不會出錯
func (r Recipe) withDefaults() Recipe {
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Steps == nil {
		r.Steps = []string{}
	}
	if r.Diets == nil {
		r.Diets = []string{}
	}
	if r.Allergens == nil {
		r.Allergens = []string{}
	}
	if r.Time == "" {
		r.Time = DefaultTime
	}
	// 全為 0 的營養資料（例如 {}）視為未知
	if r.Nutrition != nil && *r.Nutrition == (Nutrition{}) {
		r.Nutrition = nil
	}
	return r
}

// clone 深拷貝，避免呼叫端透過切片修改目錄內容
func (r Recipe) clone() Recipe {
	r.Ingredients = append([]string{}, r.Ingredients...)
	r.Steps = append([]string{}, r.Steps...)
	r.Diets = append([]string{}, r.Diets...)
	r.Allergens = append([]string{}, r.Allergens...)
	if r.Nutrition != nil {
		n := *r.Nutrition
		r.Nutrition = &n
	}
	return r
}

// HasDiet 判斷食譜是否帶有指定飲食標籤（不分大小寫與前後空白）
func (r Recipe) HasDiet(diet string) bool {
	want := Normalize(diet)
	for _, d := range r.Diets {
		if Normalize(d) == want {
			return true
		}
	}
	return false
}
