package recipe

import (
	"fmt"
	"strings"
)

// NutritionDisclaimer 營養資訊的免責說明
const NutritionDisclaimer = "(Nutrition estimates are best-effort and should NOT be used for medical/diet purposes.)"

// Explain 將食譜格式化為可讀的說明：標題與時間、飲食標籤（若有）、逐步驟列出
func Explain(r Recipe) string {
	lines := []string{fmt.Sprintf("%s (%s)", r.Title, displayTime(r.Time))}
	if len(r.Diets) > 0 {
		lines = append(lines, "Dietary tags: "+strings.Join(r.Diets, ", "))
	}
	lines = append(lines, "")
	for i, step := range r.Steps {
		lines = append(lines, fmt.Sprintf("- Step %d: %s", i+1, step))
	}
	return strings.Join(lines, "\n")
}

// FormatListing 排序結果中的一行摘要
func FormatListing(position int, m Match) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. %s (%s)", position, m.Recipe.Title, displayTime(m.Recipe.Time))
	if len(m.Recipe.Diets) > 0 {
		sb.WriteString(" — " + strings.Join(m.Recipe.Diets, ", "))
	}
	fmt.Fprintf(&sb, " — matches %d ingredient(s)", m.Count)
	return sb.String()
}

// FormatAllergens 過敏原摘要
func FormatAllergens(r Recipe) string {
	if len(r.Allergens) == 0 {
		return "Allergens (best-effort): None detected"
	}
	return "Allergens (best-effort): " + strings.Join(r.Allergens, ", ")
}

// FormatNutrition 營養估計摘要；nil 表示未知
func FormatNutrition(n *Nutrition) string {
	if n == nil {
		return "Nutrition estimate: Not available"
	}
	return fmt.Sprintf("Nutrition estimate (per recipe): %s cal | %sg protein | %sg carbs | %sg fat",
		formatAmount(n.Calories), formatAmount(n.ProteinG), formatAmount(n.CarbsG), formatAmount(n.FatG))
}

// FormatCard 可列印的食譜卡
func FormatCard(r Recipe) string {
	var sb strings.Builder
	sb.WriteString(r.Title + "\n")
	sb.WriteString("Ingredients:\n")
	for _, ing := range r.Ingredients {
		sb.WriteString(" - " + ing + "\n")
	}

	sb.WriteString("\nAllergens:\n")
	if len(r.Allergens) == 0 {
		sb.WriteString(" - (none detected)\n")
	}
	for _, a := range r.Allergens {
		sb.WriteString(" - " + a + "\n")
	}

	sb.WriteString("\nSteps:\n")
	for _, step := range r.Steps {
		sb.WriteString(" - " + step + "\n")
	}
	sb.WriteString("\nTime: " + displayTime(r.Time) + "\n")

	sb.WriteString("\nNutrition (rough estimate):\n")
	if n := r.Nutrition; n != nil {
		fmt.Fprintf(&sb, " - Calories: %s\n", formatAmount(n.Calories))
		fmt.Fprintf(&sb, " - Protein: %sg\n", formatAmount(n.ProteinG))
		fmt.Fprintf(&sb, " - Carbs: %sg\n", formatAmount(n.CarbsG))
		fmt.Fprintf(&sb, " - Fat: %sg\n", formatAmount(n.FatG))
	}
	sb.WriteString("\n" + NutritionDisclaimer + "\n")
	return sb.String()
}

func displayTime(t string) string {
	if strings.TrimSpace(t) == "" {
		return DefaultTime
	}
	return t
}

// formatAmount 整數值不顯示小數
func formatAmount(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
