package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"recipe-helper/internal/core/ai"
	"recipe-helper/internal/core/recipe"
	"recipe-helper/internal/core/saved"
	"recipe-helper/internal/pkg/common"

	"go.uber.org/zap"
)

// MealTypes 可選的餐別
var MealTypes = []string{"breakfast", "snack", "lunch", "dinner"}

const (
	colorTitle  = "\033[1;4;34m"
	colorCyan   = "\033[36m"
	colorPink   = "\033[95m"
	colorOrange = "\033[38;5;202m"
	colorReset  = "\033[0m"
)

const fallbackAnswer = "Sorry — I can answer substitution and time questions. For richer answers, set OPENAI_API_KEY and run again."

// Asker 回答食譜相關的自由提問
type Asker interface {
	Ask(ctx context.Context, question string, r recipe.Recipe) (string, error)
}

// RecipeGenerator 依條件生成新食譜
type RecipeGenerator interface {
	Generate(ctx context.Context, req recipe.GenerateRequest) (recipe.Recipe, error)
}

// Saver 收藏食譜、列出收藏與寫出食譜卡
type Saver interface {
	Save(r recipe.Recipe) (saved.Entry, error)
	List() ([]saved.Entry, error)
	WriteCard(r recipe.Recipe) (string, error)
}

// Session 一次互動式對話
type Session struct {
	In            io.Reader
	Out           io.Writer
	Catalog       *recipe.Catalog
	Substitutions recipe.Substitutions
	Assistant     Asker           // nil 表示停用
	Generator     RecipeGenerator // nil 表示停用
	Saved         Saver           // nil 表示不提供收藏
	MinMatch      int
	TopN          int
	Color         bool

	scanner *bufio.Scanner
}

// state 對話中累積的使用者選擇
type state struct {
	mealType    string
	diet        string
	ingredients []string
	selected    recipe.Recipe
}

// errInputClosed 輸入結束，正常退出
var errInputClosed = errors.New("input closed")

// Run 執行整個對話流程；輸入結束時正常返回
func (s *Session) Run(ctx context.Context) error {
	s.scanner = bufio.NewScanner(s.In)

	err := s.run(ctx)
	if errors.Is(err, errInputClosed) {
		s.println(s.paint(colorPink, "Input closed. Exiting."))
		return s.scanner.Err()
	}
	return err
}

func (s *Session) run(ctx context.Context) error {
	s.println(s.paint(colorTitle, "Hi! I'm your Recipe Suggestion Helper."))
	s.println("")

	var st state

	s.println(s.paint(colorCyan, "Available meal types: "+strings.Join(MealTypes, ", ")))
	meal, err := s.ask("What type of meal is this? (or press Enter to skip)")
	if err != nil {
		return err
	}
	st.mealType = meal

	s.println(s.paint(colorCyan, "Available dietary options: "+strings.Join(s.Catalog.Diets(), ", ")))
	diet, err := s.ask("Do you have any dietary preferences? (or press Enter to skip)")
	if err != nil {
		return err
	}
	st.diet = diet

	s.println("")
	s.println(s.paint(colorCyan, "Tell me what ingredients you have (comma-separated). Example: 'chicken, rice, broccoli'"))
	text, err := s.ask("What ingredients do you have?")
	if err != nil {
		return err
	}
	st.ingredients = recipe.ParseIngredients(text)
	if len(st.ingredients) == 0 {
		s.println(s.paint(colorPink, "I didn't hear any ingredients. Exiting."))
		return nil
	}

	matches := s.Catalog.Match(st.ingredients, s.MinMatch, st.diet)
	common.LogDebug("食譜比對完成",
		zap.Int("ingredients", len(st.ingredients)),
		zap.String("diet", st.diet),
		zap.Int("matches", len(matches)),
	)
	if len(matches) == 0 {
		return s.noMatches(ctx, &st)
	}

	shown := recipe.Top(matches, s.TopN)
	s.println(s.paint(colorCyan, "Great! Here are some recipes you can make:"))
	for i, m := range shown {
		s.println(recipe.FormatListing(i+1, m))
	}

	choice, err := s.ask("Which number would you like to know more about, or type a recipe name? (or 'no' to exit)")
	if err != nil {
		return err
	}
	if isExitWord(choice, "no", "n", "exit", "quit") {
		s.println(s.paint(colorPink, "Okay, bye!"))
		return nil
	}

	selected, ok := s.Catalog.ResolveSelection(choice, shown)
	if !ok {
		s.println(s.paint(colorPink, "Couldn't find that selection. Exiting."))
		if suggestions := s.Catalog.SuggestTitles(choice, 3); len(suggestions) > 0 {
			s.println("Did you mean: " + strings.Join(suggestions, ", ") + "?")
		}
		return nil
	}
	st.selected = selected

	s.showRecipe(st.selected)
	return s.followUp(ctx, &st)
}

// noMatches 沒有符合的食譜時提示，可用時提供生成
func (s *Session) noMatches(ctx context.Context, st *state) error {
	s.println(s.paint(colorPink, fmt.Sprintf("Sorry, I couldn't find recipes matching at least %d of your ingredients", s.MinMatch)))
	if st.diet != "" {
		s.println(s.paint(colorPink, fmt.Sprintf("with the '%s' dietary requirement.", st.diet)))
	}
	s.println(s.paint(colorCyan, "Try adding more ingredients or removing dietary filters."))

	if s.Generator == nil {
		return nil
	}
	answer, err := s.ask("Would you like me to create a new recipe from your ingredients? (y/n)")
	if err != nil {
		return err
	}
	if !isExitWord(answer, "y", "yes") {
		return nil
	}
	if !s.generate(ctx, st) {
		return nil
	}
	return s.followUp(ctx, st)
}

// generate 生成新食譜並設為目前選擇，失敗時回傳 false
func (s *Session) generate(ctx context.Context, st *state) bool {
	s.println(s.paint(colorCyan, "Creating a recipe for you..."))
	r, err := s.Generator.Generate(ctx, recipe.GenerateRequest{
		Ingredients: st.ingredients,
		Diet:        st.diet,
		MealType:    st.mealType,
	})
	if err != nil {
		common.LogWarn("食譜生成失敗", zap.Error(err))
		s.println(s.paint(colorPink, "Sorry, I couldn't create a recipe right now."))
		return false
	}

	if next, err := s.Catalog.With(r); err == nil {
		s.Catalog = next
	}
	st.selected = r
	s.showRecipe(r)
	return true
}

func (s *Session) showRecipe(r recipe.Recipe) {
	s.println("")
	s.println(recipe.Explain(r))
	s.println("")
	s.println(s.paint(colorOrange, recipe.FormatAllergens(r)))
	s.println("")
	s.println(recipe.FormatNutrition(r.Nutrition))
	if r.Nutrition != nil {
		s.println("(Best-effort estimate. Do not use for medical/diet purposes.)")
	}
	s.println("")
}

// followUp 選定食譜後的問答迴圈
func (s *Session) followUp(ctx context.Context, st *state) error {
	for {
		q, err := s.ask("Anything else? Ask for substitutions, time, 'saved' for your list, or 'want to make this' to confirm, or 'exit'")
		if err != nil {
			return err
		}
		if q == "" {
			continue
		}
		lower := strings.ToLower(q)

		switch {
		case isExitWord(q, "exit", "quit", "no"):
			s.println("Bye — happy cooking!")
			return nil
		case s.Saved != nil && isExitWord(q, "saved", "my recipes", "saved recipes"):
			s.listSaved()
		case strings.Contains(lower, "want to make this"):
			if err := s.confirm(st); err != nil {
				return err
			}
		case strings.Contains(lower, "i don't have") || strings.Contains(lower, "dont have"):
			_, part, _ := strings.Cut(lower, "have")
			s.println(s.Substitutions.Suggest(part))
		case s.Generator != nil && strings.Contains(lower, "generate"):
			s.generate(ctx, st)
		case strings.Contains(lower, "time") || strings.Contains(lower, "how long"):
			s.println("This recipe takes about " + st.selected.Time)
		case strings.Contains(lower, "steps") || strings.Contains(lower, "how do i"):
			s.println(recipe.Explain(st.selected))
		default:
			s.println(s.answer(ctx, q, st.selected))
		}
	}
}

// confirm 購物清單、成本估計、收藏與計時建議
func (s *Session) confirm(st *state) error {
	r := st.selected
	items := recipe.ShoppingList(r, st.ingredients)

	s.println("")
	s.println("Great — preparing this recipe for you.")
	s.println("Shopping list:")
	for _, item := range items {
		mark := "(missing)"
		if item.Have {
			mark = "(have)"
		}
		s.println(fmt.Sprintf(" - %s %s", item.Name, mark))
	}
	if missing := recipe.Missing(items); len(missing) > 0 {
		s.println("To buy: " + strings.Join(missing, ", "))
	} else {
		s.println("You have everything you need.")
	}
	s.println(fmt.Sprintf("Estimated cost (rough): $%.2f", recipe.EstimateCost(r)))

	if s.Saved != nil {
		answer, err := s.ask("Save this recipe to your saved list and create a recipe card? (y/n)")
		if err != nil {
			return err
		}
		if isExitWord(answer, "y", "yes") {
			s.save(r)
		}
	}

	t := recipe.SuggestTimers(r.Time)
	if t.Known {
		s.println(fmt.Sprintf("Suggested timers: prep ~%d minutes, cook ~%d minutes (total %d minutes)", t.Prep, t.Cook, t.Total))
	} else {
		s.println(fmt.Sprintf("Suggested timers: prep ~%d minutes, cook ~%d minutes", t.Prep, t.Cook))
	}
	return nil
}

// listSaved 列出收藏清單
func (s *Session) listSaved() {
	entries, err := s.Saved.List()
	if err != nil {
		common.LogError("讀取收藏失敗", zap.Error(err))
		s.println(s.paint(colorPink, "Sorry, I couldn't read your saved recipes."))
		return
	}
	if len(entries) == 0 {
		s.println("You have no saved recipes yet.")
		return
	}
	s.println("Your saved recipes:")
	for _, e := range entries {
		s.println(fmt.Sprintf(" - %s (saved %s)", e.Title, e.SavedAt))
	}
}

func (s *Session) save(r recipe.Recipe) {
	if _, err := s.Saved.Save(r); err != nil {
		common.LogError("收藏失敗", zap.Error(err))
		s.println(s.paint(colorPink, "Sorry, I couldn't save this recipe."))
		return
	}
	path, err := s.Saved.WriteCard(r)
	if err != nil {
		common.LogError("食譜卡寫入失敗", zap.Error(err))
		s.println(s.paint(colorPink, "Saved, but I couldn't write the recipe card."))
		return
	}
	s.println(fmt.Sprintf("Saved to your list and created recipe card at %s", path))
}

// answer 交給助理回答，停用或失敗時回覆固定說明
func (s *Session) answer(ctx context.Context, q string, r recipe.Recipe) string {
	if s.Assistant == nil {
		return fallbackAnswer
	}
	text, err := s.Assistant.Ask(ctx, q, r)
	if err != nil {
		if !errors.Is(err, ai.ErrAssistantDisabled) {
			common.LogWarn("助理回答失敗", zap.Error(err))
		}
		return fallbackAnswer
	}
	return text
}

// ask 輸出提示並讀取一行，輸入結束時回傳 errInputClosed
func (s *Session) ask(prompt string) (string, error) {
	fmt.Fprintf(s.Out, "%s\n> ", prompt)
	if !s.scanner.Scan() {
		s.println("")
		return "", errInputClosed
	}
	return strings.TrimSpace(s.scanner.Text()), nil
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.Out, line)
}

func (s *Session) paint(color, text string) string {
	if !s.Color {
		return text
	}
	return color + text + colorReset
}

func isExitWord(input string, words ...string) bool {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, w := range words {
		if input == w {
			return true
		}
	}
	return false
}
