package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-helper/internal/core/ai"
	core "recipe-helper/internal/core/recipe"
	"recipe-helper/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatter struct {
	answer string
	err    error
}

func (f *fakeChatter) Chat(context.Context, []ai.Message) (string, error) { return f.answer, f.err }
func (f *fakeChatter) Model() string                                       { return "fake" }

type fakePrompter struct {
	reply string
	err   error
}

func (f *fakePrompter) Prompt(context.Context, string, string) (string, error) { return f.reply, f.err }

func testCatalog(t *testing.T) *core.Catalog {
	t.Helper()
	c, err := core.NewCatalog([]core.Recipe{
		{Title: "Chicken Fried Rice", Ingredients: []string{"chicken", "rice", "egg"}, Steps: []string{"Cook rice.", "Fry."}, Time: "25 minutes", Diets: []string{"dairy-free"}},
		{Title: "Garlic Rice", Ingredients: []string{"rice", "garlic", "butter"}, Steps: []string{"Cook."}, Diets: []string{"vegetarian"}},
		{Title: "Vegan Stew", Ingredients: []string{"beans", "tomato", "onion"}, Steps: []string{"Simmer."}, Diets: []string{"vegan"}},
		{Title: "Chicken Soup", Ingredients: []string{"chicken", "onion", "carrot"}, Steps: []string{"Boil."}, Diets: []string{"dairy-free"}},
	})
	require.NoError(t, err)
	return c
}

func setupRouter(t *testing.T, assistant *ai.Assistant, generator *core.Generator) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(testCatalog(t), core.DefaultSubstitutions(), assistant, generator, Options{MinMatch: 2, TopN: 3})
	r := gin.New()
	r.Use(requestid.New())
	r.GET("/diets", h.HandleDiets)
	r.GET("/recipes", h.HandleList)
	r.GET("/substitutes", h.HandleSubstitute)
	r.POST("/recipes/match", h.HandleMatch)
	r.GET("/recipes/resolve", h.HandleResolve)
	r.GET("/recipes/:index/explain", h.HandleExplain)
	r.POST("/recipes/generate", h.HandleGenerate)
	r.POST("/cook/qa", h.HandleCookQA)
	return r, h
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func matchTitles(resp MatchResponse) []string {
	out := make([]string, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		out = append(out, m.Recipe.Title)
	}
	return out
}

func TestHandleDiets(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)
	w := do(r, http.MethodGet, "/diets", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"diets":["dairy-free","vegan","vegetarian"]}`, w.Body.String())
}

func TestHandleList(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)
	w := do(r, http.MethodGet, "/recipes", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[ListResponse](t, w)
	assert.Equal(t, 4, resp.Count)
	require.Len(t, resp.Recipes, 4)
	assert.Equal(t, "Chicken Fried Rice", resp.Recipes[0].Title)
	assert.Equal(t, "Chicken Soup", resp.Recipes[3].Title)
}

func TestHandleMatch(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)

	tests := []struct {
		name   string
		body   string
		titles []string
		count  int
	}{
		{"string ingredients", `{"ingredients":"Chicken, rice; onion"}`, []string{"Chicken Fried Rice", "Chicken Soup"}, 2},
		{"array ingredients", `{"ingredients":["chicken"," RICE ","onion",""]}`, []string{"Chicken Fried Rice", "Chicken Soup"}, 2},
		{"default limit", `{"ingredients":"chicken, rice, onion","min_match":1}`, []string{"Chicken Fried Rice", "Chicken Soup", "Garlic Rice"}, 4},
		{"no limit", `{"ingredients":"chicken, rice, onion","min_match":1,"limit":0}`, []string{"Chicken Fried Rice", "Chicken Soup", "Garlic Rice", "Vegan Stew"}, 4},
		{"diet filter", `{"ingredients":"chicken, rice, onion","diet":"VEGAN","min_match":1}`, []string{"Vegan Stew"}, 1},
		{"nothing matches", `{"ingredients":"kale"}`, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/recipes/match", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			resp := decode[MatchResponse](t, w)
			assert.Equal(t, tt.titles, matchTitles(resp))
			assert.Equal(t, tt.count, resp.Count)
		})
	}
}

func TestHandleMatch_MatchCountField(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)
	w := do(r, http.MethodPost, "/recipes/match", `{"ingredients":"rice, garlic, butter"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Matches []map[string]json.RawMessage `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw.Matches, 1)
	assert.JSONEq(t, `3`, string(raw.Matches[0]["match_count"]))
	assert.Contains(t, string(raw.Matches[0]["recipe"]), `"title":"Garlic Rice"`)
}

func TestHandleMatch_BadRequests(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty ingredients", `{"ingredients":" , ;"}`, "NO_INGREDIENTS"},
		{"missing ingredients", `{"diet":"vegan"}`, "NO_INGREDIENTS"},
		{"wrong type", `{"ingredients":42}`, common.ErrCodeInvalidRequest},
		{"negative min match", `{"ingredients":"rice","min_match":-1}`, common.ErrCodeInvalidRequest},
		{"malformed", `{"ingredients":`, common.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/recipes/match", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode[common.ErrorResponse](t, w).Code)
		})
	}
}

func TestHandleResolve(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)

	w := do(r, http.MethodGet, "/recipes/resolve?q=garlic", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Garlic Rice", decode[core.Recipe](t, w).Title)

	w = do(r, http.MethodGet, "/recipes/resolve?q=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vegan Stew", decode[core.Recipe](t, w).Title)

	w = do(r, http.MethodGet, "/recipes/resolve?q=chiken+soup", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	var notFound struct {
		Code        string   `json:"code"`
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notFound))
	assert.Equal(t, "RECIPE_NOT_FOUND", notFound.Code)
	require.NotEmpty(t, notFound.Suggestions)
	assert.Equal(t, "Chicken Soup", notFound.Suggestions[0])

	w = do(r, http.MethodGet, "/recipes/resolve?q=", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExplain(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)

	w := do(r, http.MethodGet, "/recipes/1/explain", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ExplainResponse](t, w)
	assert.Equal(t, "Chicken Fried Rice", resp.Title)
	assert.Equal(t, "Chicken Fried Rice (25 minutes)\nDietary tags: dairy-free\n\n- Step 1: Cook rice.\n- Step 2: Fry.", resp.Text)
	assert.Equal(t, "Allergens (best-effort): None detected", resp.Allergens)
	assert.Equal(t, "Nutrition estimate: Not available", resp.Nutrition)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/recipes/0/explain", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/recipes/5/explain", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/recipes/abc/explain", "").Code)
}

func TestHandleSubstitute(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)

	w := do(r, http.MethodGet, "/substitutes?ingredient=Butter", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, SubstituteResponse{Ingredient: "Butter", Suggestion: "oil", Found: true}, decode[SubstituteResponse](t, w))

	w = do(r, http.MethodGet, "/substitutes?ingredient=kale", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, SubstituteResponse{Ingredient: "kale", Suggestion: core.NoSuggestion}, decode[SubstituteResponse](t, w))
}

func TestHandleCookQA(t *testing.T) {
	assistant := ai.NewAssistant(&fakeChatter{answer: "1. Use leftover rice."}, nil, "")
	r, _ := setupRouter(t, assistant, nil)

	w := do(r, http.MethodPost, "/cook/qa", `{"question":"Can I use fresh rice?","recipe_title":"fried rice"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, CookQAResponse{Answer: "1. Use leftover rice.", RecipeTitle: "Chicken Fried Rice"}, decode[CookQAResponse](t, w))

	w = do(r, http.MethodPost, "/cook/qa", `{"question":"?","recipe_title":"pancakes"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/cook/qa", `{"recipe_title":"fried rice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCookQA_Disabled(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)
	w := do(r, http.MethodPost, "/cook/qa", `{"question":"hi","recipe_title":"fried rice"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ASSISTANT_DISABLED", decode[common.ErrorResponse](t, w).Code)
}

func TestHandleCookQA_UpstreamFailure(t *testing.T) {
	assistant := ai.NewAssistant(&fakeChatter{err: errors.New("connection reset")}, nil, "")
	r, _ := setupRouter(t, assistant, nil)

	w := do(r, http.MethodPost, "/cook/qa", `{"question":"hi","recipe_title":"fried rice"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decode[common.ErrorResponse](t, w)
	assert.Equal(t, "AI_SERVICE_ERROR", resp.Code)
	assert.Empty(t, resp.Details)
}

func TestHandleGenerate(t *testing.T) {
	gen := core.NewGenerator(&fakePrompter{reply: `{"title":"Kale Chips","ingredients":["kale","oil"],"steps":["Bake."],"time":"20 minutes"}`})
	r, h := setupRouter(t, nil, gen)

	w := do(r, http.MethodPost, "/recipes/generate", `{"ingredients":"kale, oil","diet":"vegan"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[GenerateResponse](t, w)
	assert.Equal(t, "Kale Chips", resp.Recipe.Title)
	assert.Equal(t, []string{"vegan"}, resp.Recipe.Diets)
	assert.Equal(t, 5, resp.Index)
	assert.Equal(t, 5, h.Catalog().Len())

	w = do(r, http.MethodGet, "/recipes/5/explain", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Kale Chips", decode[ExplainResponse](t, w).Title)

	w = do(r, http.MethodGet, "/diets", "")
	assert.Contains(t, w.Body.String(), `"vegan"`)
}

func TestHandleGenerate_Errors(t *testing.T) {
	r, _ := setupRouter(t, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/recipes/generate", `{"ingredients":"kale"}`).Code)

	gen := core.NewGenerator(&fakePrompter{reply: "no recipe here"})
	r, h := setupRouter(t, nil, gen)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/recipes/generate", `{"ingredients":""}`).Code)

	w := do(r, http.MethodPost, "/recipes/generate", `{"ingredients":"kale"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 4, h.Catalog().Len())
}

func TestHandleGenerate_KeepsNewestGenerated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prompter := &fakePrompter{}
	h := NewHandler(testCatalog(t), core.DefaultSubstitutions(), nil, core.NewGenerator(prompter), Options{MinMatch: 2, TopN: 3, MaxGenerated: 2})
	r := gin.New()
	r.POST("/recipes/generate", h.HandleGenerate)

	for _, title := range []string{"First", "Second", "Third"} {
		prompter.reply = `{"title":"` + title + `","ingredients":["kale"],"steps":["Bake."]}`
		w := do(r, http.MethodPost, "/recipes/generate", `{"ingredients":"kale"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, h.Catalog().Len(), decode[GenerateResponse](t, w).Index)
	}

	// 原始目錄 4 筆加上最新的 2 筆生成食譜
	c := h.Catalog()
	require.Equal(t, 6, c.Len())
	_, found := c.FindByTitleOrIndex("First")
	assert.False(t, found)
	last, _ := c.At(5)
	assert.Equal(t, "Third", last.Title)
	first, _ := c.At(0)
	assert.Equal(t, "Chicken Fried Rice", first.Title)
}
