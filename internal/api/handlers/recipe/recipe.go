package recipe

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"recipe-helper/internal/core/ai"
	core "recipe-helper/internal/core/recipe"
	"recipe-helper/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultMaxGenerated 未設定上限時保留的生成食譜數
const DefaultMaxGenerated = 100

// Options 處理器設定
type Options struct {
	MinMatch     int
	TopN         int
	MaxGenerated int  // 保留的生成食譜上限，超過時移除最舊的
	Debug        bool // 錯誤回應是否附帶原始錯誤
}

// Handler 食譜處理程序
type Handler struct {
	catalog   atomic.Pointer[core.Catalog]
	base      *core.Catalog
	addMu     sync.Mutex
	generated []core.Recipe
	subs      core.Substitutions
	assistant *ai.Assistant
	generator *core.Generator
	opts      Options
}

// NewHandler 創建新的食譜處理程序；assistant 與 generator 可為 nil
func NewHandler(catalog *core.Catalog, subs core.Substitutions, assistant *ai.Assistant, generator *core.Generator, opts Options) *Handler {
	if opts.MaxGenerated <= 0 {
		opts.MaxGenerated = DefaultMaxGenerated
	}
	h := &Handler{
		base:      catalog,
		subs:      subs,
		assistant: assistant,
		generator: generator,
		opts:      opts,
	}
	h.catalog.Store(catalog)
	return h
}

// Catalog 目前的目錄快照
func (h *Handler) Catalog() *core.Catalog {
	return h.catalog.Load()
}

// HandleDiets 列出目錄中的飲食標籤
func (h *Handler) HandleDiets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"diets": h.Catalog().Diets()})
}

// HandleList 列出目錄中的所有食譜（目錄順序）
func (h *Handler) HandleList(c *gin.Context) {
	recipes := h.Catalog().Recipes()
	c.JSON(http.StatusOK, ListResponse{Recipes: recipes, Count: len(recipes)})
}

// HandleMatch 依食材比對並排序食譜
func (h *Handler) HandleMatch(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("比對請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	if len(req.Ingredients) == 0 {
		h.respondError(c, common.ErrNoIngredients)
		return
	}

	minMatch, limit := h.opts.MinMatch, h.opts.TopN
	if req.MinMatch != nil {
		minMatch = *req.MinMatch
	}
	if req.Limit != nil {
		limit = *req.Limit
	}
	if minMatch < 0 || limit < 0 {
		h.respondError(c, common.ErrInvalidRequest.Wrap(errors.New("min_match and limit must not be negative")))
		return
	}

	matches := h.Catalog().Match(req.Ingredients, minMatch, req.Diet)
	common.LogInfo("食譜比對完成",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("ingredients", len(req.Ingredients)),
		zap.Int("min_match", minMatch),
		zap.String("diet", req.Diet),
		zap.Int("matches", len(matches)),
	)

	c.JSON(http.StatusOK, MatchResponse{
		Matches: core.Top(matches, limit),
		Count:   len(matches),
	})
}

// HandleResolve 以標題或 1-based 目錄序號查找食譜
func (h *Handler) HandleResolve(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		h.respondError(c, common.ErrInvalidRequest.Wrap(errors.New("query parameter q is required")))
		return
	}

	catalog := h.Catalog()
	r, ok := catalog.FindByTitleOrIndex(q)
	if !ok {
		ce := common.ErrRecipeNotFound
		c.JSON(ce.Status, gin.H{
			"code":        ce.Code,
			"message":     ce.Message,
			"suggestions": catalog.SuggestTitles(q, 3),
		})
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleExplain 食譜說明文字
func (h *Handler) HandleExplain(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.respondError(c, common.ErrInvalidRequest.Wrap(errors.New("index must be a number")))
		return
	}

	r, ok := h.Catalog().At(index - 1)
	if !ok {
		h.respondError(c, common.ErrRecipeNotFound)
		return
	}

	c.JSON(http.StatusOK, ExplainResponse{
		Index:     index,
		Title:     r.Title,
		Text:      core.Explain(r),
		Allergens: core.FormatAllergens(r),
		Nutrition: core.FormatNutrition(r.Nutrition),
	})
}

// HandleSubstitute 查詢替代食材
func (h *Handler) HandleSubstitute(c *gin.Context) {
	ingredient := c.Query("ingredient")
	suggestion, found := h.subs.Lookup(ingredient)
	if !found {
		suggestion = core.NoSuggestion
	}
	c.JSON(http.StatusOK, SubstituteResponse{
		Ingredient: ingredient,
		Suggestion: suggestion,
		Found:      found,
	})
}

// HandleCookQA 針對目錄中的食譜回答烹飪問題
func (h *Handler) HandleCookQA(c *gin.Context) {
	requestID := requestid.Get(c)
	common.LogInfo("開始處理 Cook QA 請求",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	if !h.assistant.Enabled() {
		h.respondError(c, common.ErrAssistantDisabled)
		return
	}

	var req CookQARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("Cook QA 請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	r, ok := h.Catalog().FindByTitleOrIndex(req.RecipeTitle)
	if !ok {
		h.respondError(c, common.ErrRecipeNotFound)
		return
	}

	answer, err := h.assistant.Ask(c.Request.Context(), req.Question, r)
	if err != nil {
		common.LogError("Cook QA 失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		h.respondError(c, upstreamError(err))
		return
	}

	c.JSON(http.StatusOK, CookQAResponse{Answer: answer, RecipeTitle: r.Title})
}

// HandleGenerate 生成新食譜並加入目錄
func (h *Handler) HandleGenerate(c *gin.Context) {
	requestID := requestid.Get(c)
	if h.generator == nil {
		h.respondError(c, common.ErrAssistantDisabled)
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	if len(req.Ingredients) == 0 {
		h.respondError(c, common.ErrNoIngredients)
		return
	}

	common.LogInfo("開始處理食譜生成請求",
		zap.String("request_id", requestID),
		zap.Strings("ingredients", req.Ingredients),
	)

	r, err := h.generator.Generate(c.Request.Context(), core.GenerateRequest{
		Ingredients: req.Ingredients,
		Diet:        req.Diet,
		MealType:    req.MealType,
	})
	if err != nil {
		common.LogError("食譜生成失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		h.respondError(c, upstreamError(err))
		return
	}

	index, err := h.addRecipe(r)
	if err != nil {
		h.respondError(c, common.ErrAIServiceError.Wrap(err))
		return
	}

	common.LogInfo("食譜生成成功",
		zap.String("request_id", requestID),
		zap.String("title", r.Title),
		zap.Int("index", index),
	)
	c.JSON(http.StatusOK, GenerateResponse{Recipe: r, Index: index})
}

// addRecipe 以新快照取代目錄，回傳新食譜的 1-based 位置；
// 生成食譜超過上限時移除最舊的，之後的生成食譜位置隨之前移
func (h *Handler) addRecipe(r core.Recipe) (int, error) {
	h.addMu.Lock()
	defer h.addMu.Unlock()

	generated := append(h.generated, r)
	if over := len(generated) - h.opts.MaxGenerated; over > 0 {
		generated = append([]core.Recipe(nil), generated[over:]...)
	}

	next, err := h.base.With(generated...)
	if err != nil {
		return 0, err
	}
	h.generated = generated
	h.catalog.Store(next)
	return next.Len(), nil
}

func (h *Handler) respondError(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(h.opts.Debug))
}

// upstreamError 將助理或生成器的錯誤對應到 API 錯誤
func upstreamError(err error) error {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return err
	}
	if common.IsValidationError(err) {
		return common.ErrInvalidRequest.Wrap(err)
	}
	return common.ErrAIServiceError.Wrap(err)
}
