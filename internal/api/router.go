package api

import (
	"time"

	"recipe-helper/internal/api/handlers/health"
	recipeHandler "recipe-helper/internal/api/handlers/recipe"
	"recipe-helper/internal/api/middleware"
	"recipe-helper/internal/core/ai"
	"recipe-helper/internal/core/ai/cache"
	"recipe-helper/internal/core/ai/queue"
	"recipe-helper/internal/core/recipe"
	"recipe-helper/internal/infrastructure/config"
	"recipe-helper/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 超時設置
const timeoutDuration = 120 * time.Second

// Dependencies 路由需要的服務；Assistant、Generator、Queue 與 Cache 可為 nil
type Dependencies struct {
	Catalog       *recipe.Catalog
	Substitutions recipe.Substitutions
	Assistant     *ai.Assistant
	Generator     *recipe.Generator
	Queue         *queue.Manager
	Cache         cache.Store
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(timeoutDuration))

	recipes := recipeHandler.NewHandler(deps.Catalog, deps.Substitutions, deps.Assistant, deps.Generator, recipeHandler.Options{
		MinMatch:     cfg.Match.MinMatch,
		TopN:         cfg.Match.TopN,
		MaxGenerated: cfg.Catalog.MaxGenerated,
		Debug:        cfg.App.Debug,
	})
	healthHandler := health.NewHandler(cfg.App.Version, health.Sources{
		Catalog: func() health.CatalogStatus {
			c := recipes.Catalog()
			return health.CatalogStatus{Recipes: c.Len(), Diets: len(c.Diets())}
		},
		Queue:     deps.Queue,
		Cache:     deps.Cache,
		Assistant: deps.Assistant.Enabled(),
	})

	// 健康檢查路由
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	// 只有會呼叫助理的路由需要去重，比對等查詢可重複送出
	dedup := middleware.Deduplication(cfg.DedupWindow)
	{
		api.GET("/diets", recipes.HandleDiets)
		api.GET("/substitutes", recipes.HandleSubstitute)

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", recipes.HandleList)
			recipeGroup.POST("/match", recipes.HandleMatch)
			recipeGroup.GET("/resolve", recipes.HandleResolve)
			recipeGroup.GET("/:index/explain", recipes.HandleExplain)
			recipeGroup.POST("/generate", dedup, recipes.HandleGenerate)
		}

		cookGroup := api.Group("/cook")
		{
			cookGroup.POST("/qa", dedup, recipes.HandleCookQA)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(common.ErrNotFound.Status, common.ErrNotFound.Response(false))
	})

	common.LogInfo("Router setup completed successfully",
		zap.Int("catalog_size", deps.Catalog.Len()),
		zap.Bool("assistant_enabled", deps.Assistant.Enabled()),
		zap.Bool("generator_enabled", deps.Generator != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
