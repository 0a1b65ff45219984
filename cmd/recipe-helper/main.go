package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-helper/internal/api"
	"recipe-helper/internal/cli"
	"recipe-helper/internal/core/ai"
	"recipe-helper/internal/core/ai/cache"
	"recipe-helper/internal/core/ai/queue"
	"recipe-helper/internal/core/recipe"
	"recipe-helper/internal/core/saved"
	"recipe-helper/internal/infrastructure/config"
	"recipe-helper/internal/pkg/common"

	"go.uber.org/zap"
)

// services 由設定組裝出的共用服務
type services struct {
	catalog   *recipe.Catalog
	subs      recipe.Substitutions
	store     cache.Store
	queue     *queue.Manager
	assistant *ai.Assistant
	generator *recipe.Generator
}

func main() {
	mode := flag.String("mode", "chat", "run mode: chat or serve")
	configFile := flag.String("config", "", "optional config file (yaml, json, toml)")
	catalogPath := flag.String("catalog", "", "recipe catalog JSON file; overrides catalog.path")
	flag.Parse()

	// 載入設定
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}

	// 初始化 logger（需在載入 config 後）；對話模式不佔用 stdout
	logOpts := common.LoggerOptions{
		Level:   cfg.LogLevel,
		Mode:    cfg.LogMode,
		File:    cfg.LogFile,
		Service: cfg.App.Name,
	}
	if *mode == "chat" {
		logOpts.Console = os.Stderr
		if cfg.LogMode == "" {
			logOpts.Mode = "concise"
		}
	}
	if err := common.InitLogger(logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("mode", *mode),
		zap.String("openai_api_key", cfg.Assistant.APIKey),
		zap.String("model", cfg.Assistant.Model),
		zap.String("catalog_path", cfg.Catalog.Path),
	)

	ctx := context.Background()
	svc, err := buildServices(ctx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize services", zap.Error(err))
	}
	if svc.queue != nil {
		defer svc.queue.Close()
	}
	if svc.store != nil {
		defer svc.store.Close()
	}

	switch *mode {
	case "chat":
		err = runChat(ctx, cfg, svc)
	case "serve":
		err = runServer(ctx, cfg, svc)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		common.LogError("Exited with error", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
}

// buildServices 載入目錄並建立快取、助理與生成器；未設定 API Key 時助理停用
func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	svc := &services{subs: recipe.NewSubstitutions(cfg.Substitutions)}

	var err error
	if cfg.Catalog.Path != "" {
		svc.catalog, err = recipe.LoadCatalogFile(cfg.Catalog.Path)
	} else {
		svc.catalog, err = recipe.DefaultCatalog()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	svc.store, err = cache.NewStore(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	client, err := ai.NewClient(cfg.Assistant)
	switch {
	case errors.Is(err, ai.ErrAssistantDisabled):
		common.LogInfo("Assistant disabled; using built-in answers only")
	case err != nil:
		return nil, err
	default:
		// 助理與生成器共用同一個隊列，限制同時打到上游的請求數
		svc.queue = queue.NewManager(client, cfg.Queue)
		svc.assistant = ai.NewAssistant(svc.queue, svc.store, cfg.Assistant.SystemPrompt)
		svc.generator = recipe.NewGenerator(svc.queue)
	}

	common.LogInfo("Services ready",
		zap.Int("recipes", svc.catalog.Len()),
		zap.Bool("assistant_enabled", svc.assistant.Enabled()),
		zap.Bool("cache_enabled", svc.store != nil),
	)
	return svc, nil
}

// runChat 以終端互動模式執行
func runChat(ctx context.Context, cfg *config.Config, svc *services) error {
	session := &cli.Session{
		In:            os.Stdin,
		Out:           os.Stdout,
		Catalog:       svc.catalog,
		Substitutions: svc.subs,
		Saved:         saved.NewStore(cfg.Saved.Path, cfg.Saved.CardDir),
		MinMatch:      cfg.Match.MinMatch,
		TopN:          cfg.Match.TopN,
		Color:         isTerminal(os.Stdout),
	}
	// 避免把 nil 指標包進介面
	if svc.assistant != nil {
		session.Assistant = svc.assistant
	}
	if svc.generator != nil {
		session.Generator = svc.generator
	}
	return session.Run(ctx)
}

// runServer 啟動 HTTP 服務並在收到信號後優雅關閉
func runServer(ctx context.Context, cfg *config.Config, svc *services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := api.SetupRouter(cfg, api.Dependencies{
		Catalog:       svc.catalog,
		Substitutions: svc.subs,
		Assistant:     svc.assistant,
		Generator:     svc.generator,
		Queue:         svc.queue,
		Cache:         svc.store,
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		common.LogInfo(common.MsgAppStarted,
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("debug", cfg.App.Debug),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 等待中斷信號或啟動失敗
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	common.LogInfo(common.MsgServerClosing)

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	common.LogInfo(common.MsgServerExited)
	return nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
