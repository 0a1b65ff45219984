package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"recipe-helper/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App           AppConfig         `mapstructure:"app"`
	Server        ServerConfig      `mapstructure:"server"`
	Catalog       CatalogConfig     `mapstructure:"catalog"`
	Match         MatchConfig       `mapstructure:"match"`
	Substitutions map[string]string `mapstructure:"substitutions"`
	Assistant     AssistantConfig   `mapstructure:"assistant"`
	Cache         CacheConfig       `mapstructure:"cache"`
	Queue         QueueConfig       `mapstructure:"queue"`
	RateLimit     RateLimitConfig   `mapstructure:"rate_limit"`
	Saved         SavedConfig       `mapstructure:"saved"`
	DedupWindow   time.Duration     `mapstructure:"dedup_window"`
	LogLevel      string            `mapstructure:"log_level"`
	LogFile       string            `mapstructure:"log_file"`
	LogMode       string            `mapstructure:"log_mode"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// CatalogConfig 食譜目錄來源，空路徑表示使用內建目錄
type CatalogConfig struct {
	Path         string `mapstructure:"path"`
	MaxGenerated int    `mapstructure:"max_generated"` // API 保留的生成食譜上限
}

// MatchConfig 比對參數
type MatchConfig struct {
	MinMatch int `mapstructure:"min_match"`
	TopN     int `mapstructure:"top_n"`
}

// AssistantConfig 聊天助理配置（OpenAI 相容 API）
type AssistantConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Model        string        `mapstructure:"model"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Temperature  float64       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SystemPrompt string        `mapstructure:"system_prompt"`
}

// Active 是否啟用且已設定 API Key
func (a AssistantConfig) Active() bool {
	return a.Enabled && strings.TrimSpace(a.APIKey) != ""
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	RedisURL        string        `mapstructure:"redis_url"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 助理請求隊列配置
type QueueConfig struct {
	MaxSize int `mapstructure:"max_size"`
	Workers int `mapstructure:"workers"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// SavedConfig 收藏檔與食譜卡輸出位置
type SavedConfig struct {
	Path    string `mapstructure:"path"`
	CardDir string `mapstructure:"card_dir"`
}

// LoadConfig 載入設定；configFile 為空時只使用預設值與環境變數
func LoadConfig(configFile string) (*Config, error) {
	// 加載 .env 文件（不存在時略過）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"assistant.api_key":   "OPENAI_API_KEY",
		"assistant.base_url":  "OPENAI_BASE_URL",
		"assistant.model":     "OPENAI_MODEL",
		"cache.enabled":       "CACHE_ENABLED",
		"cache.backend":       "CACHE_BACKEND",
		"cache.redis_url":     "REDIS_URL",
		"catalog.path":        "CATALOG_PATH",
		"rate_limit.enabled":  "RATE_LIMIT_ENABLED",
		"rate_limit.requests": "RATE_LIMIT_REQUESTS",
		"rate_limit.window":   "RATE_LIMIT_WINDOW",
		"server.port":         "PORT",
		"dedup_window":        "DEDUP_WINDOW",
		"log_level":           "LOG_LEVEL",
		"log_file":            "LOG_FILE",
		"log_mode":            "LOG_MODE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 讀取設定檔
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-helper")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.max_generated", 100)

	// 比對設定
	v.SetDefault("match.min_match", 2)
	v.SetDefault("match.top_n", 3)

	// 助理設定
	v.SetDefault("assistant.enabled", true)
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.base_url", "https://api.openai.com/v1")
	v.SetDefault("assistant.model", "gpt-4o-mini")
	v.SetDefault("assistant.max_tokens", 500)
	v.SetDefault("assistant.temperature", 0.6)
	v.SetDefault("assistant.timeout", "60s")
	v.SetDefault("assistant.system_prompt",
		"You are a helpful cooking assistant. Answer concisely and use numbered steps when describing actions.")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.key_prefix", "recipe-helper:")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 隊列設定
	v.SetDefault("queue.max_size", 100)
	v.SetDefault("queue.workers", 4)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 收藏設定
	v.SetDefault("saved.path", "saved_recipes.json")
	v.SetDefault("saved.card_dir", "saved_cards")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_mode", "")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return common.NewValidationError(fmt.Sprintf("invalid server port %d", config.Server.Port))
	}
	if config.Server.MaxBodyBytes <= 0 {
		return common.NewValidationError("invalid server max body bytes")
	}

	if config.Catalog.MaxGenerated <= 0 {
		return common.NewValidationError("catalog max_generated must be positive")
	}

	// 驗證比對設定
	if config.Match.MinMatch <= 0 {
		return common.NewValidationError("match min_match must be positive")
	}
	if config.Match.TopN <= 0 {
		return common.NewValidationError("match top_n must be positive")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return common.NewValidationError("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return common.NewValidationError("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisURL == "" {
				return common.NewValidationError("redis url is required for redis cache backend")
			}
		default:
			return common.NewValidationError(fmt.Sprintf("unknown cache backend %q", config.Cache.Backend))
		}
		if config.Cache.TTL <= 0 {
			return common.NewValidationError("invalid cache ttl")
		}
	}

	// 驗證隊列設定
	if config.Queue.MaxSize <= 0 || config.Queue.Workers <= 0 {
		return common.NewValidationError("invalid queue settings")
	}

	// 驗證限流設定
	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return common.NewValidationError("invalid rate limit settings")
	}

	if config.Assistant.MaxTokens <= 0 {
		return common.NewValidationError("assistant max_tokens must be positive")
	}

	return nil
}
