package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"recipe-helper/internal/infrastructure/config"
	"recipe-helper/internal/pkg/common"
)

// Store 助理回答的快取後端
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// NewStore 依設定建立快取；停用時回傳 nil
func NewStore(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}

	switch cfg.Backend {
	case "", "memory":
		return NewManager(cfg), nil
	case "redis":
		rs, err := NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key 由多個片段產生固定長度的快取鍵
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}
