package cache

import (
	"log/slog"
	"os"
	"time"
)

// DefaultNamespace はRedisキーの既定のプレフィックスです。
const DefaultNamespace = "stock_diagnosis"

// Config はキャッシュストアの設定です。
type Config struct {
	Namespace      string
	StaleRetention time.Duration // 期限切れ後もstale読み取り用に保持する期間
}

// LoadConfig は環境変数 CACHE_NAMESPACE, CACHE_STALE_RETENTION から設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		Namespace:      os.Getenv("CACHE_NAMESPACE"),
		StaleRetention: DefaultStaleRetention,
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if v := os.Getenv("CACHE_STALE_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.StaleRetention = d
		} else {
			slog.Warn("invalid CACHE_STALE_RETENTION, using default", "value", v)
		}
	}
	return cfg
}
