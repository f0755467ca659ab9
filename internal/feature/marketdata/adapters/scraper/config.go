// Package scraper は株価情報サイトからHTMLを取得・解析するアダプタを提供します。
package scraper

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	defaultBaseURL     = "https://kabutan.jp/stock/kabuka"
	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffUnit = 2 * time.Second
)

// Config holds configuration for the scraping client.
type Config struct {
	BaseURL        string        // 銘柄ページのベースURL（?code={ticker} を付与）
	Timeout        time.Duration // 1回の試行あたりのタイムアウト
	MaxAttempts    int           // 最大試行回数
	BackoffUnit    time.Duration // 線形バックオフの単位（unit × 試行回数）
	RatePerSec     float64       // 上流へのリクエスト上限（0以下で無制限）
	IdentitiesFile string        // ブラウザ識別ヘッダのYAMLファイル（空なら組み込み）
}

// DefaultConfig は組み込みのデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		BaseURL:     defaultBaseURL,
		Timeout:     defaultTimeout,
		MaxAttempts: defaultMaxAttempts,
		BackoffUnit: defaultBackoffUnit,
	}
}

// LoadConfig loads scraper configuration from environment variables.
// 未設定または不正な値はデフォルト値にフォールバックします。
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("SCRAPER_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	cfg.Timeout = envDuration("SCRAPER_TIMEOUT", cfg.Timeout)
	cfg.BackoffUnit = envDuration("SCRAPER_BACKOFF_UNIT", cfg.BackoffUnit)
	if v := os.Getenv("SCRAPER_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		} else {
			slog.Warn("invalid SCRAPER_MAX_ATTEMPTS, using default", "value", v)
		}
	}
	if v := os.Getenv("SCRAPER_RATE_PER_SEC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RatePerSec = f
		} else {
			slog.Warn("invalid SCRAPER_RATE_PER_SEC, ignoring", "value", v)
		}
	}
	cfg.IdentitiesFile = os.Getenv("SCRAPER_IDENTITIES_FILE")
	return cfg
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v)
		return def
	}
	return d
}
