// Package redis はgo-redisクライアントの生成を提供します。
package redis

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Config はRedis接続設定です。
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LoadConfig は環境変数 REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB から設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     os.Getenv("REDIS_PORT"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	if cfg.Port == "" {
		cfg.Port = "6379"
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DB = n
		} else {
			slog.Warn("invalid REDIS_DB, using 0", "value", v)
		}
	}
	return cfg
}

// Enabled はRedisの接続先が設定されているかを返します。
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Addr は host:port 形式のアドレスを返します。
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// NewRedisClient はRedisクライアントを生成し、疎通を確認します。
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	addr := cfg.Addr()
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
