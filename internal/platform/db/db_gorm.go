// Package db はgormによるデータベース接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	// DriverPostgres は本番用のドライバ名です。
	DriverPostgres = "postgres"
	// DriverSQLite はローカル開発・テスト用のドライバ名です。
	DriverSQLite = "sqlite"

	retryInterval  = 3 * time.Second
	connectTimeout = 60 * time.Second
)

// Config はデータベース接続設定です。
type Config struct {
	Driver       string
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	SSLMode      string
	InstanceName string // Cloud SQL の接続名（設定時はUnixソケット接続）
	SQLitePath   string
	Migrate      bool
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:       os.Getenv("DB_DRIVER"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		SSLMode:      os.Getenv("DB_SSLMODE"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		SQLitePath:   os.Getenv("DB_SQLITE_PATH"),
		Migrate:      os.Getenv("RUN_MIGRATIONS") == "true",
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverPostgres
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "stock_diagnosis.db"
	}
	return cfg
}

// BuildDSN はPostgreSQL用のDSN文字列を生成します。
// InstanceName が設定されている場合はCloud SQLのUnixソケットを使用します。
func BuildDSN(cfg Config) string {
	if cfg.InstanceName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s",
			cfg.InstanceName, cfg.User, cfg.Password, cfg.Name)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=Asia/Tokyo",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// Opener はDSNからDB接続を開く関数です（テストで差し替え可能）。
type Opener func(dsn string) (*gorm.DB, error)

// ConnectWithRetry は timeout を超えるまで retryInterval ごとに接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open は設定に従ってDB接続を開き、必要ならマイグレーションを実行します。
func Open(cfg Config, models ...any) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	case DriverPostgres:
		db, err = ConnectWithRetry(BuildDSN(cfg), connectTimeout, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), &gorm.Config{})
		})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	// SQLiteは常にスキーマを用意する
	if cfg.Migrate || cfg.Driver == DriverSQLite {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	slog.Info("database connected", "driver", cfg.Driver)
	return db, nil
}
