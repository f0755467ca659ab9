package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"stock_diagnosis/internal/app/di"
	marketdataadapters "stock_diagnosis/internal/feature/marketdata/adapters"
	marketdataentity "stock_diagnosis/internal/feature/marketdata/domain/entity"
	"stock_diagnosis/internal/feature/marketdata/usecase"
	"stock_diagnosis/internal/platform/cache"
	"stock_diagnosis/internal/platform/db"
	infraredis "stock_diagnosis/internal/platform/redis"
	"stock_diagnosis/internal/shared/ratelimiter"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	gdb, err := db.Open(db.LoadConfigFromEnv(), &marketdataentity.Symbol{})
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	// メモリストアではプロセス終了とともに消えるため、Redisが必須
	rcfg := infraredis.LoadConfig()
	if !rcfg.Enabled() {
		log.Fatal("REDIS_HOST is required for cmd/warm")
	}
	var rdb *redisv9.Client
	if rdb, err = infraredis.NewRedisClient(ctx, rcfg); err != nil {
		log.Fatal("redis unavailable:", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Println("[ERROR] Failed to close Redis client:", err)
		}
	}()

	marketUC, _, err := di.NewMarketDataUsecase(di.NewCacheStore(rdb, cache.LoadConfig()))
	if err != nil {
		log.Fatal(err)
	}
	uc := usecase.NewWarmUsecase(marketUC, marketdataadapters.NewWatchlistRepository(gdb), ratelimiter.NewRateLimiter(1, time.Second))

	report, err := uc.WarmAll(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("warm ok: total=%d refreshed=%d stale=%d failed=%d",
		report.Total, report.Refreshed, report.Stale, report.Failed)
}
