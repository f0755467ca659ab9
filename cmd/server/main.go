package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"stock_diagnosis/internal/app/di"
	"stock_diagnosis/internal/app/router"
	diagnosisadapters "stock_diagnosis/internal/feature/diagnosis/adapters"
	diagnosisentity "stock_diagnosis/internal/feature/diagnosis/domain/entity"
	diagnosishandler "stock_diagnosis/internal/feature/diagnosis/transport/handler"
	diagnosisusecase "stock_diagnosis/internal/feature/diagnosis/usecase"
	marketdataadapters "stock_diagnosis/internal/feature/marketdata/adapters"
	marketdataentity "stock_diagnosis/internal/feature/marketdata/domain/entity"
	marketdatahandler "stock_diagnosis/internal/feature/marketdata/transport/handler"
	marketdatausecase "stock_diagnosis/internal/feature/marketdata/usecase"
	redirectadapters "stock_diagnosis/internal/feature/redirect/adapters"
	redirectentity "stock_diagnosis/internal/feature/redirect/domain/entity"
	redirecthandler "stock_diagnosis/internal/feature/redirect/transport/handler"
	redirectusecase "stock_diagnosis/internal/feature/redirect/usecase"
	"stock_diagnosis/internal/platform/cache"
	"stock_diagnosis/internal/platform/db"
	platformhandler "stock_diagnosis/internal/platform/http/handler"
	infraredis "stock_diagnosis/internal/platform/redis"
	"stock_diagnosis/internal/shared/ratelimiter"
)

// warmTimeout はcronによるキャッシュウォーム1回あたりの上限時間です。
const warmTimeout = 30 * time.Minute

func main() {
	// .envを読み込む
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}
	ctx := context.Background()

	// db
	gdb, err := db.Open(db.LoadConfigFromEnv(),
		&marketdataentity.Symbol{},
		&diagnosisentity.DeliveryEvent{},
		&redirectentity.RedirectTarget{},
	)
	if err != nil {
		log.Fatal(err)
	}

	// Redis
	var rdb *redisv9.Client
	if rcfg := infraredis.LoadConfig(); rcfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, rcfg); err != nil {
			log.Println("[WARN] Redis unavailable. Falling back to in-memory cache.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Println("[ERROR] Failed to close Redis client:", err)
				}
			}()
		}
	}
	store := di.NewCacheStore(rdb, cache.LoadConfig())
	diagnoses := cache.NewDiagnosisCache(store)

	// Repository
	watchlistRepo := marketdataadapters.NewWatchlistRepository(gdb)
	eventRepo := diagnosisadapters.NewDeliveryEventRepository(gdb)
	targetRepo := redirectadapters.NewRedirectTargetRepository(gdb)

	// Usecase
	marketUC, snapshots, err := di.NewMarketDataUsecase(store)
	if err != nil {
		log.Fatal(err)
	}
	warmUC := marketdatausecase.NewWarmUsecase(marketUC, watchlistRepo, ratelimiter.NewRateLimiter(1, time.Second))
	streamUC := diagnosisusecase.NewStreamingUsecase(
		diagnosisusecase.LoadConfig(),
		marketUC,
		di.NewDiagnosisGenerator(ctx),
		diagnoses,
		eventRepo,
	)
	adminUC := diagnosisusecase.NewCacheAdminUsecase(diagnoses, snapshots, eventRepo)
	redirectUC := redirectusecase.NewRedirectUsecase(targetRepo, redirectusecase.NewWeightedSelector(targetRepo))

	// Handler
	handlers := router.Handlers{
		MarketData: marketdatahandler.NewMarketDataHandler(marketUC, warmUC),
		Diagnosis:  diagnosishandler.NewDiagnosisHandler(streamUC),
		CacheAdmin: diagnosishandler.NewCacheAdminHandler(adminUC),
		Redirect:   redirecthandler.NewRedirectHandler(redirectUC),
	}

	checks := []platformhandler.Check{{
		Name: "db",
		Probe: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if rdb != nil {
		checks = append(checks, platformhandler.Check{
			Name:  "redis",
			Probe: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	// ルータ生成
	r := router.NewRouter(handlers, checks...)

	// 定期キャッシュウォーム（例: WARM_CRON="*/10 9-15 * * 1-5"）
	if spec := os.Getenv("WARM_CRON"); spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
			defer cancel()
			if _, err := warmUC.WarmAll(ctx); err != nil {
				slog.Error("scheduled warm failed", "error", err)
			}
		}); err != nil {
			log.Fatalf("invalid WARM_CRON %q: %v", spec, err)
		}
		c.Start()
		defer c.Stop()
		slog.Info("scheduled cache warm enabled", "spec", spec)
	}

	// JWT_SECRETチェック（管理APIが使えない状態の注意喚起）
	if os.Getenv("JWT_SECRET") == "" {
		log.Println("[WARN] JWT_SECRET is not set. Admin endpoints will return 500.")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
