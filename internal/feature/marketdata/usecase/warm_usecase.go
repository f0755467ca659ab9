package usecase

import (
	"context"
	"log/slog"

	"stock_diagnosis/internal/feature/marketdata/domain/entity"
	"stock_diagnosis/internal/shared/ratelimiter"
)

// WatchlistRepository は監視銘柄の永続化層を抽象化します。
type WatchlistRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// SnapshotGetter はスナップショットを取得するユースケースのインターフェースです。
type SnapshotGetter interface {
	GetSnapshot(ctx context.Context, ticker string, forceRefresh bool) (SnapshotResult, error)
}

// WarmReport はキャッシュウォームの結果です。
type WarmReport struct {
	Total     int
	Refreshed int
	Stale     int
	Failed    int
}

// WarmUsecase は監視銘柄のスナップショットを上流から取り直し、キャッシュを温めます。
type WarmUsecase struct {
	snapshots   SnapshotGetter
	watchlist   WatchlistRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewWarmUsecase は新しい WarmUsecase を作成します。
func NewWarmUsecase(snapshots SnapshotGetter, watchlist WatchlistRepository, rateLimiter ratelimiter.RateLimiterInterface) *WarmUsecase {
	return &WarmUsecase{snapshots: snapshots, watchlist: watchlist, rateLimiter: rateLimiter}
}

// ListActiveSymbols はアクティブな監視銘柄の一覧を返します。
func (u *WarmUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.watchlist.ListActive(ctx)
}

// WarmAll は全アクティブ銘柄を強制リフレッシュします。
// 上流への負荷を考慮してリクエスト間にレートリミットを挟みます。
// 1つの銘柄で失敗しても処理を止めずに次の銘柄へ進みます。
func (u *WarmUsecase) WarmAll(ctx context.Context) (WarmReport, error) {
	codes, err := u.watchlist.ListActiveCodes(ctx)
	if err != nil {
		return WarmReport{}, err
	}

	report := WarmReport{Total: len(codes)}
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		u.rateLimiter.WaitIfNeeded()

		res, err := u.snapshots.GetSnapshot(ctx, code, true)
		switch {
		case err != nil:
			report.Failed++
			slog.Error("failed to warm snapshot", "ticker", code, "error", err)
		case res.Stale:
			report.Stale++
		default:
			report.Refreshed++
		}
	}

	slog.Info("snapshot cache warmed",
		"total", report.Total,
		"refreshed", report.Refreshed,
		"stale", report.Stale,
		"failed", report.Failed,
	)
	return report, nil
}
