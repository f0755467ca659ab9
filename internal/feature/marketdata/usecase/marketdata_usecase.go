// Package usecase implements the business logic for market data acquisition.
package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"stock_diagnosis/internal/feature/marketdata/domain"
	"stock_diagnosis/internal/feature/marketdata/domain/entity"
	"stock_diagnosis/internal/platform/cache"
)

// PageFetcher は銘柄ページの生HTMLを取得します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PageFetcher interface {
	URLFor(ticker string) string
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SnapshotExtractor はHTMLをMarketSnapshotに変換します。
type SnapshotExtractor interface {
	Extract(html, ticker string) (entity.MarketSnapshot, error)
}

// SnapshotCache はスナップショットの保存先です。
type SnapshotCache interface {
	Get(ctx context.Context, key string) (cache.Entry[entity.MarketSnapshot], bool)
	GetIncludingExpired(ctx context.Context, key string) (cache.Entry[entity.MarketSnapshot], bool)
	Set(ctx context.Context, key string, value entity.MarketSnapshot) error
}

// SnapshotResult はGetSnapshotの結果です。
// Cached はキャッシュから返したこと、Stale は取得失敗のため期限切れの可能性があるキャッシュを返したことを示します。
type SnapshotResult struct {
	Snapshot  entity.MarketSnapshot
	Cached    bool
	Stale     bool
	FetchedAt time.Time
}

// MarketDataUsecase は取得・解析・キャッシュを組み合わせてスナップショットを提供します。
type MarketDataUsecase struct {
	fetcher   PageFetcher
	extractor SnapshotExtractor
	cache     SnapshotCache
	now       func() time.Time
	group     singleflight.Group
}

// NewMarketDataUsecase は新しい MarketDataUsecase を作成します。
func NewMarketDataUsecase(fetcher PageFetcher, extractor SnapshotExtractor, c SnapshotCache) *MarketDataUsecase {
	return &MarketDataUsecase{fetcher: fetcher, extractor: extractor, cache: c, now: time.Now}
}

// GetSnapshot は銘柄のスナップショットを返します。
//
// forceRefresh が false で有効なキャッシュがあればそれを返します（Cached=true）。
// それ以外は上流から取得し、成功すればキャッシュへ書き込みます（Cached=false）。
// 取得または解析に失敗した場合、期限切れを含むキャッシュがあればそれを返し（Cached=true, Stale=true）、
// 無ければ *domain.ServiceError を返します。
// 同じ銘柄への同時リクエストは1回の上流取得を共有します。
func (u *MarketDataUsecase) GetSnapshot(ctx context.Context, ticker string, forceRefresh bool) (SnapshotResult, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return SnapshotResult{}, domain.ErrEmptyTicker
	}

	if !forceRefresh {
		if e, ok := u.cache.Get(ctx, ticker); ok {
			return SnapshotResult{Snapshot: e.Value, Cached: true, FetchedAt: e.StoredAt}, nil
		}
	}

	// 共有される取得処理は個々の呼び出し元のキャンセルに影響されない
	ch := u.group.DoChan(ticker, func() (any, error) {
		return u.refresh(context.WithoutCancel(ctx), ticker)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return SnapshotResult{}, ctx.Err()
	case res = <-ch:
	}

	if res.Err == nil {
		return res.Val.(SnapshotResult), nil
	}

	if e, ok := u.cache.GetIncludingExpired(ctx, ticker); ok {
		slog.Warn("serving stale snapshot after fetch failure",
			"ticker", ticker,
			"stored_at", e.StoredAt,
			"expires_at", e.ExpiresAt,
			"error", res.Err,
		)
		return SnapshotResult{Snapshot: e.Value, Cached: true, Stale: true, FetchedAt: e.StoredAt}, nil
	}

	slog.Error("no snapshot available", "ticker", ticker, "error", res.Err)
	return SnapshotResult{}, &domain.ServiceError{Ticker: ticker, Err: res.Err}
}

// refresh は上流から取得・解析し、キャッシュへ書き込みます。
// キャッシュへの書き込み失敗は結果に影響しません。
func (u *MarketDataUsecase) refresh(ctx context.Context, ticker string) (SnapshotResult, error) {
	body, err := u.fetcher.Fetch(ctx, u.fetcher.URLFor(ticker))
	if err != nil {
		return SnapshotResult{}, err
	}

	snap, err := u.extractor.Extract(string(body), ticker)
	if err != nil {
		return SnapshotResult{}, err
	}

	if err := u.cache.Set(ctx, ticker, snap); err != nil {
		slog.Warn("failed to cache snapshot", "ticker", ticker, "error", err)
	}
	return SnapshotResult{Snapshot: snap, FetchedAt: u.now()}, nil
}
