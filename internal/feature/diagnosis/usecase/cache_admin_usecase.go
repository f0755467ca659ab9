package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"stock_diagnosis/internal/feature/diagnosis/domain"
	mddomain "stock_diagnosis/internal/feature/marketdata/domain"
	"stock_diagnosis/internal/platform/cache"
)

// DiagnosisCacheAdmin は管理操作用の診断キャッシュです。
type DiagnosisCacheAdmin interface {
	Peek(ctx context.Context, key string) (cache.Entry[string], bool)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
}

// SnapshotCacheAdmin は管理操作用のスナップショットキャッシュです。
type SnapshotCacheAdmin interface {
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
}

// DeliveryCounter は配信イベントの集計を提供します。
type DeliveryCounter interface {
	CountByTicker(ctx context.Context, ticker string) (cached, fresh int64, err error)
}

// DeliveryStats は銘柄ごとの配信回数です。
type DeliveryStats struct {
	Ticker    string
	FromCache int64
	Generated int64
}

// DiagnosisCacheInfo は診断キャッシュエントリのメタデータです。
type DiagnosisCacheInfo struct {
	Ticker    string
	Length    int
	HitCount  int64
	StoredAt  time.Time
	ExpiresAt time.Time
}

// CacheAdminUsecase はキャッシュの参照・削除を行う管理ユースケースです。
// 読み取り系と異なり、ストアの失敗はエラーとして返します。
type CacheAdminUsecase struct {
	diagnoses DiagnosisCacheAdmin
	snapshots SnapshotCacheAdmin
	counter   DeliveryCounter
}

// NewCacheAdminUsecase は新しい CacheAdminUsecase を作成します。
func NewCacheAdminUsecase(diagnoses DiagnosisCacheAdmin, snapshots SnapshotCacheAdmin, counter DeliveryCounter) *CacheAdminUsecase {
	return &CacheAdminUsecase{diagnoses: diagnoses, snapshots: snapshots, counter: counter}
}

// DiagnosisInfo は診断キャッシュのメタデータを返します。ヒット数は変更しません。
func (u *CacheAdminUsecase) DiagnosisInfo(ctx context.Context, ticker string) (DiagnosisCacheInfo, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return DiagnosisCacheInfo{}, mddomain.ErrEmptyTicker
	}
	e, ok := u.diagnoses.Peek(ctx, ticker)
	if !ok {
		return DiagnosisCacheInfo{}, domain.ErrDiagnosisNotCached
	}
	return DiagnosisCacheInfo{
		Ticker:    ticker,
		Length:    utf8.RuneCountInString(e.Value),
		HitCount:  e.HitCount,
		StoredAt:  e.StoredAt,
		ExpiresAt: e.ExpiresAt,
	}, nil
}

// EvictDiagnosis は1銘柄の診断キャッシュを削除します。
func (u *CacheAdminUsecase) EvictDiagnosis(ctx context.Context, ticker string) error {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return mddomain.ErrEmptyTicker
	}
	if err := u.diagnoses.Delete(ctx, ticker); err != nil {
		return err
	}
	slog.Info("diagnosis cache evicted", "ticker", ticker)
	return nil
}

// FlushDiagnoses は診断キャッシュを全件削除します。
func (u *CacheAdminUsecase) FlushDiagnoses(ctx context.Context) error {
	if err := u.diagnoses.DeleteAll(ctx); err != nil {
		return err
	}
	slog.Info("diagnosis cache flushed")
	return nil
}

// EvictSnapshot は1銘柄のスナップショットキャッシュを削除します。
func (u *CacheAdminUsecase) EvictSnapshot(ctx context.Context, ticker string) error {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return mddomain.ErrEmptyTicker
	}
	if err := u.snapshots.Delete(ctx, ticker); err != nil {
		return err
	}
	slog.Info("snapshot cache evicted", "ticker", ticker)
	return nil
}

// FlushSnapshots はスナップショットキャッシュを全件削除します。
func (u *CacheAdminUsecase) FlushSnapshots(ctx context.Context) error {
	if err := u.snapshots.DeleteAll(ctx); err != nil {
		return err
	}
	slog.Info("snapshot cache flushed")
	return nil
}

// DeliveryStats は銘柄のキャッシュ再生・新規生成それぞれの配信回数を返します。
func (u *CacheAdminUsecase) DeliveryStats(ctx context.Context, ticker string) (DeliveryStats, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return DeliveryStats{}, mddomain.ErrEmptyTicker
	}
	cached, fresh, err := u.counter.CountByTicker(ctx, ticker)
	if err != nil {
		return DeliveryStats{}, err
	}
	return DeliveryStats{Ticker: ticker, FromCache: cached, Generated: fresh}, nil
}
