package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_diagnosis/internal/feature/marketdata/domain/entity"
)

// mockWatchlistRepository はWatchlistRepositoryインターフェースのモック実装です。
type mockWatchlistRepository struct {
	ListActiveFunc      func(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodesFunc func(ctx context.Context) ([]string, error)
}

func (m *mockWatchlistRepository) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockWatchlistRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	if m.ListActiveCodesFunc != nil {
		return m.ListActiveCodesFunc(ctx)
	}
	return nil, nil
}

// mockSnapshotGetter はSnapshotGetterインターフェースのモック実装です。
type mockSnapshotGetter struct {
	GetSnapshotFunc func(ctx context.Context, ticker string, forceRefresh bool) (SnapshotResult, error)
	Tickers         []string
}

func (m *mockSnapshotGetter) GetSnapshot(ctx context.Context, ticker string, forceRefresh bool) (SnapshotResult, error) {
	m.Tickers = append(m.Tickers, ticker)
	if m.GetSnapshotFunc != nil {
		return m.GetSnapshotFunc(ctx, ticker, forceRefresh)
	}
	return SnapshotResult{}, nil
}

// mockRateLimiter is a mock implementation of the RateLimiterInterface.
type mockRateLimiter struct {
	WaitIfNeededCalls int
}

func (m *mockRateLimiter) WaitIfNeeded() {
	m.WaitIfNeededCalls++
}

// TestWarmUsecase_WarmAll は全銘柄を強制リフレッシュし、結果を集計することを検証します。
func TestWarmUsecase_WarmAll(t *testing.T) {
	t.Parallel()

	getter := &mockSnapshotGetter{
		GetSnapshotFunc: func(ctx context.Context, ticker string, forceRefresh bool) (SnapshotResult, error) {
			assert.True(t, forceRefresh, "warm must bypass the cache")
			switch ticker {
			case "7203":
				return SnapshotResult{Cached: true, Stale: true}, nil
			case "6758":
				return SnapshotResult{}, errors.New("no data")
			default:
				return SnapshotResult{}, nil
			}
		},
	}
	watchlist := &mockWatchlistRepository{
		ListActiveCodesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"1031", "7203", "6758", "9984"}, nil
		},
	}
	limiter := &mockRateLimiter{}
	u := NewWarmUsecase(getter, watchlist, limiter)

	report, err := u.WarmAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WarmReport{Total: 4, Refreshed: 2, Stale: 1, Failed: 1}, report)
	assert.Equal(t, []string{"1031", "7203", "6758", "9984"}, getter.Tickers)
	assert.Equal(t, 4, limiter.WaitIfNeededCalls)
}

// TestWarmUsecase_WarmAll_ListError は銘柄一覧の取得失敗がそのまま返ることを検証します。
func TestWarmUsecase_WarmAll_ListError(t *testing.T) {
	t.Parallel()

	watchlist := &mockWatchlistRepository{
		ListActiveCodesFunc: func(ctx context.Context) ([]string, error) {
			return nil, errors.New("db down")
		},
	}
	getter := &mockSnapshotGetter{}
	u := NewWarmUsecase(getter, watchlist, &mockRateLimiter{})

	_, err := u.WarmAll(context.Background())
	assert.EqualError(t, err, "db down")
	assert.Empty(t, getter.Tickers)
}

// TestWarmUsecase_WarmAll_Cancelled はキャンセル後に残りの銘柄を処理しないことを検証します。
func TestWarmUsecase_WarmAll_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	getter := &mockSnapshotGetter{
		GetSnapshotFunc: func(ctx context.Context, ticker string, forceRefresh bool) (SnapshotResult, error) {
			cancel()
			return SnapshotResult{}, nil
		},
	}
	watchlist := &mockWatchlistRepository{
		ListActiveCodesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"1031", "7203"}, nil
		},
	}
	u := NewWarmUsecase(getter, watchlist, &mockRateLimiter{})

	report, err := u.WarmAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Refreshed)
	assert.Equal(t, []string{"1031"}, getter.Tickers)
}

// TestWarmUsecase_ListActiveSymbols はリポジトリの結果をそのまま返すことを検証します。
func TestWarmUsecase_ListActiveSymbols(t *testing.T) {
	t.Parallel()

	want := []entity.Symbol{{Code: "1031", Name: "サンプル工業"}}
	watchlist := &mockWatchlistRepository{
		ListActiveFunc: func(ctx context.Context) ([]entity.Symbol, error) { return want, nil },
	}
	u := NewWarmUsecase(&mockSnapshotGetter{}, watchlist, &mockRateLimiter{})

	got, err := u.ListActiveSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
