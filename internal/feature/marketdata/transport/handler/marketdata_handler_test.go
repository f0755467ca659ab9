package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_diagnosis/internal/api"
	"stock_diagnosis/internal/feature/marketdata/domain"
	"stock_diagnosis/internal/feature/marketdata/domain/entity"
	"stock_diagnosis/internal/feature/marketdata/usecase"
)

// mockSnapshotUsecase はSnapshotUsecaseインターフェースのモック実装です。
type mockSnapshotUsecase struct {
	GetSnapshotFunc func(ctx context.Context, ticker string, forceRefresh bool) (usecase.SnapshotResult, error)
}

func (m *mockSnapshotUsecase) GetSnapshot(ctx context.Context, ticker string, forceRefresh bool) (usecase.SnapshotResult, error) {
	if m.GetSnapshotFunc != nil {
		return m.GetSnapshotFunc(ctx, ticker, forceRefresh)
	}
	return usecase.SnapshotResult{}, nil
}

// mockWatchlistUsecase はWatchlistUsecaseインターフェースのモック実装です。
type mockWatchlistUsecase struct {
	ListActiveSymbolsFunc func(ctx context.Context) ([]entity.Symbol, error)
}

func (m *mockWatchlistUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	if m.ListActiveSymbolsFunc != nil {
		return m.ListActiveSymbolsFunc(ctx)
	}
	return nil, nil
}

// TestMarketDataHandler_GetSnapshot はGetSnapshotハンドラーの各種シナリオを検証します。
func TestMarketDataHandler_GetSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)

	fetchedAt := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	snap := entity.MarketSnapshot{
		Ticker:  "1031",
		Basic:   entity.Basic{Name: "サンプル工業", Exchange: "東証Ｐ", Category: "内国株式", Sector: "輸送用機器"},
		Current: entity.Current{Price: 3450, Change: 45, ChangePercent: 1.32, TrendDirection: entity.TrendUp},
		Historical: []entity.HistoricalRow{
			{Date: "2025-01-15", Close: 3450, Volume: 1234500},
		},
	}

	tests := []struct {
		name           string
		path           string
		mockFunc       func(ctx context.Context, ticker string, forceRefresh bool) (usecase.SnapshotResult, error)
		expectedStatus int
		verify         func(t *testing.T, body []byte)
	}{
		{
			name: "success: fresh snapshot",
			path: "/v1/stocks/1031",
			mockFunc: func(ctx context.Context, ticker string, forceRefresh bool) (usecase.SnapshotResult, error) {
				assert.Equal(t, "1031", ticker)
				assert.False(t, forceRefresh)
				return usecase.SnapshotResult{Snapshot: snap, FetchedAt: fetchedAt}, nil
			},
			expectedStatus: http.StatusOK,
			verify: func(t *testing.T, body []byte) {
				var res api.SnapshotResponse
				require.NoError(t, json.Unmarshal(body, &res))
				assert.Equal(t, "サンプル工業", res.Basic.Name)
				assert.Equal(t, "up", res.Current.TrendDirection)
				assert.False(t, res.Cached)
				assert.False(t, res.Stale)
				require.Len(t, res.Historical, 1)
				assert.Equal(t, int64(1234500), res.Historical[0].Volume)
			},
		},
		{
			name: "success: stale snapshot with refresh flag",
			path: "/v1/stocks/1031?refresh=true",
			mockFunc: func(ctx context.Context, ticker string, forceRefresh bool) (usecase.SnapshotResult, error) {
				assert.True(t, forceRefresh)
				return usecase.SnapshotResult{Snapshot: snap, Cached: true, Stale: true, FetchedAt: fetchedAt}, nil
			},
			expectedStatus: http.StatusOK,
			verify: func(t *testing.T, body []byte) {
				var res api.SnapshotResponse
				require.NoError(t, json.Unmarshal(body, &res))
				assert.True(t, res.Cached)
				assert.True(t, res.Stale)
			},
		},
		{
			name: "failure: no data available",
			path: "/v1/stocks/0000",
			mockFunc: func(ctx context.Context, ticker string, forceRefresh bool) (usecase.SnapshotResult, error) {
				return usecase.SnapshotResult{}, &domain.ServiceError{Ticker: ticker, Err: errors.New("upstream down")}
			},
			expectedStatus: http.StatusBadGateway,
			verify: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"error":"no market data available for 0000: upstream down"}`, string(body))
			},
		},
		{
			name: "failure: empty ticker",
			path: "/v1/stocks/%20",
			mockFunc: func(ctx context.Context, ticker string, forceRefresh bool) (usecase.SnapshotResult, error) {
				return usecase.SnapshotResult{}, domain.ErrEmptyTicker
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewMarketDataHandler(&mockSnapshotUsecase{GetSnapshotFunc: tt.mockFunc}, &mockWatchlistUsecase{})
			router := gin.New()
			router.GET("/v1/stocks/:ticker", h.GetSnapshot)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.verify != nil {
				tt.verify(t, w.Body.Bytes())
			}
		})
	}
}

// TestMarketDataHandler_ListSymbols は監視銘柄一覧がcodeとnameのみで返ることを検証します。
func TestMarketDataHandler_ListSymbols(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		mockFunc       func(ctx context.Context) ([]entity.Symbol, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			mockFunc: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{{ID: 9, Code: "1031", Name: "サンプル工業", Market: "東証", IsActive: true}}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"code":"1031","name":"サンプル工業"}]`,
		},
		{
			name:           "success: nil from usecase",
			mockFunc:       func(ctx context.Context) ([]entity.Symbol, error) { return nil, nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name: "failure",
			mockFunc: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, errors.New("database connection failed")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"database connection failed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewMarketDataHandler(&mockSnapshotUsecase{}, &mockWatchlistUsecase{ListActiveSymbolsFunc: tt.mockFunc})
			router := gin.New()
			router.GET("/v1/symbols", h.ListSymbols)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/v1/symbols", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

// TestStatusFor はエラーとHTTPステータスの対応を検証します。
func TestStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.ErrEmptyTicker))
	assert.Equal(t, http.StatusBadGateway, StatusFor(&domain.ServiceError{Ticker: "x", Err: errors.New("e")}))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("other")))
}
