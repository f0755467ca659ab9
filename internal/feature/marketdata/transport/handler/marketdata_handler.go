// Package handler はmarketdataフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stock_diagnosis/internal/api"
	"stock_diagnosis/internal/feature/marketdata/domain"
	"stock_diagnosis/internal/feature/marketdata/domain/entity"
	"stock_diagnosis/internal/feature/marketdata/usecase"
)

// SnapshotUsecase はスナップショット取得のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type SnapshotUsecase interface {
	GetSnapshot(ctx context.Context, ticker string, forceRefresh bool) (usecase.SnapshotResult, error)
}

// WatchlistUsecase は監視銘柄一覧のユースケースインターフェースです。
type WatchlistUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
}

// MarketDataHandler は株価データのHTTPリクエストを処理します。
type MarketDataHandler struct {
	snapshots SnapshotUsecase
	watchlist WatchlistUsecase
}

// NewMarketDataHandler は新しい MarketDataHandler を作成します。
func NewMarketDataHandler(snapshots SnapshotUsecase, watchlist WatchlistUsecase) *MarketDataHandler {
	return &MarketDataHandler{snapshots: snapshots, watchlist: watchlist}
}

// GetSnapshot は銘柄のスナップショットをJSONで返します。
//
// エンドポイント例:
// GET /v1/stocks/:ticker?refresh=true
//
// 上流の取得に失敗しキャッシュも無い場合は502、stale なデータを返す場合は200で stale=true です。
func (h *MarketDataHandler) GetSnapshot(c *gin.Context) {
	ticker := c.Param("ticker")
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	res, err := h.snapshots.GetSnapshot(c.Request.Context(), ticker, refresh)
	if err != nil {
		c.JSON(StatusFor(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ToSnapshotResponse(res))
}

// ListSymbols はアクティブな監視銘柄の一覧を返します。
func (h *MarketDataHandler) ListSymbols(c *gin.Context) {
	symbols, err := h.watchlist.ListActiveSymbols(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]api.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, api.SymbolItem{Code: s.Code, Name: s.Name})
	}
	c.JSON(http.StatusOK, out)
}

// StatusFor はmarketdataのエラーをHTTPステータスに変換します。
func StatusFor(err error) int {
	var svcErr *domain.ServiceError
	switch {
	case errors.Is(err, domain.ErrEmptyTicker):
		return http.StatusBadRequest
	case errors.As(err, &svcErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ToSnapshotResponse はユースケースの結果をレスポンスDTOに変換します。
func ToSnapshotResponse(res usecase.SnapshotResult) api.SnapshotResponse {
	s := res.Snapshot
	hist := make([]api.HistoricalRowResponse, 0, len(s.Historical))
	for _, r := range s.Historical {
		hist = append(hist, api.HistoricalRowResponse{
			Date:          r.Date,
			Open:          r.Open,
			High:          r.High,
			Low:           r.Low,
			Close:         r.Close,
			Change:        r.Change,
			ChangePercent: r.ChangePercent,
			Volume:        r.Volume,
		})
	}
	point := func(p entity.PricePoint) api.PricePointResponse {
		return api.PricePointResponse{Price: p.Price, Date: p.Date}
	}
	return api.SnapshotResponse{
		Ticker: s.Ticker,
		Basic: api.BasicResponse{
			Name:     s.Basic.Name,
			Exchange: s.Basic.Exchange,
			Category: s.Basic.Category,
			Sector:   s.Basic.Sector,
		},
		Current: api.CurrentResponse{
			Price:          s.Current.Price,
			Change:         s.Current.Change,
			ChangePercent:  s.Current.ChangePercent,
			TrendDirection: string(s.Current.TrendDirection),
			UpdateTime:     s.Current.UpdateTime,
		},
		Range: api.RangeResponse{
			Week52High: point(s.Range.Week52High),
			Week52Low:  point(s.Range.Week52Low),
			YearHigh:   point(s.Range.YearHigh),
			YearLow:    point(s.Range.YearLow),
		},
		Historical: hist,
		Cached:     res.Cached,
		Stale:      res.Stale,
		FetchedAt:  res.FetchedAt,
	}
}
