package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_diagnosis/internal/api"
	"stock_diagnosis/internal/feature/diagnosis/domain"
	"stock_diagnosis/internal/feature/diagnosis/usecase"
	mddomain "stock_diagnosis/internal/feature/marketdata/domain"
	"stock_diagnosis/internal/platform/cache"
)

// CacheAdminUsecase はキャッシュ管理のユースケースインターフェースです。
type CacheAdminUsecase interface {
	DiagnosisInfo(ctx context.Context, ticker string) (usecase.DiagnosisCacheInfo, error)
	EvictDiagnosis(ctx context.Context, ticker string) error
	FlushDiagnoses(ctx context.Context) error
	EvictSnapshot(ctx context.Context, ticker string) error
	FlushSnapshots(ctx context.Context) error
	DeliveryStats(ctx context.Context, ticker string) (usecase.DeliveryStats, error)
}

// CacheAdminHandler は管理者向けのキャッシュ操作を処理します。
// 認可は /admin グループのミドルウェアで行います。
type CacheAdminHandler struct {
	uc CacheAdminUsecase
}

// NewCacheAdminHandler は新しい CacheAdminHandler を作成します。
func NewCacheAdminHandler(uc CacheAdminUsecase) *CacheAdminHandler {
	return &CacheAdminHandler{uc: uc}
}

// GetDiagnosis は診断キャッシュのメタデータを返します（GET /admin/cache/diagnosis/:ticker）。
func (h *CacheAdminHandler) GetDiagnosis(c *gin.Context) {
	info, err := h.uc.DiagnosisInfo(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		c.JSON(adminStatusFor(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.DiagnosisCacheResponse{
		Ticker:    info.Ticker,
		Length:    info.Length,
		HitCount:  info.HitCount,
		StoredAt:  info.StoredAt,
		ExpiresAt: info.ExpiresAt,
	})
}

// DeleteDiagnosis は1銘柄の診断キャッシュを削除します（DELETE /admin/cache/diagnosis/:ticker）。
func (h *CacheAdminHandler) DeleteDiagnosis(c *gin.Context) {
	h.respond(c, h.uc.EvictDiagnosis(c.Request.Context(), c.Param("ticker")), "diagnosis evicted")
}

// FlushDiagnoses は診断キャッシュを全件削除します（DELETE /admin/cache/diagnosis）。
func (h *CacheAdminHandler) FlushDiagnoses(c *gin.Context) {
	h.respond(c, h.uc.FlushDiagnoses(c.Request.Context()), "diagnosis cache flushed")
}

// DeleteSnapshot は1銘柄のスナップショットキャッシュを削除します（DELETE /admin/cache/snapshots/:ticker）。
func (h *CacheAdminHandler) DeleteSnapshot(c *gin.Context) {
	h.respond(c, h.uc.EvictSnapshot(c.Request.Context(), c.Param("ticker")), "snapshot evicted")
}

// FlushSnapshots はスナップショットキャッシュを全件削除します（DELETE /admin/cache/snapshots）。
func (h *CacheAdminHandler) FlushSnapshots(c *gin.Context) {
	h.respond(c, h.uc.FlushSnapshots(c.Request.Context()), "snapshot cache flushed")
}

// GetDeliveryStats は銘柄の配信回数を返します（GET /admin/analytics/:ticker）。
func (h *CacheAdminHandler) GetDeliveryStats(c *gin.Context) {
	stats, err := h.uc.DeliveryStats(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		c.JSON(adminStatusFor(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.DeliveryStatsResponse{
		Ticker:    stats.Ticker,
		FromCache: stats.FromCache,
		Generated: stats.Generated,
	})
}

func (h *CacheAdminHandler) respond(c *gin.Context, err error, msg string) {
	if err != nil {
		c.JSON(adminStatusFor(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: msg})
}

func adminStatusFor(err error) int {
	switch {
	case errors.Is(err, mddomain.ErrEmptyTicker):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDiagnosisNotCached):
		return http.StatusNotFound
	case errors.Is(err, cache.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
