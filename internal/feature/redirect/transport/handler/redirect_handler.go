// Package handler はredirectフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stock_diagnosis/internal/api"
	"stock_diagnosis/internal/feature/redirect/domain"
	"stock_diagnosis/internal/feature/redirect/domain/entity"
)

// RedirectUsecase はリダイレクト先選択のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type RedirectUsecase interface {
	Next(ctx context.Context) (entity.RedirectTarget, error)
}

// RedirectHandler はリダイレクト先の選択リクエストを処理します。
type RedirectHandler struct {
	uc RedirectUsecase
}

// NewRedirectHandler は新しい RedirectHandler を作成します。
func NewRedirectHandler(uc RedirectUsecase) *RedirectHandler {
	return &RedirectHandler{uc: uc}
}

// Next は重み付きで選んだリダイレクト先を返します。
//
// エンドポイント: GET /v1/redirect
// follow=true の場合は302で選択先へリダイレクトします。
func (h *RedirectHandler) Next(c *gin.Context) {
	target, err := h.uc.Next(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoCandidates) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("failed to select redirect target", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to select redirect target"})
		return
	}

	if follow, _ := strconv.ParseBool(c.DefaultQuery("follow", "false")); follow {
		c.Redirect(http.StatusFound, target.URL)
		return
	}
	c.JSON(http.StatusOK, api.RedirectResponse{ID: target.ID, URL: target.URL})
}
