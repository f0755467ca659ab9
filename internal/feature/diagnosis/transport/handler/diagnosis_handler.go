// Package handler はdiagnosisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_diagnosis/internal/api"
	"stock_diagnosis/internal/feature/diagnosis/domain"
	"stock_diagnosis/internal/feature/diagnosis/usecase"
	mddomain "stock_diagnosis/internal/feature/marketdata/domain"
)

const (
	// EventMessage は本文イベントのイベント名です。
	EventMessage = "message"
	// EventDone は終端イベントのイベント名です。
	EventDone = "done"
	// DoneSentinel は終端イベントのデータです。
	DoneSentinel = "[DONE]"
)

// StreamingUsecase は診断配信のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StreamingUsecase interface {
	Deliver(ctx context.Context, ticker string, sink usecase.StreamSink) (usecase.DeliveryResult, error)
}

// DiagnosisHandler は診断テキストのストリーミング配信を処理します。
type DiagnosisHandler struct {
	uc StreamingUsecase
}

// NewDiagnosisHandler は新しい DiagnosisHandler を作成します。
func NewDiagnosisHandler(uc StreamingUsecase) *DiagnosisHandler {
	return &DiagnosisHandler{uc: uc}
}

// Stream は診断テキストをServer-Sent Eventsで配信します。
//
// エンドポイント: GET /v1/stocks/:ticker/diagnosis
//
// 本文は event:message（{"content": "..."}）、最後に event:done（[DONE]）を送ります。
// 最初のイベントを送る前に失敗した場合はJSONのエラーを返します。
// 送信開始後に失敗した場合は終端イベントを送らずにストリームを閉じます。
func (h *DiagnosisHandler) Stream(c *gin.Context) {
	ticker := c.Param("ticker")
	sink := &sseSink{c: c}

	res, err := h.uc.Deliver(c.Request.Context(), ticker, sink)
	if err == nil {
		return
	}
	if res.Started() || sink.started {
		slog.Warn("diagnosis stream terminated early",
			"ticker", ticker,
			"chunks_sent", res.ChunksSent,
			"error", err,
		)
		return
	}
	if errors.Is(err, context.Canceled) {
		// クライアント切断済み
		return
	}
	c.JSON(StatusFor(err), api.ErrorResponse{Error: err.Error()})
}

// StatusFor は配信エラーをHTTPステータスに変換します。
func StatusFor(err error) int {
	var svcErr *mddomain.ServiceError
	switch {
	case errors.Is(err, mddomain.ErrEmptyTicker):
		return http.StatusBadRequest
	case errors.As(err, &svcErr),
		errors.Is(err, domain.ErrGenerationFailed),
		errors.Is(err, domain.ErrEmptyDiagnosis):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// sseSink はgin.ContextにSSEイベントを書き込むStreamSinkです。
// ヘッダーは最初のイベント送信時に確定します。
type sseSink struct {
	c       *gin.Context
	started bool
}

var _ usecase.StreamSink = (*sseSink)(nil)

func (s *sseSink) begin() {
	if s.started {
		return
	}
	s.started = true
	h := s.c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.c.Status(http.StatusOK)
}

func (s *sseSink) Send(content string) error {
	s.begin()
	s.c.SSEvent(EventMessage, api.ChunkEvent{Content: content})
	s.c.Writer.Flush()
	return s.c.Request.Context().Err()
}

func (s *sseSink) Done() error {
	s.begin()
	s.c.SSEvent(EventDone, DoneSentinel)
	s.c.Writer.Flush()
	return nil
}
