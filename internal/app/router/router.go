// Package router はアプリケーションのルーティングを定義します。
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	diagnosishandler "stock_diagnosis/internal/feature/diagnosis/transport/handler"
	marketdatahandler "stock_diagnosis/internal/feature/marketdata/transport/handler"
	redirecthandler "stock_diagnosis/internal/feature/redirect/transport/handler"
	platformhandler "stock_diagnosis/internal/platform/http/handler"
	jwtmw "stock_diagnosis/internal/platform/jwt"
)

// Handlers はルーターに登録するハンドラーの集合です。
type Handlers struct {
	MarketData *marketdatahandler.MarketDataHandler
	Diagnosis  *diagnosishandler.DiagnosisHandler
	CacheAdmin *diagnosishandler.CacheAdminHandler
	Redirect   *redirecthandler.RedirectHandler
}

func NewRouter(h Handlers, readiness ...platformhandler.Check) *gin.Engine {
	r := gin.Default()
	// ランディングページから診断ストリームを直接購読するため CORS を有効にする
	r.Use(cors.Default())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", platformhandler.Health)
	r.HEAD("/healthz", platformhandler.Health)
	// 依存先（DB / Redis）の疎通確認
	r.GET("/readyz", platformhandler.Ready(readiness...))

	v1 := r.Group("/v1")
	{
		v1.GET("/symbols", h.MarketData.ListSymbols)
		v1.GET("/stocks/:ticker", h.MarketData.GetSnapshot)
		// SSEで診断テキストを配信
		v1.GET("/stocks/:ticker/diagnosis", h.Diagnosis.Stream)
		v1.GET("/redirect", h.Redirect.Next)
	}

	// 管理者のみ
	// jwtmw.AdminRequired() ミドルウェアを適用
	// → role=admin の JWT が必要になる
	admin := r.Group("/admin")
	admin.Use(jwtmw.AdminRequired())
	{
		admin.GET("/cache/diagnosis/:ticker", h.CacheAdmin.GetDiagnosis)
		admin.DELETE("/cache/diagnosis/:ticker", h.CacheAdmin.DeleteDiagnosis)
		admin.DELETE("/cache/diagnosis", h.CacheAdmin.FlushDiagnoses)
		admin.DELETE("/cache/snapshots/:ticker", h.CacheAdmin.DeleteSnapshot)
		admin.DELETE("/cache/snapshots", h.CacheAdmin.FlushSnapshots)
		admin.GET("/analytics/:ticker", h.CacheAdmin.GetDeliveryStats)
	}

	return r
}
