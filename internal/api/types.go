// Package api はHTTPハンドラーが共有するリクエスト/レスポンスの型を定義します。
package api

import "time"

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse は本文を持たない操作の結果です。
type MessageResponse struct {
	Message string `json:"message"`
}

// SnapshotResponse は銘柄スナップショットのレスポンスです。
// Stale が true の場合、上流の取得に失敗したため以前のデータを返しています。
type SnapshotResponse struct {
	Ticker     string                  `json:"ticker"`
	Basic      BasicResponse           `json:"basic"`
	Current    CurrentResponse         `json:"current"`
	Range      RangeResponse           `json:"range"`
	Historical []HistoricalRowResponse `json:"historical"`
	Cached     bool                    `json:"cached"`
	Stale      bool                    `json:"stale"`
	FetchedAt  time.Time               `json:"fetchedAt"`
}

// BasicResponse は銘柄の基本情報です。
type BasicResponse struct {
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Category string `json:"category"`
	Sector   string `json:"sector"`
}

// CurrentResponse は現在値です。
type CurrentResponse struct {
	Price          float64 `json:"price"`
	Change         float64 `json:"change"`
	ChangePercent  float64 `json:"changePercent"`
	TrendDirection string  `json:"trendDirection"`
	UpdateTime     string  `json:"updateTime"`
}

// PricePointResponse は価格と日付の組です。
type PricePointResponse struct {
	Price float64 `json:"price"`
	Date  string  `json:"date"`
}

// RangeResponse は高値・安値のレンジです。
type RangeResponse struct {
	Week52High PricePointResponse `json:"week52High"`
	Week52Low  PricePointResponse `json:"week52Low"`
	YearHigh   PricePointResponse `json:"yearHigh"`
	YearLow    PricePointResponse `json:"yearLow"`
}

// HistoricalRowResponse は日次の株価1行です。
type HistoricalRowResponse struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
}

// SymbolItem は監視銘柄一覧の1件です。
type SymbolItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ChunkEvent はストリーミング配信の本文イベントのペイロードです。
type ChunkEvent struct {
	Content string `json:"content"`
}

// DiagnosisCacheResponse は診断キャッシュのメタデータです。
type DiagnosisCacheResponse struct {
	Ticker    string    `json:"ticker"`
	Length    int       `json:"length"`
	HitCount  int64     `json:"hitCount"`
	StoredAt  time.Time `json:"storedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RedirectResponse は選択されたリダイレクト先です。
type RedirectResponse struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

// DeliveryStatsResponse は銘柄ごとの診断配信回数です。
type DeliveryStatsResponse struct {
	Ticker    string `json:"ticker"`
	FromCache int64  `json:"fromCache"`
	Generated int64  `json:"generated"`
}
