// Package entity はmarketdataフィーチャーのドメインモデルを定義します。
package entity

// 文字列フィールドが取得できなかった場合の値です。
const (
	NotAvailable = "N/A"
	Unknown      = "Unknown"
)

// TrendDirection は前日比の方向を表します。
type TrendDirection string

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

// TrendOf は前日比の値から方向を判定します。
func TrendOf(change float64) TrendDirection {
	switch {
	case change > 0:
		return TrendUp
	case change < 0:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// MarketSnapshot は1銘柄の時点データです。スクレイピングごとに生成され、生成後は変更しません。
type MarketSnapshot struct {
	Ticker     string          `json:"ticker"`
	Basic      Basic           `json:"basic"`
	Current    Current         `json:"current"`
	Range      Range           `json:"range"`
	Historical []HistoricalRow `json:"historical"`
}

// Basic は銘柄の基本情報です。
type Basic struct {
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Category string `json:"category"`
	Sector   string `json:"sector"`
}

// Current は現在値と前日比です。
type Current struct {
	Price          float64        `json:"price"`
	Change         float64        `json:"change"`
	ChangePercent  float64        `json:"changePercent"`
	TrendDirection TrendDirection `json:"trendDirection"`
	UpdateTime     string         `json:"updateTime"`
}

// PricePoint は価格とその日付の組です。
type PricePoint struct {
	Price float64 `json:"price"`
	Date  string  `json:"date"`
}

// Range は52週および年初来の高値・安値です。
type Range struct {
	Week52High PricePoint `json:"week52High"`
	Week52Low  PricePoint `json:"week52Low"`
	YearHigh   PricePoint `json:"yearHigh"`
	YearLow    PricePoint `json:"yearLow"`
}

// HistoricalRow は日次の株価1行です。並び順は取得元と同じ（新しい日付が先頭）です。
type HistoricalRow struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        int64   `json:"volume"`
}
