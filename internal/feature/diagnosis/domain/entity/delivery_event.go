package entity

import "time"

// DeliveryEvent は診断テキストの配信1回分の記録です。
// FromCache はキャッシュの再生で配信したかどうかを表します。
type DeliveryEvent struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Ticker    string    `gorm:"size:32;not null;index"`
	FromCache bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName はgormが使用するテーブル名を返します。
func (DeliveryEvent) TableName() string {
	return "delivery_events"
}
