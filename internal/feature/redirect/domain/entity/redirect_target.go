package entity

import "time"

// RedirectTarget は配信後に誘導する外部リンクです。
// Weight は1〜100の整数で、選択確率は重みに比例します。
type RedirectTarget struct {
	ID         uint   `gorm:"primaryKey"`
	URL        string `gorm:"size:2048;not null"`
	Weight     int    `gorm:"not null"`
	Active     bool   `gorm:"not null;default:true;index"`
	ClickCount int64  `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName はgormが使用するテーブル名を返します。
func (RedirectTarget) TableName() string {
	return "redirect_targets"
}
