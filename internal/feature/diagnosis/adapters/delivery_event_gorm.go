// Package adapters はdiagnosisフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stock_diagnosis/internal/feature/diagnosis/domain/entity"
	"stock_diagnosis/internal/feature/diagnosis/usecase"
)

// deliveryEventGorm はDeliveryRecorderインターフェースのgorm実装です。
type deliveryEventGorm struct {
	db  *gorm.DB
	now func() time.Time
}

var _ usecase.DeliveryRecorder = (*deliveryEventGorm)(nil)

// NewDeliveryEventRepository は指定されたDB接続でdeliveryEventGormリポジトリの新しいインスタンスを生成します。
func NewDeliveryEventRepository(db *gorm.DB) *deliveryEventGorm {
	return &deliveryEventGorm{db: db, now: time.Now}
}

// RecordDeliveryEvent は配信イベントを1件保存します。
func (r *deliveryEventGorm) RecordDeliveryEvent(ctx context.Context, ticker string, fromCache bool) error {
	ev := entity.DeliveryEvent{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		FromCache: fromCache,
		CreatedAt: r.now(),
	}
	return r.db.WithContext(ctx).Create(&ev).Error
}

// CountByTicker は銘柄ごとのキャッシュ再生・新規生成の配信回数を返します。
func (r *deliveryEventGorm) CountByTicker(ctx context.Context, ticker string) (cached, fresh int64, err error) {
	type row struct {
		FromCache bool
		N         int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&entity.DeliveryEvent{}).
		Select("from_cache, COUNT(*) AS n").
		Where("ticker = ?", ticker).
		Group("from_cache").
		Scan(&rows).Error; err != nil {
		return 0, 0, err
	}
	for _, rw := range rows {
		if rw.FromCache {
			cached = rw.N
		} else {
			fresh = rw.N
		}
	}
	return cached, fresh, nil
}
