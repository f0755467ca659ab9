// Package adapters はredirectフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"

	"stock_diagnosis/internal/feature/redirect/domain"
	"stock_diagnosis/internal/feature/redirect/domain/entity"
	"stock_diagnosis/internal/feature/redirect/usecase"
)

// redirectTargetGorm はTargetRepositoryとClickRecorderのgorm実装です。
type redirectTargetGorm struct {
	db *gorm.DB
}

var (
	_ usecase.TargetRepository = (*redirectTargetGorm)(nil)
	_ usecase.ClickRecorder    = (*redirectTargetGorm)(nil)
)

// NewRedirectTargetRepository は指定されたDB接続でredirectTargetGormリポジトリの新しいインスタンスを生成します。
func NewRedirectTargetRepository(db *gorm.DB) *redirectTargetGorm {
	return &redirectTargetGorm{db: db}
}

// ListActive はアクティブで重みが正のリダイレクト先をID順に返します。
func (r *redirectTargetGorm) ListActive(ctx context.Context) ([]entity.RedirectTarget, error) {
	var targets []entity.RedirectTarget
	if err := r.db.WithContext(ctx).
		Where("active = ? AND weight > 0", true).
		Order("id ASC").
		Find(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

// IncrementClick はクリック数をDB側で原子的に1増やします。
func (r *redirectTargetGorm) IncrementClick(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&entity.RedirectTarget{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTargetNotFound
	}
	return nil
}
