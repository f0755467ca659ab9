// Package adapters はmarketdataフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"

	"stock_diagnosis/internal/feature/marketdata/domain/entity"
	"stock_diagnosis/internal/feature/marketdata/usecase"
)

// watchlistGorm はWatchlistRepositoryインターフェースのgorm実装です。
type watchlistGorm struct {
	db *gorm.DB
}

var _ usecase.WatchlistRepository = (*watchlistGorm)(nil)

// NewWatchlistRepository は指定されたDB接続でwatchlistGormリポジトリの新しいインスタンスを生成します。
func NewWatchlistRepository(db *gorm.DB) *watchlistGorm {
	return &watchlistGorm{db: db}
}

// ListActive はsort_key順にすべてのアクティブな銘柄を返します。
func (r *watchlistGorm) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

// ListActiveCodes はsort_key順にアクティブな銘柄のコードのみを返します。
func (r *watchlistGorm) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&entity.Symbol{}).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
