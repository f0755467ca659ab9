package usecase

import (
	"context"

	"stock_diagnosis/internal/feature/redirect/domain/entity"
)

// TargetRepository はリダイレクト先の永続化層を抽象化します。
type TargetRepository interface {
	ListActive(ctx context.Context) ([]entity.RedirectTarget, error)
}

// Selector はリダイレクト先の選択器です。
type Selector interface {
	Select(ctx context.Context, candidates []entity.RedirectTarget) (entity.RedirectTarget, error)
}

// RedirectUsecase はアクティブなリダイレクト先から1つを選びます。
type RedirectUsecase struct {
	repo     TargetRepository
	selector Selector
}

// NewRedirectUsecase は新しい RedirectUsecase を作成します。
func NewRedirectUsecase(repo TargetRepository, selector Selector) *RedirectUsecase {
	return &RedirectUsecase{repo: repo, selector: selector}
}

// Next はアクティブなリダイレクト先を重み付きで1つ選んで返します。
func (u *RedirectUsecase) Next(ctx context.Context) (entity.RedirectTarget, error) {
	candidates, err := u.repo.ListActive(ctx)
	if err != nil {
		return entity.RedirectTarget{}, err
	}
	return u.selector.Select(ctx, candidates)
}
