// Package usecase は重み付きリダイレクト先選択のビジネスロジックを実装します。
package usecase

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"stock_diagnosis/internal/feature/redirect/domain"
	"stock_diagnosis/internal/feature/redirect/domain/entity"
)

// ClickRecorder は選択されたリダイレクト先のクリック数を記録します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ClickRecorder interface {
	IncrementClick(ctx context.Context, id uint) error
}

// SelectorOption はWeightedSelectorの設定を変更します。
type SelectorOption func(*WeightedSelector)

// WithRand は乱数源を差し替えます。*rand.Rand は並行利用できないため、テスト用途に限ります。
func WithRand(r *rand.Rand) SelectorOption {
	return func(s *WeightedSelector) {
		s.intn = r.IntN
	}
}

// WeightedSelector は重みに比例した確率でリダイレクト先を1つ選びます。
type WeightedSelector struct {
	recorder ClickRecorder
	intn     func(n int) int
}

// NewWeightedSelector は新しい WeightedSelector を作成します。
func NewWeightedSelector(recorder ClickRecorder, opts ...SelectorOption) *WeightedSelector {
	s := &WeightedSelector{recorder: recorder, intn: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select は candidates から1つを選び、クリック数を1増やします。
// candidates は与えられた順に走査します。重みが0以下の候補は選ばれません。
// 候補が無い場合は domain.ErrNoCandidates を返します。
// クリック数の記録はベストエフォートで、失敗しても選択結果は返します。
func (s *WeightedSelector) Select(ctx context.Context, candidates []entity.RedirectTarget) (entity.RedirectTarget, error) {
	total := 0
	for _, c := range candidates {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total == 0 {
		return entity.RedirectTarget{}, domain.ErrNoCandidates
	}

	chosen := candidates[pick(candidates, s.intn(total))]

	if err := s.recorder.IncrementClick(ctx, chosen.ID); err != nil {
		slog.Warn("failed to record redirect click", "id", chosen.ID, "error", err)
	}
	return chosen, nil
}

// pick は r ∈ [0, total) に対応する候補のインデックスを返します。
// 整数演算のためループ内で必ず決まり、末尾の戻り値には到達しません。
func pick(candidates []entity.RedirectTarget, r int) int {
	last := -1
	for i, c := range candidates {
		if c.Weight <= 0 {
			continue
		}
		r -= c.Weight
		if r < 0 {
			return i
		}
		last = i
	}
	return last
}
