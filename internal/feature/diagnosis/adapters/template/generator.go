// Package template はLLMを使わずにスナップショットから定型の診断テキストを組み立てる生成器を提供します。
// Gemini の認証情報が無いローカル環境で使用します。
package template

import (
	"context"
	"fmt"
	"iter"

	"stock_diagnosis/internal/feature/diagnosis/usecase"
	"stock_diagnosis/internal/feature/marketdata/domain/entity"
)

// Generator は定型文で診断テキストを生成します。
type Generator struct{}

var _ usecase.DiagnosisGenerator = (*Generator)(nil)

// NewGenerator はGeneratorの新しいインスタンスを生成します。
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate は文ごとに断片を返します。
func (g *Generator) Generate(ctx context.Context, snap entity.MarketSnapshot) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, s := range Sentences(snap) {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Sentences はスナップショットから診断文の並びを組み立てます。
func Sentences(snap entity.MarketSnapshot) []string {
	out := []string{
		fmt.Sprintf("%s（%s）の株価診断です。", snap.Basic.Name, snap.Ticker),
	}

	switch snap.Current.TrendDirection {
	case entity.TrendUp:
		out = append(out, fmt.Sprintf("現在値は%.0f円で、前日比%+.0f円（%+.2f%%）と上昇しています。",
			snap.Current.Price, snap.Current.Change, snap.Current.ChangePercent))
	case entity.TrendDown:
		out = append(out, fmt.Sprintf("現在値は%.0f円で、前日比%+.0f円（%+.2f%%）と下落しています。",
			snap.Current.Price, snap.Current.Change, snap.Current.ChangePercent))
	default:
		out = append(out, fmt.Sprintf("現在値は%.0f円で、前日から横ばいです。", snap.Current.Price))
	}

	if high, low := snap.Range.Week52High.Price, snap.Range.Week52Low.Price; high > low {
		pos := (snap.Current.Price - low) / (high - low) * 100
		out = append(out, fmt.Sprintf("52週レンジ（%.0f円〜%.0f円）の中では%.0f%%の位置にあります。", low, high, pos))
		switch {
		case pos >= 80:
			out = append(out, "高値圏にあるため、利益確定売りによる調整に注意が必要です。")
		case pos <= 20:
			out = append(out, "安値圏にあり、反発余地がある一方で下値の支えを確認したい局面です。")
		default:
			out = append(out, "レンジの中ほどで推移しており、方向感を見極める局面です。")
		}
	}

	if n := len(snap.Historical); n >= 2 {
		latest, oldest := snap.Historical[0], snap.Historical[n-1]
		if oldest.Close > 0 {
			diff := (latest.Close - oldest.Close) / oldest.Close * 100
			out = append(out, fmt.Sprintf("直近%d営業日の終値は%+.2f%%変化しています。", n, diff))
		}
	}

	out = append(out, "本診断は情報提供を目的としたもので、投資判断はご自身でお願いします。")
	return out
}
