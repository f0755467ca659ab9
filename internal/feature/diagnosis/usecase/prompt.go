package usecase

import (
	"fmt"
	"strings"

	"stock_diagnosis/internal/feature/marketdata/domain/entity"
)

// maxPromptRows はプロンプトに含める時系列の最大行数です。
const maxPromptRows = 10

// BuildPrompt はスナップショットから診断生成用のプロンプトを組み立てます。
func BuildPrompt(snap entity.MarketSnapshot) string {
	var b strings.Builder

	b.WriteString("あなたは日本株のアナリストです。以下の株価データをもとに、")
	b.WriteString("個人投資家向けに銘柄の現状を日本語で簡潔に診断してください。")
	b.WriteString("投資判断を断定せず、値動きの傾向とリスクを中心に述べてください。\n\n")

	fmt.Fprintf(&b, "銘柄コード: %s\n", snap.Ticker)
	fmt.Fprintf(&b, "銘柄名: %s（%s）\n", snap.Basic.Name, snap.Basic.Exchange)
	fmt.Fprintf(&b, "区分: %s / 業種: %s\n", snap.Basic.Category, snap.Basic.Sector)
	fmt.Fprintf(&b, "現在値: %s円 前日比: %s円 (%s%%) 更新: %s\n",
		formatNumber(snap.Current.Price),
		formatSigned(snap.Current.Change),
		formatSigned(snap.Current.ChangePercent),
		snap.Current.UpdateTime,
	)
	fmt.Fprintf(&b, "52週高値: %s円 (%s) / 52週安値: %s円 (%s)\n",
		formatNumber(snap.Range.Week52High.Price), snap.Range.Week52High.Date,
		formatNumber(snap.Range.Week52Low.Price), snap.Range.Week52Low.Date,
	)
	fmt.Fprintf(&b, "年初来高値: %s円 (%s) / 年初来安値: %s円 (%s)\n",
		formatNumber(snap.Range.YearHigh.Price), snap.Range.YearHigh.Date,
		formatNumber(snap.Range.YearLow.Price), snap.Range.YearLow.Date,
	)

	if len(snap.Historical) > 0 {
		b.WriteString("\n直近の値動き（日付, 始値, 高値, 安値, 終値, 前日比, 売買高）:\n")
		for i, row := range snap.Historical {
			if i >= maxPromptRows {
				break
			}
			fmt.Fprintf(&b, "%s, %s, %s, %s, %s, %s, %d\n",
				row.Date,
				formatNumber(row.Open),
				formatNumber(row.High),
				formatNumber(row.Low),
				formatNumber(row.Close),
				formatSigned(row.Change),
				row.Volume,
			)
		}
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func formatSigned(v float64) string {
	s := formatNumber(v)
	if v > 0 {
		return "+" + s
	}
	return s
}
