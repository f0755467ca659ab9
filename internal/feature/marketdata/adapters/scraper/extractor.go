package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"stock_diagnosis/internal/feature/marketdata/domain"
	"stock_diagnosis/internal/feature/marketdata/domain/entity"
	"stock_diagnosis/internal/feature/marketdata/usecase"
)

// Extractor は銘柄ページのHTMLをMarketSnapshotに変換します。I/Oは行いません。
type Extractor struct {
	p parser
}

// ExtractorがSnapshotExtractorを実装していることをコンパイル時に検証します。
var _ usecase.SnapshotExtractor = (*Extractor)(nil)

// NewExtractor はExtractorを生成します。now は MM/DD 形式の日付の年を補うために使用します。
func NewExtractor(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{p: parser{now: now}}
}

// Extract はHTMLからMarketSnapshotを組み立てます。
// 個々のフィールドが欠けていてもエラーにはならず、スキーマのフォールバック値が入ります。
// 最上位のコンテナが存在しない場合のみ *domain.ExtractionError を返します。
func (e *Extractor) Extract(html, ticker string) (entity.MarketSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return entity.MarketSnapshot{}, &domain.ExtractionError{Ticker: ticker, Reason: err.Error()}
	}
	if doc.Find(containerSelector).Length() == 0 {
		return entity.MarketSnapshot{}, &domain.ExtractionError{
			Ticker: ticker,
			Reason: "container " + containerSelector + " not found",
		}
	}

	s := entity.MarketSnapshot{
		Ticker:     ticker,
		Historical: []entity.HistoricalRow{},
	}

	for _, f := range snapshotSchema.fields {
		f.assign(&s, e.fieldText(doc, f), &e.p)
	}
	s.Current.TrendDirection = entity.TrendOf(s.Current.Change)

	for _, r := range snapshotSchema.ranges {
		high, low := e.rangeValues(doc, r)
		r.assign(&s.Range, high, low)
	}

	s.Historical = e.historical(doc, snapshotSchema.historical)
	return s, nil
}

func (e *Extractor) fieldText(doc *goquery.Document, f fieldSpec) string {
	sel := doc.Find(f.selector).First()
	if sel.Length() == 0 {
		return f.fallback
	}
	var text string
	if f.ownText {
		text = sel.Clone().Children().Remove().End().Text()
	} else {
		text = sel.Text()
	}
	text = normalizeSpace(text)
	if text == "" {
		return f.fallback
	}
	return text
}

// rangeValues はヘッダに highLabel と lowLabel の両方を持つテーブルを探し、
// 最初のデータ行から該当列の値を取り出します。
func (e *Extractor) rangeValues(doc *goquery.Document, r rangeSpec) (entity.PricePoint, entity.PricePoint) {
	missing := entity.PricePoint{Date: entity.NotAvailable}
	high, low := missing, missing

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		labels := headerLabels(table)
		hi, lo := indexOf(labels, r.highLabel), indexOf(labels, r.lowLabel)
		if hi < 0 || lo < 0 {
			return true
		}
		table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			cells := tr.Find("td")
			if cells.Length() == 0 {
				return true
			}
			if hi < cells.Length() {
				high = e.p.pricePoint(normalizeSpace(cells.Eq(hi).Text()))
			}
			if lo < cells.Length() {
				low = e.p.pricePoint(normalizeSpace(cells.Eq(lo).Text()))
			}
			return false
		})
		return false
	})
	return high, low
}

// historical はヘッダラベルで時系列テーブルを特定し、データ行を出現順に返します。
// セル数が minCells に満たない行は読み飛ばします。
func (e *Extractor) historical(doc *goquery.Document, spec tableSpec) []entity.HistoricalRow {
	rows := []entity.HistoricalRow{}

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		labels := headerLabels(table)
		for _, h := range spec.headers {
			if indexOf(labels, h) < 0 {
				return true
			}
		}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			// ヘッダ行（tdを持たない行）は対象外
			if tr.Find("td").Length() == 0 {
				return
			}
			cells := tr.Find("th, td")
			if cells.Length() < spec.minCells {
				return
			}
			text := func(i int) string { return normalizeSpace(cells.Eq(i).Text()) }
			rows = append(rows, entity.HistoricalRow{
				Date:          e.p.date(text(0)),
				Open:          e.p.number(text(1)),
				High:          e.p.number(text(2)),
				Low:           e.p.number(text(3)),
				Close:         e.p.number(text(4)),
				Change:        e.p.number(text(5)),
				ChangePercent: e.p.number(text(6)),
				Volume:        int64(e.p.number(text(7))),
			})
		})
		return false
	})
	return rows
}

// headerLabels はテーブル内の th のうち、td を含まない行にあるもののラベルを返します。
func headerLabels(table *goquery.Selection) []string {
	var labels []string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() > 0 {
			return
		}
		tr.Find("th").Each(func(_ int, th *goquery.Selection) {
			labels = append(labels, normalizeSpace(th.Text()))
		})
	})
	return labels
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
