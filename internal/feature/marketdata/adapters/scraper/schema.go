package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"stock_diagnosis/internal/feature/marketdata/domain/entity"
)

// containerSelector は銘柄ページであることを示す最上位の要素です。
const containerSelector = "#stockinfo_i1"

// fieldSpec は1フィールド分の抽出ルールです。
// selector で最初に見つかった要素のテキストを assign に渡します。
// 要素が無いかテキストが空の場合は fallback を渡します。
type fieldSpec struct {
	name     string
	selector string
	ownText  bool // 子要素のテキストを含めない
	fallback string
	assign   func(s *entity.MarketSnapshot, text string, p *parser)
}

// rangeSpec は高値・安値テーブルの抽出ルールです。
// テーブルは位置ではなくヘッダのラベル組で特定します。
type rangeSpec struct {
	name      string
	highLabel string
	lowLabel  string
	assign    func(r *entity.Range, high, low entity.PricePoint)
}

// tableSpec は時系列テーブルの抽出ルールです。
type tableSpec struct {
	headers  []string
	minCells int
}

// snapshotSchema は銘柄ページからMarketSnapshotを組み立てる宣言的スキーマです。
var snapshotSchema = struct {
	fields     []fieldSpec
	ranges     []rangeSpec
	historical tableSpec
}{
	fields: []fieldSpec{
		{
			name:     "name",
			selector: "#stockinfo_i1 .si_i1_1 h2",
			ownText:  true,
			fallback: entity.NotAvailable,
			assign:   func(s *entity.MarketSnapshot, t string, _ *parser) { s.Basic.Name = t },
		},
		{
			name:     "exchange",
			selector: "#stockinfo_i1 .si_i1_1 .market",
			fallback: entity.NotAvailable,
			assign:   func(s *entity.MarketSnapshot, t string, _ *parser) { s.Basic.Exchange = t },
		},
		{
			name:     "category",
			selector: `#stockinfo_i2 dt:contains("区分") + dd`,
			fallback: entity.Unknown,
			assign:   func(s *entity.MarketSnapshot, t string, _ *parser) { s.Basic.Category = t },
		},
		{
			name:     "sector",
			selector: `#stockinfo_i2 dt:contains("業種") + dd`,
			fallback: entity.Unknown,
			assign:   func(s *entity.MarketSnapshot, t string, _ *parser) { s.Basic.Sector = t },
		},
		{
			name:     "price",
			selector: "#stockinfo_i1 .si_i1_2 .kabuka",
			assign:   func(s *entity.MarketSnapshot, t string, p *parser) { s.Current.Price = p.number(t) },
		},
		{
			name:     "change",
			selector: "#stockinfo_i1 .si_i1_dl1 .zenjitsuhi",
			assign:   func(s *entity.MarketSnapshot, t string, p *parser) { s.Current.Change = p.number(t) },
		},
		{
			name:     "changePercent",
			selector: "#stockinfo_i1 .si_i1_dl1 .zenjitsuhi_pct",
			assign:   func(s *entity.MarketSnapshot, t string, p *parser) { s.Current.ChangePercent = p.number(t) },
		},
		{
			name:     "updateTime",
			selector: "#stockinfo_i1 .si_i1_2 time",
			fallback: entity.NotAvailable,
			assign:   func(s *entity.MarketSnapshot, t string, _ *parser) { s.Current.UpdateTime = t },
		},
	},
	ranges: []rangeSpec{
		{
			name:      "week52",
			highLabel: "52週高値",
			lowLabel:  "52週安値",
			assign: func(r *entity.Range, high, low entity.PricePoint) {
				r.Week52High, r.Week52Low = high, low
			},
		},
		{
			name:      "yearToDate",
			highLabel: "年初来高値",
			lowLabel:  "年初来安値",
			assign: func(r *entity.Range, high, low entity.PricePoint) {
				r.YearHigh, r.YearLow = high, low
			},
		},
	},
	historical: tableSpec{
		headers:  []string{"日付", "始値", "終値", "売買高"},
		minCells: 8,
	},
}

var (
	numberPrefix = regexp.MustCompile(`^-?\d+(\.\d+)?`)
	monthDay     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	yearMonthDay = regexp.MustCompile(`\((\d{2})/(\d{1,2})/(\d{1,2})\)`)
)

// parser は数値・日付の文字列変換を行います。MM/DD 形式の年は now から補います。
type parser struct {
	now func() time.Time
}

// number は数値を取り出します。桁区切り・先頭の + ・末尾の単位を除去し、
// 数値として解釈できない場合は 0 を返します。
func (p *parser) number(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "−", "-")
	s = strings.TrimPrefix(s, "+")
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// date は MM/DD（当年）と (YY/MM/DD)（20YY年）を YYYY-MM-DD に正規化します。
// それ以外の形式はそのまま返します。
func (p *parser) date(s string) string {
	s = strings.TrimSpace(s)
	if m := monthDay.FindStringSubmatch(s); m != nil {
		if d, ok := formatDate(p.now().Year(), m[1], m[2]); ok {
			return d
		}
	}
	if m := yearMonthDay.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		if d, ok := formatDate(2000+y, m[2], m[3]); ok {
			return d
		}
	}
	return s
}

// pricePoint は "3,891 (24/07/11)" のようなセルを価格と日付に分けます。
func (p *parser) pricePoint(s string) entity.PricePoint {
	s = strings.TrimSpace(s)
	pp := entity.PricePoint{Price: p.number(s), Date: entity.NotAvailable}
	if loc := yearMonthDay.FindStringIndex(s); loc != nil {
		pp.Date = p.date(s[loc[0]:loc[1]])
	} else if i := strings.IndexAny(s, " 　"); i >= 0 {
		if rest := strings.TrimSpace(s[i:]); rest != "" {
			pp.Date = p.date(rest)
		}
	}
	return pp
}

func formatDate(year int, month, day string) (string, bool) {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(year, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// 13/40 のような存在しない日付は正規化しない
	if int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
