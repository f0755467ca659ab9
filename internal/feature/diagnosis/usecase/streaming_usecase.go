// Package usecase は診断テキストの生成・キャッシュ・ストリーミング配信を実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"stock_diagnosis/internal/feature/diagnosis/domain"
	mddomain "stock_diagnosis/internal/feature/marketdata/domain"
	"stock_diagnosis/internal/feature/marketdata/domain/entity"
	mdusecase "stock_diagnosis/internal/feature/marketdata/usecase"
	"stock_diagnosis/internal/platform/cache"
)

const (
	// DefaultChunkSize はキャッシュ再生時の1チャンクあたりの文字数（rune数）です。
	DefaultChunkSize = 50
	// DefaultChunkDelay はキャッシュ再生時のチャンク間の待機時間です。
	DefaultChunkDelay = 20 * time.Millisecond
)

// DiagnosisGenerator はスナップショットから診断テキストを断片ごとに生成します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type DiagnosisGenerator interface {
	Generate(ctx context.Context, snap entity.MarketSnapshot) iter.Seq2[string, error]
}

// DiagnosisCache は生成済み診断テキストの保存先です。
type DiagnosisCache interface {
	Get(ctx context.Context, key string) (cache.Entry[string], bool)
	Set(ctx context.Context, key string, value string) error
}

// SnapshotProvider は銘柄のスナップショットを解決します。
type SnapshotProvider interface {
	GetSnapshot(ctx context.Context, ticker string, forceRefresh bool) (mdusecase.SnapshotResult, error)
}

// DeliveryRecorder は配信イベントを記録する分析用コラボレーターです。
// 記録の失敗は配信に影響しません。
type DeliveryRecorder interface {
	RecordDeliveryEvent(ctx context.Context, ticker string, fromCache bool) error
}

// StreamSink は配信先のイベントストリームです。
// Send はテキスト断片を1イベントとして送り、Done は終端イベントを送ります。
type StreamSink interface {
	Send(content string) error
	Done() error
}

// State は配信処理の状態です。
type State string

const (
	StateStart      State = "START"
	StateCacheHit   State = "CACHE_HIT"
	StateGenerating State = "GENERATING"
	StateStreaming  State = "STREAMING"
	StateDone       State = "DONE"
	StateFailed     State = "FAILED"
)

// DeliveryResult は1回の配信の結果です。
type DeliveryResult struct {
	Ticker     string
	FromCache  bool
	State      State
	ChunksSent int
	Length     int // 送信済みの文字数（rune数）
}

// Started はイベントを1つ以上送信済みかどうかを返します。
// true の場合、呼び出し側は別のレスポンスを返せません。
func (r DeliveryResult) Started() bool {
	return r.ChunksSent > 0 || r.State == StateDone
}

// Config は配信のペース設定です。
type Config struct {
	ChunkSize  int
	ChunkDelay time.Duration
}

// DefaultConfig は組み込みのデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize, ChunkDelay: DefaultChunkDelay}
}

// LoadConfig は環境変数 DIAGNOSIS_CHUNK_SIZE, DIAGNOSIS_CHUNK_DELAY から設定を読み込みます。
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("DIAGNOSIS_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChunkSize = n
		} else {
			slog.Warn("invalid DIAGNOSIS_CHUNK_SIZE, using default", "value", v)
		}
	}
	if v := os.Getenv("DIAGNOSIS_CHUNK_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.ChunkDelay = d
		} else {
			slog.Warn("invalid DIAGNOSIS_CHUNK_DELAY, using default", "value", v)
		}
	}
	return cfg
}

// StreamingUsecase はキャッシュ再生または新規生成で診断テキストをストリーミング配信します。
type StreamingUsecase struct {
	cfg       Config
	snapshots SnapshotProvider
	generator DiagnosisGenerator
	cache     DiagnosisCache
	recorder  DeliveryRecorder
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewStreamingUsecase は新しい StreamingUsecase を作成します。
func NewStreamingUsecase(cfg Config, snapshots SnapshotProvider, generator DiagnosisGenerator, c DiagnosisCache, recorder DeliveryRecorder) *StreamingUsecase {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &StreamingUsecase{
		cfg:       cfg,
		snapshots: snapshots,
		generator: generator,
		cache:     c,
		recorder:  recorder,
		sleep:     sleepContext,
	}
}

// Deliver は銘柄の診断テキストを sink へ配信します。
//
// キャッシュにあればチャンクに分けて再生し、無ければスナップショットを解決して生成器の断片をそのまま送ります。
// どちらも最後に終端イベントを送ります。新規生成の全文は終端イベントの後に診断キャッシュへ書き込みます。
// 失敗時は State=FAILED の結果とエラーを返します。Started() が true なら終端イベントは送られていません。
// 途中でキャンセルされた新規生成のテキストはキャッシュしません。
func (u *StreamingUsecase) Deliver(ctx context.Context, ticker string, sink StreamSink) (DeliveryResult, error) {
	ticker = strings.TrimSpace(ticker)
	res := DeliveryResult{Ticker: ticker, State: StateStart}
	if ticker == "" {
		return u.fail(res, mddomain.ErrEmptyTicker)
	}

	if e, ok := u.cache.Get(ctx, ticker); ok {
		res.State = StateCacheHit
		res.FromCache = true
		return u.replay(ctx, e.Value, sink, res)
	}

	res.State = StateGenerating
	return u.generate(ctx, sink, res)
}

func (u *StreamingUsecase) replay(ctx context.Context, text string, sink StreamSink, res DeliveryResult) (DeliveryResult, error) {
	res.State = StateStreaming
	for i, chunk := range SplitChunks(text, u.cfg.ChunkSize) {
		if i > 0 {
			if err := u.sleep(ctx, u.cfg.ChunkDelay); err != nil {
				return u.fail(res, err)
			}
		} else if err := ctx.Err(); err != nil {
			return u.fail(res, err)
		}
		if err := sink.Send(chunk); err != nil {
			return u.fail(res, fmt.Errorf("failed to send chunk: %w", err))
		}
		res.ChunksSent++
		res.Length += utf8.RuneCountInString(chunk)
	}

	if err := sink.Done(); err != nil {
		return u.fail(res, fmt.Errorf("failed to send done event: %w", err))
	}
	res.State = StateDone

	u.record(ctx, res.Ticker, true)
	slog.Info("diagnosis replayed from cache", "ticker", res.Ticker, "chunks", res.ChunksSent, "length", res.Length)
	return res, nil
}

func (u *StreamingUsecase) generate(ctx context.Context, sink StreamSink, res DeliveryResult) (DeliveryResult, error) {
	snap, err := u.snapshots.GetSnapshot(ctx, res.Ticker, false)
	if err != nil {
		return u.fail(res, err)
	}
	if snap.Stale {
		slog.Warn("generating diagnosis from stale snapshot", "ticker", res.Ticker, "fetched_at", snap.FetchedAt)
	}

	var text strings.Builder
	for fragment, err := range u.generator.Generate(ctx, snap.Snapshot) {
		if err != nil {
			return u.fail(res, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err))
		}
		if err := ctx.Err(); err != nil {
			return u.fail(res, err)
		}
		if fragment == "" {
			continue
		}
		res.State = StateStreaming
		if err := sink.Send(fragment); err != nil {
			return u.fail(res, fmt.Errorf("failed to send chunk: %w", err))
		}
		text.WriteString(fragment)
		res.ChunksSent++
		res.Length += utf8.RuneCountInString(fragment)
	}
	if err := ctx.Err(); err != nil {
		return u.fail(res, err)
	}
	if text.Len() == 0 {
		return u.fail(res, domain.ErrEmptyDiagnosis)
	}

	if err := sink.Done(); err != nil {
		return u.fail(res, fmt.Errorf("failed to send done event: %w", err))
	}
	res.State = StateDone

	// ストリーム終了後の書き込みは呼び出し元の切断に影響されない
	persistCtx := context.WithoutCancel(ctx)
	if err := u.cache.Set(persistCtx, res.Ticker, text.String()); err != nil {
		slog.Warn("failed to cache diagnosis", "ticker", res.Ticker, "error", err)
	}
	u.record(persistCtx, res.Ticker, false)
	slog.Info("diagnosis generated", "ticker", res.Ticker, "fragments", res.ChunksSent, "length", res.Length)
	return res, nil
}

func (u *StreamingUsecase) record(ctx context.Context, ticker string, fromCache bool) {
	if u.recorder == nil {
		return
	}
	if err := u.recorder.RecordDeliveryEvent(context.WithoutCancel(ctx), ticker, fromCache); err != nil {
		slog.Warn("failed to record delivery event", "ticker", ticker, "from_cache", fromCache, "error", err)
	}
}

func (u *StreamingUsecase) fail(res DeliveryResult, err error) (DeliveryResult, error) {
	attrs := []any{"ticker", res.Ticker, "state", res.State, "chunks_sent", res.ChunksSent, "error", err}
	if errors.Is(err, context.Canceled) {
		slog.Info("diagnosis delivery cancelled", attrs...)
	} else {
		slog.Error("diagnosis delivery failed", attrs...)
	}
	res.State = StateFailed
	return res, err
}

// SplitChunks は text を size 文字（rune数）ごとに分割します。
// 連結すると元の text と一致します。空文字列は空のスライスを返します。
func SplitChunks(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	for len(text) > 0 {
		end, n := 0, 0
		for end < len(text) && n < size {
			_, w := utf8.DecodeRuneInString(text[end:])
			end += w
			n++
		}
		chunks = append(chunks, text[:end])
		text = text[end:]
	}
	return chunks
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
