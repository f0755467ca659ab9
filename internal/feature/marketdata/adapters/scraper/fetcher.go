package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"stock_diagnosis/internal/feature/marketdata/domain"
	"stock_diagnosis/internal/feature/marketdata/usecase"
)

// maxBodyBytes は1ページあたりの読み込み上限です。
const maxBodyBytes = 8 << 20

// Fetcher はリトライ・線形バックオフ・識別ヘッダのローテーションを伴うHTTP GETクライアントです。
// キャッシュは持ちません。
type Fetcher struct {
	cfg        Config
	client     *http.Client
	identities IdentitySource
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
}

// FetcherがPageFetcherを実装していることをコンパイル時に検証します。
var _ usecase.PageFetcher = (*Fetcher)(nil)

// FetcherOption はFetcherの設定を変更します。
type FetcherOption func(*Fetcher)

// WithIdentities は識別ヘッダの供給元を差し替えます。
func WithIdentities(src IdentitySource) FetcherOption {
	return func(f *Fetcher) {
		f.identities = src
	}
}

// WithLimiter は上流へのリクエスト頻度を制限するリミッタを設定します。
func WithLimiter(l *rate.Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithSleep はバックオフ待機の実装を差し替えます（テスト用）。
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) FetcherOption {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// NewFetcher は指定された設定とHTTPクライアントでFetcherの新しいインスタンスを生成します。
func NewFetcher(cfg Config, client *http.Client, opts ...FetcherOption) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	f := &Fetcher{
		cfg:        cfg,
		client:     client,
		identities: NewIdentityPool(),
		sleep:      sleepContext,
	}
	if cfg.RatePerSec > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URLFor は銘柄ページのURLを組み立てます。ティッカーの形式は検証しません。
func (f *Fetcher) URLFor(ticker string) string {
	sep := "?"
	if strings.Contains(f.cfg.BaseURL, "?") {
		sep = "&"
	}
	return f.cfg.BaseURL + sep + "code=" + url.QueryEscape(ticker)
}

// Fetch はURLをGETし、レスポンスボディを返します。
// 失敗した試行のあとは BackoffUnit × 試行回数 だけ待機してから次の識別ヘッダで再試行します。
// 全試行が失敗した場合は最後の原因を持つ *domain.FetchError を返します。
// 呼び出し元のctxがキャンセルされた場合は直ちにctx.Err()を返します。
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ids := f.identities.Rotation()

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		id := ids.Next()
		body, err := f.do(ctx, rawURL, id)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		slog.Warn("fetch attempt failed",
			"url", rawURL,
			"attempt", attempt,
			"max_attempts", f.cfg.MaxAttempts,
			"identity", id.Name,
			"error", err,
		)

		if attempt == f.cfg.MaxAttempts {
			break
		}
		if err := f.sleep(ctx, f.cfg.BackoffUnit*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}

	slog.Error("fetch failed", "url", rawURL, "attempts", f.cfg.MaxAttempts, "error", lastErr)
	return nil, &domain.FetchError{URL: rawURL, Attempts: f.cfg.MaxAttempts, Err: lastErr}
}

// do は1回分の試行を行います。タイムアウトは試行ごとに独立しています。
func (f *Fetcher) do(ctx context.Context, rawURL string, id Identity) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	attemptCtx := ctx
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	id.Apply(req)

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnexpectedStatus, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
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
