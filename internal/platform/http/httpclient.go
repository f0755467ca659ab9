// Package http は外部サイトへのリクエストに使用するHTTPクライアントを提供します。
package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const defaultMaxRedirects = 5

// Option はHTTPクライアントの設定を変更します。
type Option func(*options)

type options struct {
	maxConnsPerHost int
	maxRedirects    int
}

// WithMaxConnsPerHost は1ホストあたりの同時接続数を制限します。0は無制限です。
func WithMaxConnsPerHost(n int) Option {
	return func(o *options) { o.maxConnsPerHost = n }
}

// WithMaxRedirects は追従するリダイレクトの最大回数を設定します。
func WithMaxRedirects(n int) Option {
	return func(o *options) { o.maxRedirects = n }
}

// NewHTTPClient は外部サイト呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト（デフォルトより短い）
//   - MaxIdleConns: 最大アイドル接続数
//   - MaxConnsPerHost: スクレイピング先への同時接続数（WithMaxConnsPerHost）
//   - CheckRedirect: リダイレクトの追従回数を制限（既定5回）
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため、常にカスタムクライアントを使用すること
func NewHTTPClient(timeout time.Duration, opts ...Option) *http.Client {
	o := options{maxRedirects: defaultMaxRedirects}
	for _, opt := range opts {
		opt(&o)
	}

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     o.maxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: t,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= o.maxRedirects {
				return fmt.Errorf("stopped after %d redirects: %w", len(via), ErrTooManyRedirects)
			}
			return nil
		},
	}
}

// ErrTooManyRedirects はリダイレクト回数が上限を超えた場合のエラーです。
var ErrTooManyRedirects = errors.New("too many redirects")
