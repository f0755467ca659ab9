// Package cache はスナップショット・診断テキスト用のキャッシュ基盤を提供します。
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheUnavailable はバックエンドストアが応答しない場合に返されます。
// 呼び出し側はキャッシュミス（または書き込みの no-op）として扱います。
var ErrCacheUnavailable = errors.New("cache unavailable")

// Record はストアに保存される1件のエントリです。
type Record struct {
	Value     []byte
	StoredAt  time.Time
	ExpiresAt time.Time
	HitCount  int64
}

// Expired はnow時点でレコードが期限切れかどうかを返します。
// now が ExpiresAt と等しい場合はまだ有効です。
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Store はkind（名前空間）とkeyで値を保存する永続化コラボレーターです。
// メモリ実装とRedis実装があります。
type Store interface {
	// Put は値をttl付きで保存します。既存エントリはヒット数ごと置き換えられます。
	Put(ctx context.Context, kind, key string, value []byte, ttl time.Duration) error
	// Get はエントリを返します。includeExpired が false の場合、期限切れは未存在として扱います。
	Get(ctx context.Context, kind, key string, includeExpired bool) (Record, bool, error)
	// IncrementHit はエントリのヒット数を1増やし、増加後の値を返します。
	IncrementHit(ctx context.Context, kind, key string) (int64, error)
	// Delete は単一エントリを削除します。
	Delete(ctx context.Context, kind, key string) error
	// DeleteAll はkind配下の全エントリを削除します。同じkindへの書き込みとは直列化されます。
	DeleteAll(ctx context.Context, kind string) error
}
