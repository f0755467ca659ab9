package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	// KindSnapshot はスナップショットキャッシュのkindです。
	KindSnapshot = "snapshot"
	// KindDiagnosis は診断テキストキャッシュのkindです。
	KindDiagnosis = "diagnosis"

	// SnapshotTTL はスナップショットの有効期間です。
	SnapshotTTL = 5 * time.Minute
	// DiagnosisTTL は診断テキストの有効期間です。
	DiagnosisTTL = 7 * 24 * time.Hour
)

// Entry はTTLCacheから返される型付きエントリです。
type Entry[T any] struct {
	Value     T
	StoredAt  time.Time
	ExpiresAt time.Time
	HitCount  int64
}

// TTLCache はStoreの上にJSONエンコードされた型付きキャッシュを提供します。
// 読み取り失敗はキャッシュミスとして扱い、呼び出し元の処理を失敗させません。
type TTLCache[T any] struct {
	store     Store
	kind      string
	ttl       time.Duration
	countHits bool
}

// NewTTLCache はTTLCacheを生成します。ttl が0以下の場合は5分を使用します。
func NewTTLCache[T any](store Store, kind string, ttl time.Duration, countHits bool) *TTLCache[T] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TTLCache[T]{store: store, kind: kind, ttl: ttl, countHits: countHits}
}

// NewSnapshotCache はスナップショット用キャッシュ（TTL 5分、ヒット数なし）を生成します。
func NewSnapshotCache[T any](store Store) *TTLCache[T] {
	return NewTTLCache[T](store, KindSnapshot, SnapshotTTL, false)
}

// NewDiagnosisCache は診断テキスト用キャッシュ（TTL 7日、ヒット数あり）を生成します。
func NewDiagnosisCache(store Store) *TTLCache[string] {
	return NewTTLCache[string](store, KindDiagnosis, DiagnosisTTL, true)
}

// TTL はデフォルトの有効期間を返します。
func (c *TTLCache[T]) TTL() time.Duration {
	return c.ttl
}

// Get は有効なエントリを返します。ヒット数を数える設定の場合、読み取りごとに1増やします。
func (c *TTLCache[T]) Get(ctx context.Context, key string) (Entry[T], bool) {
	e, ok := c.read(ctx, key, false)
	if !ok || !c.countHits {
		return e, ok
	}
	// ヒット数の更新はベストエフォート
	if n, err := c.store.IncrementHit(ctx, c.kind, key); err != nil {
		slog.Warn("failed to increment cache hit count", "kind", c.kind, "key", key, "error", err)
	} else if n > 0 {
		e.HitCount = n
	}
	return e, true
}

// GetIncludingExpired は期限切れを含めてエントリを返します。ヒット数は変更しません。
func (c *TTLCache[T]) GetIncludingExpired(ctx context.Context, key string) (Entry[T], bool) {
	return c.read(ctx, key, true)
}

// Peek は有効なエントリをヒット数を変更せずに返します。
func (c *TTLCache[T]) Peek(ctx context.Context, key string) (Entry[T], bool) {
	return c.read(ctx, key, false)
}

// Set はデフォルトTTLで値を保存します。
func (c *TTLCache[T]) Set(ctx context.Context, key string, value T) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL は指定TTLで値を保存します。ヒット数は0から始まります。
func (c *TTLCache[T]) SetWithTTL(ctx context.Context, key string, value T, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Put(ctx, c.kind, key, b, ttl)
}

// Delete は単一エントリを削除します。
func (c *TTLCache[T]) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.kind, key)
}

// DeleteAll は全エントリを削除します。
func (c *TTLCache[T]) DeleteAll(ctx context.Context) error {
	return c.store.DeleteAll(ctx, c.kind)
}

func (c *TTLCache[T]) read(ctx context.Context, key string, includeExpired bool) (Entry[T], bool) {
	rec, ok, err := c.store.Get(ctx, c.kind, key, includeExpired)
	if err != nil {
		slog.Warn("cache read failed; treating as miss", "kind", c.kind, "key", key, "error", err)
		return Entry[T]{}, false
	}
	if !ok {
		return Entry[T]{}, false
	}

	var v T
	if err := json.Unmarshal(rec.Value, &v); err != nil {
		// 壊れたキャッシュエントリを削除
		slog.Warn("corrupted cache entry removed", "kind", c.kind, "key", key, "error", err)
		_ = c.store.Delete(ctx, c.kind, key)
		return Entry[T]{}, false
	}
	return Entry[T]{
		Value:     v,
		StoredAt:  rec.StoredAt,
		ExpiresAt: rec.ExpiresAt,
		HitCount:  rec.HitCount,
	}, true
}
