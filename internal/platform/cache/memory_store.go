package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultStaleRetention は期限切れレコードを物理削除せずに保持する期間のデフォルト値です。
const DefaultStaleRetention = 24 * time.Hour

// MemoryStore はプロセス内メモリでStoreを実装します。
// Redisが利用できない環境（ローカル開発・テスト）向けです。
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]map[string]*Record
	retention map[string]time.Duration
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// MemoryOption はMemoryStoreの設定を変更します。
type MemoryOption func(*MemoryStore)

// WithClock は現在時刻の取得関数を差し替えます（テスト用）。
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

// WithRetention はkindごとに期限切れレコードの保持期間を設定します。
// 0 の場合、期限切れレコードは読み取り時に物理削除されます。
// 未設定のkindは DefaultStaleRetention を使用します。
func WithRetention(kind string, d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		m.retention[kind] = d
	}
}

// NewMemoryStore はMemoryStoreの新しいインスタンスを生成します。
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		items:     make(map[string]map[string]*Record),
		retention: make(map[string]time.Duration),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Put は値をコピーして保存します。
func (m *MemoryStore) Put(_ context.Context, kind, key string, value []byte, ttl time.Duration) error {
	now := m.now()
	rec := &Record{
		Value:     append([]byte(nil), value...),
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.items[kind]
	if !ok {
		bucket = make(map[string]*Record)
		m.items[kind] = bucket
	}
	bucket[key] = rec
	return nil
}

// Get はレコードのコピーを返します。保持期間を過ぎたレコードはここで物理削除されます。
func (m *MemoryStore) Get(_ context.Context, kind, key string, includeExpired bool) (Record, bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[kind][key]
	if !ok {
		return Record{}, false, nil
	}
	if rec.Expired(now) {
		if now.After(rec.ExpiresAt.Add(m.retentionFor(kind))) {
			delete(m.items[kind], key)
			return Record{}, false, nil
		}
		if !includeExpired {
			return Record{}, false, nil
		}
	}
	out := *rec
	out.Value = append([]byte(nil), rec.Value...)
	return out, true, nil
}

// IncrementHit はヒット数を増やします。エントリが存在しない場合は0を返します。
func (m *MemoryStore) IncrementHit(_ context.Context, kind, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[kind][key]
	if !ok {
		return 0, nil
	}
	rec.HitCount++
	return rec.HitCount, nil
}

func (m *MemoryStore) retentionFor(kind string) time.Duration {
	if d, ok := m.retention[kind]; ok {
		return d
	}
	return DefaultStaleRetention
}

// Delete は単一エントリを削除します。
func (m *MemoryStore) Delete(_ context.Context, kind, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items[kind], key)
	return nil
}

// DeleteAll はkind配下を丸ごと破棄します。Putと同じロックで直列化されます。
func (m *MemoryStore) DeleteAll(_ context.Context, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, kind)
	return nil
}
