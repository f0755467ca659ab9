package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// putScript は世代番号を読み、その世代のキーへエントリを書き込みます。
// 世代番号の読み取りと書き込みが1スクリプト内で行われるため、DeleteAll（INCR）と直列化されます。
var putScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
local k = ARGV[1] .. ':g' .. gen .. ':' .. ARGV[2]
redis.call('DEL', k)
redis.call('HSET', k, 'v', ARGV[3], 's', ARGV[4], 'e', ARGV[5], 'h', 0)
redis.call('PEXPIRE', k, ARGV[6])
return 1
`)

// incrScript は現行世代のエントリが存在する場合のみヒット数を増やします。
var incrScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
local k = ARGV[1] .. ':g' .. gen .. ':' .. ARGV[2]
if redis.call('EXISTS', k) == 0 then
  return 0
end
return redis.call('HINCRBY', k, 'h', 1)
`)

// RedisStore はRedisのハッシュでStoreを実装します。
// キーは "{namespace}:{kind}:g{世代}:{key}" の形式です。
type RedisStore struct {
	rdb       *redis.Client
	namespace string
	retention map[string]time.Duration
	now       func() time.Time
}

var _ Store = (*RedisStore)(nil)

// RedisOption はRedisStoreの設定を変更します。
type RedisOption func(*RedisStore)

// WithRedisClock は現在時刻の取得関数を差し替えます（テスト用）。
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// WithRedisRetention はkindごとに期限切れ後もRedis上に残す期間を設定します。
// 未設定のkindは DefaultStaleRetention を使用します。
func WithRedisRetention(kind string, d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.retention[kind] = d
	}
}

// NewRedisStore はRedisStoreを生成します。namespace が空の場合 DefaultNamespace を使用します。
func NewRedisStore(rdb *redis.Client, namespace string, opts ...RedisOption) *RedisStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	s := &RedisStore{
		rdb:       rdb,
		namespace: namespace,
		retention: make(map[string]time.Duration),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put はエントリを保存します。物理TTLは ttl + 保持期間です。
func (s *RedisStore) Put(ctx context.Context, kind, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	physical := ttl + s.retentionFor(kind)
	if physical < time.Millisecond {
		physical = time.Millisecond
	}
	err := putScript.Run(ctx, s.rdb, []string{s.genKey(kind)},
		s.kindPrefix(kind),
		safe(key),
		string(value),
		now.UnixMilli(),
		now.Add(ttl).UnixMilli(),
		physical.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: put %s/%s: %v", ErrCacheUnavailable, kind, key, err)
	}
	return nil
}

// Get はエントリを読み取ります。
func (s *RedisStore) Get(ctx context.Context, kind, key string, includeExpired bool) (Record, bool, error) {
	gen, err := s.generation(ctx, kind)
	if err != nil {
		return Record{}, false, err
	}

	fields, err := s.rdb.HGetAll(ctx, s.entryKey(kind, gen, key)).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: get %s/%s: %v", ErrCacheUnavailable, kind, key, err)
	}
	if len(fields) == 0 {
		return Record{}, false, nil
	}

	rec, err := decodeRecord(fields)
	if err != nil {
		// 壊れたエントリは削除する
		_ = s.rdb.Del(ctx, s.entryKey(kind, gen, key)).Err()
		return Record{}, false, nil
	}
	if !includeExpired && rec.Expired(s.now()) {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// IncrementHit はヒット数を増やします。
func (s *RedisStore) IncrementHit(ctx context.Context, kind, key string) (int64, error) {
	n, err := incrScript.Run(ctx, s.rdb, []string{s.genKey(kind)}, s.kindPrefix(kind), safe(key)).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: incr %s/%s: %v", ErrCacheUnavailable, kind, key, err)
	}
	return n, nil
}

// Delete は現行世代のエントリを削除します。
func (s *RedisStore) Delete(ctx context.Context, kind, key string) error {
	gen, err := s.generation(ctx, kind)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.entryKey(kind, gen, key)).Err(); err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", ErrCacheUnavailable, kind, key, err)
	}
	return nil
}

// DeleteAll は世代番号を進めて旧世代を不可視にし、その後旧世代のキーを削除します。
// 旧世代の削除はベストエフォートで、失敗しても物理TTLで消えます。
func (s *RedisStore) DeleteAll(ctx context.Context, kind string) error {
	next, err := s.rdb.Incr(ctx, s.genKey(kind)).Result()
	if err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrCacheUnavailable, kind, err)
	}
	old := strconv.FormatInt(next-1, 10)
	_ = s.deleteByPattern(ctx, fmt.Sprintf("%s:g%s:*", s.kindPrefix(kind), old))
	return nil
}

// generation は現行の世代番号を返します。未設定の場合は "0" です。
func (s *RedisStore) generation(ctx context.Context, kind string) (string, error) {
	gen, err := s.rdb.Get(ctx, s.genKey(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: generation %s: %v", ErrCacheUnavailable, kind, err)
	}
	return gen, nil
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (s *RedisStore) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := s.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (s *RedisStore) retentionFor(kind string) time.Duration {
	if d, ok := s.retention[kind]; ok {
		return d
	}
	return DefaultStaleRetention
}

func (s *RedisStore) kindPrefix(kind string) string {
	return s.namespace + ":" + safe(kind)
}

func (s *RedisStore) genKey(kind string) string {
	return s.kindPrefix(kind) + ":gen"
}

func (s *RedisStore) entryKey(kind, gen, key string) string {
	return fmt.Sprintf("%s:g%s:%s", s.kindPrefix(kind), gen, safe(key))
}

// decodeRecord はHGETALLの結果をRecordに変換します。
func decodeRecord(fields map[string]string) (Record, error) {
	v, ok := fields["v"]
	if !ok {
		return Record{}, errors.New("missing value field")
	}
	stored, err := strconv.ParseInt(fields["s"], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse stored_at: %w", err)
	}
	expires, err := strconv.ParseInt(fields["e"], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse expires_at: %w", err)
	}
	hits, err := strconv.ParseInt(fields["h"], 10, 64)
	if err != nil {
		hits = 0
	}
	return Record{
		Value:     []byte(v),
		StoredAt:  time.UnixMilli(stored),
		ExpiresAt: time.UnixMilli(expires),
		HitCount:  hits,
	}, nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
