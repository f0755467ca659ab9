package ratelimiter

import (
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// RateLimiterは、interval あたり limit 回まで操作を許可し、超えた場合は次の区間まで待機します。
// 複数のgoroutineから安全に呼び出せます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // interval あたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	now       func() time.Time
	sleep     func(time.Duration)
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// WaitIfNeededはレートリミットの上限に達しているかを確認し、必要であれば待機します。
func (rl *RateLimiter) WaitIfNeeded() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count > rl.limit {
		wait := rl.interval - now.Sub(rl.lastReset)
		if wait > 0 {
			slog.Info("rate limit reached, sleeping", "limit", rl.limit, "sleep", wait)
			rl.sleep(wait)
		}
		// リセット
		rl.count = 1
		rl.lastReset = rl.now()
	}
}
