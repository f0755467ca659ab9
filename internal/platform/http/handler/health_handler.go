// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout は依存先1件あたりの疎通確認の上限時間です。
const readyTimeout = 2 * time.Second

// Check は依存先（DB、Redisなど）の疎通確認です。
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	// すべてのGET/HEAD/OPTIONSリクエストに対して200または204を返す
	switch c.Request.Method {
	case "HEAD":
		c.Status(200)
	case "OPTIONS":
		c.Status(204)
	default:
		c.JSON(200, gin.H{"status": "ok"})
	}
}

// Ready は依存先の疎通を確認する /readyz エンドポイントのハンドラーを返します。
// いずれかの確認に失敗した場合は503を返します。
func Ready(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, chk := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			err := chk.Probe(ctx)
			cancel()
			if err != nil {
				status = http.StatusServiceUnavailable
				results[chk.Name] = err.Error()
				continue
			}
			results[chk.Name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
