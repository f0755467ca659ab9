package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_diagnosis/internal/api"
	diagnosishandler "stock_diagnosis/internal/feature/diagnosis/transport/handler"
	"stock_diagnosis/internal/feature/diagnosis/usecase"
	marketdatahandler "stock_diagnosis/internal/feature/marketdata/transport/handler"
	redirecthandler "stock_diagnosis/internal/feature/redirect/transport/handler"
	"stock_diagnosis/internal/platform/cache"
	jwtmw "stock_diagnosis/internal/platform/jwt"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) (*gin.Engine, *cache.TTLCache[string]) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := cache.NewMemoryStore()
	diagnoses := cache.NewDiagnosisCache(store)
	admin := usecase.NewCacheAdminUsecase(diagnoses, cache.NewSnapshotCache[struct{}](store), nil)

	r := NewRouter(Handlers{
		MarketData: marketdatahandler.NewMarketDataHandler(nil, nil),
		Diagnosis:  diagnosishandler.NewDiagnosisHandler(nil),
		CacheAdmin: diagnosishandler.NewCacheAdminHandler(admin),
		Redirect:   redirecthandler.NewRedirectHandler(nil),
	})
	return r, diagnoses
}

func TestRouter_Healthz(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRouter_AdminRequiresToken は管理エンドポイントが管理者トークンを要求することを検証します。
func TestRouter_AdminRequiresToken(t *testing.T) {
	t.Setenv(jwtmw.EnvKeyJWTSecret, testSecret)
	r, diagnoses := newTestRouter(t)
	require.NoError(t, diagnoses.Set(context.Background(), "1031", "診断"))

	gen := jwtmw.NewGenerator(testSecret, time.Hour)
	adminToken, err := gen.GenerateToken("ops", jwtmw.RoleAdmin)
	require.NoError(t, err)
	viewerToken, err := gen.GenerateToken("guest", "viewer")
	require.NoError(t, err)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"viewer token", viewerToken, http.StatusForbidden},
		{"admin token", adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/cache/diagnosis/1031", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var res api.DiagnosisCacheResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
				assert.Equal(t, 2, res.Length)
			}
		})
	}
}

// TestRouter_CORSPreflight は別オリジンからのプリフライトが許可されることを検証します。
func TestRouter_CORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/stocks/1031/diagnosis", nil)
	req.Header.Set("Origin", "https://landing.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
