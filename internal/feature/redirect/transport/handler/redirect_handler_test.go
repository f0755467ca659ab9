package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_diagnosis/internal/api"
	"stock_diagnosis/internal/feature/redirect/domain"
	"stock_diagnosis/internal/feature/redirect/domain/entity"
)

// mockRedirectUsecase はRedirectUsecaseインターフェースのモック実装です。
type mockRedirectUsecase struct {
	NextFunc func(ctx context.Context) (entity.RedirectTarget, error)
}

func (m *mockRedirectUsecase) Next(ctx context.Context) (entity.RedirectTarget, error) {
	return m.NextFunc(ctx)
}

func TestRedirectHandler_Next(t *testing.T) {
	gin.SetMode(gin.TestMode)

	target := entity.RedirectTarget{ID: 2, URL: "https://broker.example.com/open-account", Weight: 90}
	ok := func(ctx context.Context) (entity.RedirectTarget, error) { return target, nil }

	tests := []struct {
		name           string
		path           string
		next           func(ctx context.Context) (entity.RedirectTarget, error)
		expectedStatus int
		verify         func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:           "success: json",
			path:           "/v1/redirect",
			next:           ok,
			expectedStatus: http.StatusOK,
			verify: func(t *testing.T, w *httptest.ResponseRecorder) {
				var res api.RedirectResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
				assert.Equal(t, api.RedirectResponse{ID: 2, URL: target.URL}, res)
			},
		},
		{
			name:           "success: follow",
			path:           "/v1/redirect?follow=true",
			next:           ok,
			expectedStatus: http.StatusFound,
			verify: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, target.URL, w.Header().Get("Location"))
			},
		},
		{
			name: "error: no candidates",
			path: "/v1/redirect",
			next: func(ctx context.Context) (entity.RedirectTarget, error) {
				return entity.RedirectTarget{}, domain.ErrNoCandidates
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "error: repository failure",
			path: "/v1/redirect",
			next: func(ctx context.Context) (entity.RedirectTarget, error) {
				return entity.RedirectTarget{}, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			verify: func(t *testing.T, w *httptest.ResponseRecorder) {
				var res api.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
				assert.Equal(t, "failed to select redirect target", res.Error)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/v1/redirect", NewRedirectHandler(&mockRedirectUsecase{NextFunc: tt.next}).Next)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.verify != nil {
				tt.verify(t, w)
			}
		})
	}
}
