package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(15*time.Second, WithMaxConnsPerHost(4))
	assert.Equal(t, 15*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 4, tr.MaxConnsPerHost)
	assert.Equal(t, 100, tr.MaxIdleConns)
}

// TestNewHTTPClient_Redirects はリダイレクトの追従回数が制限されることを検証します。
func TestNewHTTPClient_Redirects(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			return
		}
		// /loop は常に自身へ、/once は /final へリダイレクト
		target := "/loop"
		if r.URL.Path == "/once" {
			target = "/final"
		}
		http.Redirect(w, r, target, http.StatusFound)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(5*time.Second, WithMaxRedirects(2))

	res, err := c.Get(srv.URL + "/once")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	_, err = c.Get(srv.URL + "/loop")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyRedirects))
}
