package huggingface

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchModels(t *testing.T) {
	ctx := context.Background()

	t.Run("sends limit and returns array elements", func(t *testing.T) {
		var gotQuery, gotUA, gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("limit")
			gotUA = r.Header.Get("User-Agent")
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, http.MethodGet, r.Method)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"modelId":"a/b"},{"modelId":"c/d","likes":3}]`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL, Token: "hf_secret"})
		items, err := c.FetchModels(ctx, 2)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.JSONEq(t, `{"modelId":"c/d","likes":3}`, string(items[1]))
		assert.Equal(t, "2", gotQuery)
		assert.Equal(t, DefaultUserAgent, gotUA)
		assert.Equal(t, "Bearer hf_secret", gotAuth)
	})

	t.Run("keeps existing query parameters", func(t *testing.T) {
		var gotRaw string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRaw = r.URL.RawQuery
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		c := NewClient(Config{BaseURL: srv.URL + "/api/models?sort=downloads"})
		items, err := c.FetchModels(ctx, 500)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, "limit=500&sort=downloads", gotRaw)
	})

	t.Run("no auth header without token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL}).FetchModels(ctx, 1)
		require.NoError(t, err)
	})

	t.Run("non-2xx carries status and body without retrying", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream exploded"))
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL}).FetchModels(ctx, 10)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
		assert.Equal(t, "upstream exploded", reqErr.Body)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("truncates long error bodies", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL}).FetchModels(ctx, 10)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Len(t, reqErr.Body, maxErrorBody)
	})

	t.Run("malformed body", func(t *testing.T) {
		for _, body := range []string{`{"error":"not a list"}`, `null`, `[{"modelId":`} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))

			_, err := NewClient(Config{BaseURL: srv.URL}).FetchModels(ctx, 10)
			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr, body)
			assert.Equal(t, http.StatusOK, reqErr.StatusCode)
			assert.ErrorContains(t, err, "decode body")
			srv.Close()
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewClient(Config{BaseURL: url}).FetchModels(ctx, 10)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Zero(t, reqErr.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}).FetchModels(ctx, 10)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewClient(Config{BaseURL: "http://127.0.0.1:1"}).FetchModels(cctx, 10)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, err := NewClient(Config{}).FetchModels(ctx, 0)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
	})
}
