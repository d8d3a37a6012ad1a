package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ruteri/kongcloak/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdminClient_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "demo", body["realm"])
			w.WriteHeader(http.StatusCreated)
		case "/form":
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			assert.Empty(t, r.Header.Get("Authorization"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "demo-client", r.PostForm.Get("username"))
			_, _ = w.Write([]byte(`{"id":"abc"}`))
		case "/conflict":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"already exists"}`))
		case "/garbage":
			_, _ = w.Write([]byte(`not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewAdminClient("test", srv.URL+"/", discardLogger())
	ctx := context.Background()

	t.Run("json body with token", func(t *testing.T) {
		resp, err := c.Call(ctx, Request{Method: http.MethodPost, Path: "/json", Token: "tok", JSON: map[string]any{"realm": "demo"}}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("form body decodes result", func(t *testing.T) {
		var result struct {
			ID string `json:"id"`
		}
		_, err := c.Call(ctx, Request{Method: http.MethodPost, Path: "form", Form: url.Values{"username": {"demo-client"}}}, &result)
		require.NoError(t, err)
		assert.Equal(t, "abc", result.ID)
	})

	t.Run("non-2xx is an admin api error", func(t *testing.T) {
		_, err := c.Call(ctx, Request{Method: http.MethodPost, Path: "/conflict"}, nil)
		require.Error(t, err)

		var apiErr *interfaces.AdminAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "test", apiErr.Target)
		assert.Contains(t, apiErr.Body, "already exists")
		assert.True(t, interfaces.IsConflict(err))
		assert.Contains(t, err.Error(), "failed with code 409")
	})

	t.Run("undecodable success body", func(t *testing.T) {
		var result map[string]any
		_, err := c.Call(ctx, Request{Method: http.MethodGet, Path: "/garbage"}, &result)
		require.Error(t, err)
		var apiErr *interfaces.AdminAPIError
		assert.False(t, errors.As(err, &apiErr))
	})

	t.Run("exists maps 404 to false", func(t *testing.T) {
		ok, err := c.exists(ctx, "/missing", "")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = c.exists(ctx, "/garbage", "")
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = c.exists(ctx, "/conflict", "")
		assert.Error(t, err)
	})
}

func TestAdminClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewAdminClient("kong", addr, discardLogger(), time.Second)
	_, err := c.Call(context.Background(), Request{Method: http.MethodGet, Path: "/consumers"}, nil)
	require.Error(t, err)

	var transportErr *interfaces.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "kong", transportErr.Target)
	assert.Equal(t, addr+"/consumers", transportErr.URL)
}

func TestAdminClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewAdminClient("kong", srv.URL, discardLogger())
	_, err := c.Call(ctx, Request{Method: http.MethodGet, Path: "/"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
