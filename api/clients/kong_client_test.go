package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Form   url.Values
}

func TestKongClient(t *testing.T) {
	var mu sync.Mutex
	var recorded []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		mu.Lock()
		recorded = append(recorded, recordedRequest{Method: r.Method, Path: r.URL.Path, Form: r.PostForm})
		mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/consumers/known":
			_, _ = w.Write([]byte(`{"username":"known"}`))
		case r.Method == http.MethodGet:
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	kong := NewKongClient(srv.URL, discardLogger())
	ctx := context.Background()

	ok, err := kong.ConsumerExists(ctx, "known")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = kong.APIExists(ctx, "data")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kong.CreateConsumer(ctx, "demo-client"))
	require.NoError(t, kong.AddConsumerPlugin(ctx, "demo-client", "jwt", url.Values{"algorithm": {"RS256"}}))
	require.NoError(t, kong.CreateAPI(ctx, url.Values{"name": {"data"}, "upstream_url": {"http://localhost:3001"}}))
	require.NoError(t, kong.AddAPIPlugin(ctx, "data", url.Values{"name": {"cors"}}))

	require.Len(t, recorded, 6)
	assert.Equal(t, recordedRequest{Method: http.MethodPost, Path: "/consumers", Form: url.Values{"username": {"demo-client"}}}, recorded[2])
	assert.Equal(t, "/consumers/demo-client/jwt", recorded[3].Path)
	assert.Equal(t, "RS256", recorded[3].Form.Get("algorithm"))
	assert.Equal(t, "/apis/", recorded[4].Path)
	assert.Equal(t, "/apis/data/plugins", recorded[5].Path)
	assert.Equal(t, "cors", recorded[5].Form.Get("name"))
}
