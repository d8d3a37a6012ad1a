package clients

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ruteri/kongcloak/interfaces"
)

// KongTarget names the gateway in errors, logs and metrics.
const KongTarget = "kong"

// KongClient implements interfaces.Gateway over the Kong admin API.
// Every body is form-encoded.
type KongClient struct {
	admin *AdminClient
}

var _ interfaces.Gateway = (*KongClient)(nil)

// NewKongClient creates a client for the gateway admin API at baseURL (e.g. "http://localhost:8001").
func NewKongClient(baseURL string, log *slog.Logger, timeout ...time.Duration) *KongClient {
	return &KongClient{
		admin: NewAdminClient(KongTarget, baseURL, log, timeout...),
	}
}

func (c *KongClient) ConsumerExists(ctx context.Context, username string) (bool, error) {
	return c.admin.exists(ctx, "/consumers/"+url.PathEscape(username), "")
}

func (c *KongClient) CreateConsumer(ctx context.Context, username string) error {
	return c.post(ctx, "/consumers", url.Values{"username": {username}})
}

// AddConsumerPlugin posts form to /consumers/<username>/<plugin>.
func (c *KongClient) AddConsumerPlugin(ctx context.Context, username, plugin string, form url.Values) error {
	return c.post(ctx, "/consumers/"+url.PathEscape(username)+"/"+url.PathEscape(plugin), form)
}

func (c *KongClient) APIExists(ctx context.Context, name string) (bool, error) {
	return c.admin.exists(ctx, "/apis/"+url.PathEscape(name), "")
}

func (c *KongClient) CreateAPI(ctx context.Context, form url.Values) error {
	return c.post(ctx, "/apis/", form)
}

// AddAPIPlugin posts form to /apis/<api>/plugins.
func (c *KongClient) AddAPIPlugin(ctx context.Context, api string, form url.Values) error {
	return c.post(ctx, "/apis/"+url.PathEscape(api)+"/plugins", form)
}

func (c *KongClient) post(ctx context.Context, path string, form url.Values) error {
	if form == nil {
		form = url.Values{}
	}
	_, err := c.admin.Call(ctx, Request{Method: http.MethodPost, Path: path, Form: form}, nil)
	return err
}
