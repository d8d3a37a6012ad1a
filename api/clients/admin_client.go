package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/kongcloak/interfaces"
	"github.com/ruteri/kongcloak/metrics"
)

// DefaultRequestTimeout bounds every admin API call.
const DefaultRequestTimeout = 30 * time.Second

// Request describes one admin API call.
// At most one of Form and JSON is set; neither means no body.
type Request struct {
	Method string
	Path   string

	// Token is sent as a bearer token when set.
	Token string

	Form url.Values
	JSON any
}

// Response is a successful admin API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// AdminClient performs admin API calls against one remote service.
// It classifies failures as TransportError or AdminAPIError and records
// every call in the admin request metrics.
type AdminClient struct {
	target     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewAdminClient creates a client for the admin API at baseURL.
//
// Parameters:
//   - target: Name of the remote service used in errors, logs and metrics ("keycloak", "kong")
//   - baseURL: Scheme, host and optional path of the admin API (e.g. "http://localhost:8001")
//   - log: Structured logger
//   - timeout: Request timeout duration (optional, default 30 seconds)
//
// Returns:
//   - Configured AdminClient instance
func NewAdminClient(target, baseURL string, log *slog.Logger, timeout ...time.Duration) *AdminClient {
	clientTimeout := DefaultRequestTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		clientTimeout = timeout[0]
	}

	return &AdminClient{
		target:  target,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
		log: log,
	}
}

// Target returns the name of the remote service.
func (c *AdminClient) Target() string {
	return c.target
}

// URL returns the absolute URL of an admin API path.
func (c *AdminClient) URL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// HTTPClient returns the underlying HTTP client.
func (c *AdminClient) HTTPClient() *http.Client {
	return c.httpClient
}

// Call performs req and decodes a JSON response body into result when result is non-nil.
//
// Returns:
//   - The response for any 2xx status
//   - *interfaces.TransportError if the request could not be completed
//   - *interfaces.AdminAPIError for any other status, carrying the response body
func (c *AdminClient) Call(ctx context.Context, req Request, result any) (*Response, error) {
	fullURL := c.URL(req.Path)

	var body io.Reader
	var contentType string
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.JSON != nil:
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveAdminRequest(c.target, req.Method, 0, time.Since(start))
		c.log.Debug("Admin request failed",
			slog.String("target", c.target),
			slog.String("method", req.Method),
			slog.String("url", fullURL),
			"err", err)
		return nil, &interfaces.TransportError{Target: c.target, Method: req.Method, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	metrics.ObserveAdminRequest(c.target, req.Method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &interfaces.TransportError{Target: c.target, Method: req.Method, URL: fullURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.log.Debug("Admin request",
		slog.String("target", c.target),
		slog.String("method", req.Method),
		slog.String("url", fullURL),
		slog.Int("code", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &interfaces.AdminAPIError{
			Target:     c.target,
			Method:     req.Method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("failed to parse %s %s response: %w", req.Method, fullURL, err)
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// exists issues a GET and maps 404 to false.
func (c *AdminClient) exists(ctx context.Context, path, token string) (bool, error) {
	_, err := c.Call(ctx, Request{Method: http.MethodGet, Path: path, Token: token}, nil)
	if err == nil {
		return true, nil
	}
	if interfaces.IsNotFound(err) {
		return false, nil
	}
	return false, err
}
