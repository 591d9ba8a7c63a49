package vsco

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"vscodl/pkg/config"
	vscoerrors "vscodl/pkg/errors"
	"vscodl/pkg/logger"
)

// Client issues HTTP requests against the content host. Its header set
// is fixed at construction; WithHeaders and WithBearerToken derive new
// clients instead of mutating this one, so a Client is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	headers    Headers
	baseURL    string
	logger     logger.Logger
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

// Text returns the body as a string
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into target
func (r *Response) JSON(target interface{}) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return vscoerrors.New(vscoerrors.ErrorTypeParsing, r.StatusCode, "failed to parse JSON from %s: %v", r.URL, err)
	}
	return nil
}

// RequestOption customises a single request
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers Headers
}

// WithHeader sets a header on one request, on top of the client's headers
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.headers = o.headers.With(key, value)
	}
}

// WithRequestHeaders overlays headers on one request
func WithRequestHeaders(headers Headers) RequestOption {
	return func(o *requestOptions) {
		o.headers = o.headers.Merge(headers)
	}
}

// NewClient creates a client for the default host with default browser headers
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    DefaultHeaders(config.DefaultUserAgent),
		baseURL:    BaseURL,
		logger:     logger.OrDefault(log),
	}
}

// NewClientWithConfig creates a client using the host and user agent from cfg
func NewClientWithConfig(cfg *config.VSCOConfig, timeout time.Duration, log logger.Logger) *Client {
	c := NewClient(timeout, log)
	if cfg == nil {
		return c
	}
	if cfg.Host != "" {
		c.baseURL = trimHost(cfg.Host)
	}
	if cfg.UserAgent != "" {
		c.headers = c.headers.With("User-Agent", cfg.UserAgent)
	}
	return c
}

// BaseURL returns the host this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Headers returns the client's header set
func (c *Client) Headers() Headers {
	return c.headers
}

// WithHTTPClient returns a copy of c that sends requests through hc
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	clone := *c
	clone.httpClient = hc
	return &clone
}

// WithBaseURL returns a copy of c targeting host
func (c *Client) WithBaseURL(host string) *Client {
	clone := *c
	clone.baseURL = trimHost(host)
	return &clone
}

// WithHeaders returns a copy of c whose headers are overlaid with headers
func (c *Client) WithHeaders(headers Headers) *Client {
	clone := *c
	clone.headers = c.headers.Merge(headers)
	return &clone
}

// WithBearerToken returns a copy of c that authorizes every request with token
func (c *Client) WithBearerToken(token string) *Client {
	return c.WithHeaders(NewHeaders(map[string]string{"Authorization": "Bearer " + token}))
}

// WithLogger returns a copy of c logging to log
func (c *Client) WithLogger(log logger.Logger) *Client {
	clone := *c
	clone.logger = logger.OrDefault(log)
	return &clone
}

// Get performs a GET request. Non-2xx statuses are not errors; callers
// inspect Response.StatusCode.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, opts)
}

// Post performs a POST request with body
func (c *Client) Post(ctx context.Context, url string, body io.Reader, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body, opts)
}

// GetJSON performs a GET request, requires a 200 and decodes the body into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}, opts ...RequestOption) error {
	resp, err := c.Get(ctx, url, opts...)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnWithFields("unexpected status", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return vscoerrors.New(vscoerrors.ErrorTypeRequest, resp.StatusCode, "GET %s returned status %d", url, resp.StatusCode)
	}
	return resp.JSON(target)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, opts []RequestOption) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, vscoerrors.New(vscoerrors.ErrorTypeRequest, 0, "failed to create request: %v", err)
	}

	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	// Client headers first, per-request headers last.
	c.headers.Merge(o.headers).apply(req)

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": method,
		"url":    url,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, vscoerrors.New(vscoerrors.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, vscoerrors.New(vscoerrors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   method,
		"url":      url,
		"status":   resp.StatusCode,
		"size":     len(data),
		"duration": time.Since(start),
	})

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		URL:        url,
	}, nil
}
