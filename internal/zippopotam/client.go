// Package zippopotam is a client for the Zippopotam postal code lookup service.
package zippopotam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/zipfinder/internal/domain"
)

// API Docs: https://www.zippopotam.us/
// Sample request: http://api.zippopotam.us/us/90210
const (
	DefaultBaseURL   = "http://api.zippopotam.us/us/"
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "zipfinder/1.0"

	// maxErrorBody caps how much of a non-success body is kept as error detail.
	maxErrorBody = 1 << 20
)

// StatusError is the underlying error of a non-success response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lookup service returned status %d", e.StatusCode)
}

// Client performs lookups against a Zippopotam-compatible endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	trace     *slog.Logger
	transport http.RoundTripper
}

// WithBaseURL overrides the service base URL (e.g. a country-specific path).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithTrace dumps every request and response to logger at debug level.
func WithTrace(logger *slog.Logger) Option {
	return func(o *options) { o.trace = logger }
}

// WithTransport replaces the base round tripper (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// NewClient creates a lookup client.
func NewClient(opts ...Option) *Client {
	o := options{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rt := o.transport
	if o.trace != nil {
		rt = &traceTransport{next: rt, logger: o.trace, dumpBody: true}
	}
	rt = &headerTransport{
		next:    rt,
		headers: map[string]string{"User-Agent": o.userAgent, "Accept": "application/json"},
	}

	baseURL := o.baseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Client{
		httpClient: &http.Client{Timeout: o.timeout, Transport: rt},
		baseURL:    baseURL,
	}
}

// URL returns the request URL for query. The query is path-escaped so it can
// never change the request path.
func (c *Client) URL(query string) string {
	return c.baseURL + url.PathEscape(query)
}

// Lookup issues one GET for query and classifies the response.
// Non-2xx responses fail with the response body as the error message.
func (c *Client) Lookup(ctx context.Context, query string) (*domain.LookupResult, error) {
	const op = "zippopotam.lookup"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(query), nil)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, op, "lookup service unreachable")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return nil, domain.WrapError(err, domain.EUNAVAILABLE, op, "failed to read error response")
		}

		code := domain.EUPSTREAM
		if resp.StatusCode == http.StatusNotFound {
			code = domain.ENOTFOUND
		}
		return nil, &domain.Error{
			Code:    code,
			Op:      op,
			Message: string(body),
			Err:     &StatusError{StatusCode: resp.StatusCode, Body: string(body)},
		}
	}

	var result domain.LookupResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.WrapError(err, domain.EBADRESPONSE, op, "failed to decode response")
	}
	if len(result.Places) == 0 {
		return nil, domain.Errorf(domain.EBADRESPONSE, op, "response for %q has no places", query)
	}

	return &result, nil
}
