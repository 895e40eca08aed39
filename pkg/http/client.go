package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"ZenithCore/pkg/breaker"
	"ZenithCore/pkg/logger"
)

const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodDelete = http.MethodDelete
	MethodPatch  = http.MethodPatch
)

// ClientOption configures HTTPClient.
type ClientOption func(*Client)

// RequestOptions holds HTTP request parameters.
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string][]string
	Body        interface{}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is an outbound HTTP client with optional rate limiting, retries
// and a circuit breaker.
type Client struct {
	timeout        time.Duration
	client         *http.Client
	limiter        *rate.Limiter
	breaker        *breaker.Breaker
	retryMaxElapse time.Duration
	retryInitial   time.Duration
	log            *logger.Logger
}

// NewClient creates a new HTTP client. Without options it neither waits,
// retries nor trips.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:      30 * time.Second,
		retryInitial: 500 * time.Millisecond,
		log:          logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// SendRequest sends an HTTP request and returns the 2xx response.
// Other statuses are drained and returned as *StatusError.
func (c *Client) SendRequest(ctx context.Context, opts *RequestOptions) (*http.Response, error) {
	payload, err := c.createRequestBody(opts)
	if err != nil {
		return nil, fmt.Errorf("create body: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var resp *http.Response
	attempt := func() error {
		req, err := c.buildRequest(ctx, opts, payload)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		r, err := c.do(req)
		if err != nil {
			if breaker.IsOpen(err) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			var se *StatusError
			if errors.As(err, &se) && !se.Retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	if c.retryMaxElapse <= 0 {
		if err := attempt(); err != nil {
			return nil, unwrapPermanent(err)
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	bo.MaxElapsedTime = c.retryMaxElapse
	notify := func(err error, wait time.Duration) {
		c.log.Warn("http request retry",
			logger.String("url", opts.URL),
			logger.Duration("wait_ms", wait),
			logger.Error(err),
		)
	}
	if err := backoff.RetryNotify(attempt, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendAndParse sends request and decodes a JSON response into dest.
func (c *Client) SendAndParse(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	resp, err := c.SendRequest(ctx, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dest == nil {
		return nil
	}

	switch v := dest.(type) {
	case *[]byte:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		*v = body
	case io.Writer:
		if _, err := io.Copy(v, resp.Body); err != nil {
			return fmt.Errorf("copy body: %w", err)
		}
	default:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}

	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	call := func() error {
		r, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 512))
			r.Body.Close()
			return &StatusError{StatusCode: r.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		resp = r
		return nil
	}

	if c.breaker == nil {
		if err := call(); err != nil {
			return nil, err
		}
		return resp, nil
	}
	var callErr error
	err := c.breaker.Do(func() error {
		callErr = call()
		var se *StatusError
		// Client errors say nothing about upstream health.
		if errors.As(callErr, &se) && !se.Retryable() {
			return nil
		}
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if callErr != nil {
		return nil, callErr
	}
	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, opts *RequestOptions, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	c.addQueryParams(req, opts.QueryParams)
	c.addHeaders(req, opts.Headers)

	return req, nil
}

// createRequestBody materializes the body once so retries can resend it.
func (c *Client) createRequestBody(opts *RequestOptions) ([]byte, error) {
	if opts.Body == nil {
		return nil, nil
	}

	switch v := opts.Body.(type) {
	case []byte:
		return v, nil
	case *[]byte:
		return *v, nil
	case io.Reader:
		return io.ReadAll(v)
	case string:
		return []byte(v), nil
	case map[string]string:
		if opts.Headers["Content-Type"] == "application/x-www-form-urlencoded" {
			values := url.Values{}
			for k, val := range v {
				values.Set(k, val)
			}
			return []byte(values.Encode()), nil
		}
	}

	jsonBody, err := json.Marshal(opts.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return jsonBody, nil
}

func (c *Client) addQueryParams(req *http.Request, params map[string][]string) {
	if len(params) > 0 {
		q := req.URL.Query()
		for key, values := range params {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
}

func (c *Client) addHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// WithTimeout sets client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimit allows perSecond requests with the given burst.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry retries network errors, 429 and 5xx with exponential backoff
// until maxElapsed has passed.
func WithRetry(initial, maxElapsed time.Duration) ClientOption {
	return func(c *Client) {
		if initial > 0 {
			c.retryInitial = initial
		}
		c.retryMaxElapse = maxElapsed
	}
}

func WithBreaker(b *breaker.Breaker) ClientOption {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithClientLogger(l *logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l.With("http_client")
		}
	}
}
