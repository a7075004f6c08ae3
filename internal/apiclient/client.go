package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/ids"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"golang.org/x/time/rate"
)

const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh"

	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 8 << 20
)

// Requester is what domain services depend on.
type Requester interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
	UserAgent string
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// SkipAuth sends the request without a bearer token and never refreshes.
	SkipAuth bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
	logger     *slog.Logger

	mu        sync.RWMutex
	tokens    TokenSource
	refresher *refresher
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		logger:    logger,
	}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	c.refresher = newRefresher(c.tokens, timeout, c.metrics, logger)

	return c
}

// SetTokenSource wires the session after construction, since the session
// itself talks to the backend through this client.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
	c.refresher = newRefresher(ts, c.timeout, c.metrics, c.logger)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) tokenSource() (TokenSource, *refresher) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens, c.refresher
}

// Do sends req. A 401 on an authenticated request triggers a single token
// refresh shared by every request that hits 401 meanwhile, then one retry.
// Other failures are returned as *internal.AppError without retry.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	tokens, refresher := c.tokenSource()

	token := ""
	if tokens != nil && !req.SkipAuth {
		token = tokens.AccessToken()
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || !c.refreshable(req, tokens) {
		return c.check(resp)
	}

	c.logger.Debug("access token rejected, refreshing", "path", req.Path)

	newToken, err := refresher.token(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err = c.send(ctx, req, newToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		expired := internal.ErrSessionExpired.WithCause(errorFromResponse(resp.StatusCode, resp.Body))
		c.logger.Warn("request rejected after token refresh", "path", req.Path)
		tokens.Expire(ctx, expired)
		return nil, expired
	}

	return c.check(resp)
}

func (c *Client) refreshable(req *Request, tokens TokenSource) bool {
	if tokens == nil || req.SkipAuth {
		return false
	}
	path := strings.TrimRight(req.Path, "/")
	return path != LoginPath && path != RefreshPath
}

func (c *Client) check(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, errorFromResponse(resp.StatusCode, resp.Body)
}

func (c *Client) send(ctx context.Context, req *Request, token string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, internal.NewNetworkError("rate limiter wait failed", internal.ErrCodeRequestCancelled, err)
		}
	}

	httpReq, err := c.newHTTPRequest(ctx, req, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.requests.WithLabelValues(req.Method, statusClass(0)).Inc()
		c.logger.Debug("request failed", "method", req.Method, "path", req.Path, "error", err)
		return nil, classifyTransportError(ctx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	c.metrics.requests.WithLabelValues(req.Method, statusClass(httpResp.StatusCode)).Inc()
	c.metrics.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

	c.logger.Debug("request completed",
		"method", req.Method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"request_id", httpReq.Header.Get(HeaderRequestID),
		"duration_ms", time.Since(start).Milliseconds())

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request, token string) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, internal.NewInternalError("failed to encode request body", err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, internal.NewInternalError(fmt.Sprintf("failed to build request for %s", req.Path), err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	requestID := internal.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = ids.New()
	}
	httpReq.Header.Set(HeaderRequestID, requestID)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

func classifyTransportError(ctx context.Context, err error) *internal.AppError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return internal.NewNetworkError("request cancelled", internal.ErrCodeRequestCancelled, err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return internal.NewNetworkError("request timed out", internal.ErrCodeRequestTimeout, err)
	default:
		return internal.NewNetworkError("backend unreachable", internal.ErrCodeConnectionFailed, err)
	}
}

// Fetch sends req and normalizes the response body into T.
func Fetch[T any](ctx context.Context, r Requester, req *Request) (Envelope[T], error) {
	resp, err := r.Do(ctx, req)
	if err != nil {
		return Envelope[T]{}, err
	}
	return Normalize[T](resp.Body)
}

// FetchData is Fetch for callers that only need the payload.
func FetchData[T any](ctx context.Context, r Requester, req *Request) (T, error) {
	env, err := Fetch[T](ctx, r, req)
	return env.Data, err
}

// FetchList is Fetch for collection endpoints, keeping the pagination block
// when the backend sends one. A page object ({"content": [...]}) in place of
// the array is unpacked as well.
func FetchList[T any](ctx context.Context, r Requester, req *Request) (slice.ListResult[T], error) {
	env, err := Fetch[json.RawMessage](ctx, r, req)
	if err != nil {
		return slice.ListResult[T]{}, err
	}
	raw := bytes.TrimSpace(env.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return slice.ListResult[T]{Items: []T{}, Pagination: env.Pagination}, nil
	}
	if raw[0] == '{' {
		var p page[T]
		if err := json.Unmarshal(raw, &p); err != nil {
			return slice.ListResult[T]{}, decodeError(err)
		}
		return slice.ListResult[T]{
			Items:      p.Content,
			Pagination: &slice.Pagination{Page: p.Number, PageSize: p.Size, Total: p.TotalElements},
		}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return slice.ListResult[T]{}, decodeError(err)
	}
	return slice.ListResult[T]{Items: items, Pagination: env.Pagination}, nil
}

type page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
}
