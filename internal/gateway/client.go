// Package gateway is the typed client of the external optimization service.
// Every method returns its domain value or nil plus an *apperr.Error tagged
// with the failure kind. The client holds no dashboard state.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single request
	DefaultTimeout = 30 * time.Second

	// DefaultBreakerFailures is the number of consecutive network failures that open the breaker
	DefaultBreakerFailures uint32 = 5

	// DefaultBreakerOpenTimeout is how long the breaker stays open before probing again
	DefaultBreakerOpenTimeout = 30 * time.Second

	// RequestIDHeader carries the per-request id to the service
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 64 << 20
)

// Config holds the connection settings of the optimization service
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

// Cache stores raw response bodies of reads that only change on writes
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, prefix string) error
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache enables read-through caching of the product catalog and named scenarios
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// Client calls the optimization service
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      Cache
	log        *zap.Logger
}

// New creates a client for cfg.BaseURL
func New(cfg Config, log *zap.Logger, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid optimization service url %q", cfg.BaseURL)
	}
	if log == nil {
		log = zap.NewNop()
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = DefaultBreakerFailures
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = DefaultBreakerOpenTimeout
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "optimization-service",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A caller abandoning its request says nothing about the service
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized service url
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState reports the circuit breaker state for health checks
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(op, method, path string, payload interface{}) (request, error) {
	req := request{op: op, method: method, path: path}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req.body = bytes.NewReader(data)
	req.contentType = "application/json"
	return req, nil
}

// do sends req and returns the response for 2xx statuses. Only failures to
// complete the request count against the breaker.
func (c *Client) do(ctx context.Context, req request) (*http.Response, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return nil, apperr.Network(req.op, fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	start := time.Now()
	var resp *http.Response
	_, err = c.breaker.Execute(func() (interface{}, error) {
		r, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		resp = r
		return nil, nil
	})

	fields := []zap.Field{
		zap.String("op", req.op),
		zap.String("request_id", requestID),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Duration("duration", time.Since(start)),
	}

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.log.Warn("Optimization service request short-circuited", append(fields, zap.Error(err))...)
		} else {
			c.log.Error("Optimization service request failed", append(fields, zap.Error(err))...)
		}
		return nil, apperr.Network(req.op, err)
	}

	fields = append(fields, zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		c.log.Warn("Optimization service returned an error", fields...)
		return nil, apperr.Server(req.op, resp.StatusCode, serverMessage(body))
	}

	c.log.Debug("Optimization service request", fields...)
	return resp, nil
}

// fetch performs req and returns the whole response body
func (c *Client) fetch(ctx context.Context, req request) ([]byte, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Network(req.op, fmt.Errorf("failed to read response: %w", err))
	}
	return data, nil
}

// call performs req and decodes a JSON response into out
func (c *Client) call(ctx context.Context, req request, out interface{}) error {
	data, err := c.fetch(ctx, req)
	if err != nil {
		return err
	}
	return decode(req.op, data, out)
}

// cachedGet serves a GET from the cache when possible and fills it otherwise
func (c *Client) cachedGet(ctx context.Context, key string, req request, out interface{}) error {
	if c.cache != nil {
		if data, ok := c.cache.Get(ctx, key); ok {
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
			c.log.Warn("Discarding undecodable cache entry", zap.String("key", key))
		}
	}

	data, err := c.fetch(ctx, req)
	if err != nil {
		return err
	}
	if err := decode(req.op, data, out); err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, data); err != nil {
			c.log.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (c *Client) invalidate(ctx context.Context, prefix string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, prefix); err != nil {
		c.log.Warn("Failed to invalidate cache", zap.String("prefix", prefix), zap.Error(err))
	}
}

// decode treats an empty body as an empty value
func decode(op string, data []byte, out interface{}) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		e := apperr.Server(op, http.StatusOK, "The optimization service sent an unreadable response.")
		e.Err = err
		return e
	}
	return nil
}

// serverMessage extracts a user-facing message from an error body. Only
// string-valued "detail" or "message" fields are used.
func serverMessage(body []byte) string {
	var payload struct {
		Detail  interface{} `json:"detail"`
		Message interface{} `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	if s, ok := payload.Message.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return ""
}
