// Package api is the typed HTTP client for the forensics backend. Every
// response is size-limited, schema-validated and mapped onto the model
// before it is returned.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RoNRiShaV/dfd/internal/cache"
	"github.com/RoNRiShaV/dfd/internal/extract"
	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/util"
	"github.com/RoNRiShaV/dfd/internal/validate"
	"github.com/RoNRiShaV/dfd/internal/worker"
)

// RequestIDHeader carries a fresh uuid on every request
const RequestIDHeader = "X-Request-ID"

// RateLimiter throttles requests by target URL
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Client talks to one backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    RateLimiter
	cache      cache.Cache
	cacheTTL   time.Duration
	validator  *validate.Validator
	extractor  *extract.Extractor
	log        *slog.Logger
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxBodyBytes caps response bodies; larger responses fail as transport errors
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

func WithRateLimiter(l RateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithCache caches raw report payloads. Only successful report fetches are
// cached; votes, history and documents are always fetched live.
func WithCache(ch cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		c.cacheTTL = ttl
	}
}

// WithProxy sets the proxy selection function on the default transport
func WithProxy(proxy func(*http.Request) (*url.URL, error)) Option {
	return func(c *Client) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = proxy
		c.httpClient.Transport = transport
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithValidator replaces the process-wide schema validator
func WithValidator(v *validate.Validator) Option {
	return func(c *Client) { c.validator = v }
}

// New creates a client for baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: "dfd",
		maxBytes:  50 << 20,
		extractor: extract.NewExtractor(baseURL),
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}

	if c.validator == nil {
		v, err := validate.Default()
		if err != nil {
			return nil, fmt.Errorf("load schemas: %w", err)
		}
		c.validator = v
	}
	return c, nil
}

// NewFromConfig builds a client with the configured limiter, cache and proxy
func NewFromConfig(cfg *model.Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := []Option{
		WithTimeout(cfg.API.Timeout),
		WithUserAgent(cfg.API.UserAgent),
		WithLogger(log),
		WithProxy(util.NewProxyFunc(cfg.API.HTTPProxy, cfg.API.HTTPSProxy, cfg.API.NoProxy)),
		WithRateLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
	}
	if cfg.API.MaxBodyBytes > 0 {
		opts = append(opts, WithMaxBodyBytes(cfg.API.MaxBodyBytes))
	}
	if ch := cache.New(cfg.Cache); ch != nil {
		opts = append(opts, WithCache(ch, 0))
	}

	return New(cfg.API.BaseURL, opts...)
}

// BaseURL returns the normalized backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

type response struct {
	header      http.Header
	body        []byte
	contentType string
}

// do performs one request. Any non-2xx status is returned as an *Error.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, contentType string) (*response, error) {
	target := c.baseURL + path

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, target); err != nil {
			return nil, transportError(op, fmt.Errorf("rate limit: %w", err))
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("create request: %w", err))
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json, */*;q=0.8")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, transportError(op, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > c.maxBytes {
		return nil, transportError(op, fmt.Errorf("response exceeds %d bytes", c.maxBytes))
	}

	c.log.Debug("backend request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(op, resp.StatusCode, data)
	}

	return &response{
		header:      resp.Header,
		body:        data,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// validated checks raw against the schema, failing closed as a transport error
func (c *Client) validated(op string, schema validate.Schema, raw []byte) error {
	if err := c.validator.Validate(schema, raw); err != nil {
		return transportError(op, err)
	}
	return nil
}
