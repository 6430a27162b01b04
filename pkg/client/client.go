// Package client provides the WooCommerce REST client the tap fetches pages
// with: authentication, pacing, server throttling and retries.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Sternrassler/tap-woocommerce/pkg/logging"
	"github.com/Sternrassler/tap-woocommerce/pkg/pagination"
	"github.com/Sternrassler/tap-woocommerce/pkg/ratelimit"
)

// APIPath is the REST root below the site URL.
const APIPath = "/wp-json/wc/v3"

// DefaultUserAgent identifies the tap to the store.
const DefaultUserAgent = "tap-woocommerce/1.0"

// DefaultTimeout is generous; large stores answer slowly on deep pages.
const DefaultTimeout = 900 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to one WooCommerce store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiPath    string
	limiter    *rate.Limiter
	tracker    *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// SiteURL is the store root, e.g. https://shop.example.com.
	SiteURL string

	// ConsumerKey and ConsumerSecret are the REST API credentials.
	ConsumerKey    string
	ConsumerSecret string

	// QueryStringAuth sends credentials as query parameters instead of
	// basic auth, for servers that strip the Authorization header.
	QueryStringAuth bool

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds a single request.
	Timeout time.Duration

	// RateLimit caps requests per second; 0 disables local pacing.
	RateLimit float64

	// Tracker observes server throttling. Nil creates an in-memory tracker.
	Tracker *ratelimit.Tracker

	// Retry chooses the retry policy per error class. Nil uses NoRetry.
	Retry func(ErrorClass) RetryConfig
}

// DefaultConfig returns the configuration for a store with the given credentials.
func DefaultConfig(siteURL, consumerKey, consumerSecret string) Config {
	return Config{
		SiteURL:        siteURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		UserAgent:      DefaultUserAgent,
		Timeout:        DefaultTimeout,
		Retry:          NoRetry,
	}
}

// New creates a new WooCommerce client.
func New(cfg Config) (*Client, error) {
	if cfg.SiteURL == "" {
		return nil, fmt.Errorf("site url is required")
	}
	u, err := url.Parse(cfg.SiteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("site url must be an absolute http(s) url (got %q)", cfg.SiteURL)
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("consumer key and secret are required")
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must be >= 0 (got %v)", cfg.RateLimit)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry == nil {
		cfg.Retry = NoRetry
	}

	logger := logging.NewLogger("woo-client").With().Str("site", u.Host).Logger()

	tracker := cfg.Tracker
	if tracker == nil {
		tracker = ratelimit.NewTracker(nil, "", logger)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.SiteURL, "/") + APIPath,
		apiPath: strings.TrimRight(u.Path, "/") + APIPath,
		limiter: limiter,
		tracker: tracker,
		config:  cfg,
		logger:  logger,
	}, nil
}

// BaseURL returns the REST root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request against path (relative to the REST root).
// Non-2xx responses are returned as *APIError; the caller closes the body
// of a successful response.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	if c.config.QueryStringAuth {
		q.Set("consumer_key", c.config.ConsumerKey)
		q.Set("consumer_secret", c.config.ConsumerSecret)
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if !c.config.QueryStringAuth {
		req.SetBasicAuth(c.config.ConsumerKey, c.config.ConsumerSecret)
	}

	return c.Do(req)
}

// FetchPage performs one page request and reads the whole body. It
// satisfies pagination.Fetcher.
func (c *Client) FetchPage(ctx context.Context, path string, params url.Values) (*pagination.Page, error) {
	resp, err := c.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{
			Endpoint:   NormalizeEndpoint(path),
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}

	return &pagination.Page{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Do performs a request with pacing, throttling and retries. Only GET
// requests without a body are retried safely.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := NormalizeEndpoint(strings.TrimPrefix(req.URL.Path, c.apiPath))

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	var resp *http.Response
	err := retryWithBackoff(ctx, c.logger, c.config.Retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		if err := c.tracker.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("method", req.Method).
			Msg("Executing WooCommerce request")

		r, err := c.httpClient.Do(req)
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			return &APIError{
				Endpoint:   endpoint,
				ErrorClass: ErrorClassNetwork,
				Err:        err,
			}
		}

		if err := c.tracker.UpdateFromHeaders(ctx, r.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()

		if r.StatusCode < 200 || r.StatusCode > 299 {
			apiErr := c.errorFromResponse(endpoint, r)
			errorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", r.StatusCode).
				Str("error_class", string(apiErr.ErrorClass)).
				Str("code", apiErr.Code).
				Msg("WooCommerce request error")
			return apiErr
		}

		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// errorFromResponse consumes and closes the body of a failed response.
func (c *Client) errorFromResponse(endpoint string, resp *http.Response) *APIError {
	defer resp.Body.Close()

	apiErr := &APIError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		ErrorClass: classifyStatus(resp.StatusCode),
		Message:    resp.Status,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var doc struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &doc); err == nil && doc.Code != "" {
		apiErr.Code = doc.Code
		apiErr.Message = doc.Message
	}
	return apiErr
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// NormalizeEndpoint collapses numeric path segments so metric labels stay
// bounded: /orders/123/notes becomes /orders/{id}/notes.
func NormalizeEndpoint(path string) string {
	path = "/" + strings.Trim(path, "/")
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
