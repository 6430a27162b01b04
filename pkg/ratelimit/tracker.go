package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Response headers read by the tracker.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// DefaultThrottleDelay is the pause applied per request in the warning range.
const DefaultThrottleDelay = time.Second

// DefaultMaxWindowAge bounds how long a recorded window is trusted. A window
// left in Redis by a crashed tap with a far reset must not block later runs.
const DefaultMaxWindowAge = 10 * time.Minute

// epochThreshold separates X-RateLimit-Reset values given as a unix
// timestamp from values given as seconds until reset.
const epochThreshold = 1_000_000_000

var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "woo_rate_limit_remaining",
		Help: "Requests remaining in the store's current rate limit window",
	})

	rateLimitWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "woo_rate_limit_waits_total",
		Help: "Requests delayed by server-side throttling",
	}, []string{"reason"}) // reason: blocked, throttled

	rateLimitWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "woo_rate_limit_wait_seconds_total",
		Help: "Total time spent waiting for the rate limit window to reopen",
	})
)

// Tracker observes throttling headers and gates requests.
type Tracker struct {
	redis         *redis.Client
	prefix        string
	logger        zerolog.Logger
	throttleDelay time.Duration
	maxAge        time.Duration

	mu     sync.Mutex
	window *Window
}

// NewTracker creates a tracker. With a nil redisClient the window lives in
// memory; otherwise it is shared through Redis under prefix (for example
// "tap-woocommerce:shop.example.com").
func NewTracker(redisClient *redis.Client, prefix string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		prefix:        prefix,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
		maxAge:        DefaultMaxWindowAge,
		window:        unknownWindow(),
	}
}

// SetThrottleDelay overrides the pause applied in the warning range.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

// SetMaxWindowAge overrides how long a recorded window is trusted.
func (t *Tracker) SetMaxWindowAge(d time.Duration) {
	t.maxAge = d
}

func (t *Tracker) key(suffix string) string {
	if t.prefix == "" {
		return suffix
	}
	return t.prefix + ":" + suffix
}

// GetState returns the current window. An unknown window is healthy.
func (t *Tracker) GetState(ctx context.Context) (*Window, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		w := *t.window
		return t.fresh(&w), nil
	}

	remaining, err := t.redis.Get(ctx, t.key(RedisKeyRemaining)).Int()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No rate limit window in Redis, assuming healthy")
		return unknownWindow(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, t.key(RedisKeyResetTimestamp)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdate, err := t.redis.Get(ctx, t.key(RedisKeyLastUpdate)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	w := &Window{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: time.Unix(lastUpdate, 0),
	}
	return t.fresh(w), nil
}

// fresh replaces a window older than maxAge with an unknown one.
func (t *Tracker) fresh(w *Window) *Window {
	if w.Remaining != RemainingUnknown && w.IsStale(t.maxAge) {
		t.logger.Debug().
			Time("last_update", w.LastUpdate).
			Dur("max_age", t.maxAge).
			Msg("Ignoring stale rate limit window")
		return unknownWindow()
	}
	w.UpdateHealth()
	return w
}

// UpdateFromHeaders records the window reported by a response. Responses
// without throttling headers leave the window untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	now := time.Now()
	w := &Window{LastUpdate: now}

	if retry := headers.Get(HeaderRetryAfter); retry != "" {
		d, err := parseRetryAfter(retry, now)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRetryAfter, err)
		}
		w.Remaining = 0
		w.ResetAt = now.Add(d)
	} else {
		remainStr := headers.Get(HeaderRemaining)
		if remainStr == "" {
			return nil
		}
		remain, err := strconv.Atoi(strings.TrimSpace(remainStr))
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
		}
		w.Remaining = remain

		resetStr := headers.Get(HeaderReset)
		if resetStr == "" {
			return fmt.Errorf("%s header missing", HeaderReset)
		}
		reset, err := strconv.ParseInt(strings.TrimSpace(resetStr), 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		if reset >= epochThreshold {
			w.ResetAt = time.Unix(reset, 0)
		} else {
			w.ResetAt = now.Add(time.Duration(reset) * time.Second)
		}
	}
	w.UpdateHealth()

	if err := t.store(ctx, w); err != nil {
		return err
	}

	rateLimitRemaining.Set(float64(w.Remaining))

	switch {
	case w.NeedsBlock():
		t.logger.Warn().
			Int("remaining", w.Remaining).
			Time("reset_at", w.ResetAt).
			Msg("Rate limit exhausted - requests will wait for reset")
	case w.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", w.Remaining).
			Time("reset_at", w.ResetAt).
			Msg("Rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", w.Remaining).
			Time("reset_at", w.ResetAt).
			Msg("Rate limit window updated")
	}
	return nil
}

func (t *Tracker) store(ctx context.Context, w *Window) error {
	if t.redis == nil {
		t.mu.Lock()
		t.window = w
		t.mu.Unlock()
		return nil
	}

	// Expire with the window so a crashed tap never blocks its successors.
	ttl := w.TimeUntilReset() + time.Minute

	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, t.key(RedisKeyRemaining), w.Remaining, ttl)
	pipe.Set(ctx, t.key(RedisKeyResetTimestamp), w.ResetAt.Unix(), ttl)
	pipe.Set(ctx, t.key(RedisKeyLastUpdate), w.LastUpdate.Unix(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit window in redis: %w", err)
	}
	return nil
}

// Wait blocks until a request may be sent: until the reset when the budget
// is exhausted, for the throttle delay when it is low, not at all otherwise.
// It returns ctx.Err() if ctx ends first.
func (t *Tracker) Wait(ctx context.Context) error {
	w, err := t.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get rate limit window: %w", err)
	}

	var d time.Duration
	switch {
	case w.NeedsBlock():
		d = w.TimeUntilReset()
		rateLimitWaitsTotal.WithLabelValues("blocked").Inc()
		t.logger.Warn().
			Int("remaining", w.Remaining).
			Dur("wait_duration", d).
			Msg("Rate limit exhausted - waiting for reset")
	case w.NeedsThrottling():
		d = t.throttleDelay
		rateLimitWaitsTotal.WithLabelValues("throttled").Inc()
		t.logger.Debug().
			Int("remaining", w.Remaining).
			Dur("wait_duration", d).
			Msg("Rate limit low - throttling request")
	default:
		return nil
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		rateLimitWaitSeconds.Add(d.Seconds())
		return nil
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, nil
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return 0, err
	}
	if d := at.Sub(now); d > 0 {
		return d, nil
	}
	return 0, nil
}
