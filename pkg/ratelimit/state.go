// Package ratelimit tracks server-side throttling signalled by a WooCommerce
// store and gates requests until the throttle window reopens.
//
// Stores behind a rate-limiting plugin or proxy report their budget with
// X-RateLimit-Remaining and X-RateLimit-Reset, and answer 429 with
// Retry-After once the budget is spent. The window is kept in Redis when
// configured, so several tap processes syncing the same store back off
// together, and in memory otherwise.
package ratelimit

import (
	"time"
)

// Redis key suffixes for window storage, appended to the tracker's prefix.
const (
	RedisKeyRemaining      = "rate_limit:remaining"
	RedisKeyResetTimestamp = "rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "rate_limit:last_update"
)

// Thresholds for throttling decisions.
const (
	// RemainingThresholdCritical blocks requests until the reset when the
	// remaining budget falls below this value.
	RemainingThresholdCritical = 1

	// RemainingThresholdWarning slows requests down when the remaining
	// budget falls below this value.
	RemainingThresholdWarning = 10

	// RemainingUnknown marks a window for which the store never sent a budget.
	RemainingUnknown = -1
)

// Window is the last throttle state reported by the store.
type Window struct {
	// Remaining is the request budget left in the window, or RemainingUnknown.
	Remaining int `json:"remaining"`

	// ResetAt is when the budget refills.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the window was last observed.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when no throttling applies.
	IsHealthy bool `json:"is_healthy"`
}

// unknownWindow is the state before any throttling header was seen.
func unknownWindow() *Window {
	return &Window{
		Remaining:  RemainingUnknown,
		LastUpdate: time.Now(),
		IsHealthy:  true,
	}
}

// IsStale reports whether the window is older than maxAge.
func (w *Window) IsStale(maxAge time.Duration) bool {
	return time.Since(w.LastUpdate) > maxAge
}

// NeedsBlock reports whether requests must wait for the reset. A window
// that has already reset never blocks.
func (w *Window) NeedsBlock() bool {
	if w.Remaining == RemainingUnknown {
		return false
	}
	return w.Remaining < RemainingThresholdCritical && w.TimeUntilReset() > 0
}

// NeedsThrottling reports whether requests should be slowed down.
func (w *Window) NeedsThrottling() bool {
	if w.Remaining == RemainingUnknown || w.NeedsBlock() {
		return false
	}
	return w.Remaining < RemainingThresholdWarning && w.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the budget refills, or 0 once
// the reset has passed.
func (w *Window) TimeUntilReset() time.Duration {
	d := time.Until(w.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// UpdateHealth recomputes IsHealthy from the other fields.
func (w *Window) UpdateHealth() {
	w.IsHealthy = !w.NeedsBlock() && !w.NeedsThrottling()
}
