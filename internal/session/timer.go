package session

import (
	"sync"
	"time"
)

// ExpiryController derives remaining time from one absolute expiry timestamp
// instead of a relative countdown, so reloads and backgrounded tabs can
// neither extend nor corrupt the clock. Tick is safe to call from any trigger
// (interval, focus, visibility change); the expiry callback fires exactly
// once.
type ExpiryController struct {
	mu        sync.Mutex
	now       func() time.Time
	expiresAt time.Time
	expired   bool
	onExpire  func()
}

func NewExpiryController(now func() time.Time, onExpire func()) *ExpiryController {
	if now == nil {
		now = time.Now
	}
	return &ExpiryController{now: now, onExpire: onExpire}
}

// Start computes and records the absolute expiry once. Calling Start again
// while the timer is running is a no-op; the first deadline stands until a
// fresh attempt resets the controller.
func (c *ExpiryController) Start(duration time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.expiresAt.IsZero() {
		return c.expiresAt
	}
	c.expiresAt = c.now().Add(duration)
	return c.expiresAt
}

// Adopt installs a persisted expiry (epoch ms). Like Start, it never
// overwrites a deadline that is already set.
func (c *ExpiryController) Adopt(expiresAtMs int64) {
	if expiresAtMs <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.expiresAt.IsZero() {
		return
	}
	c.expiresAt = time.UnixMilli(expiresAtMs)
}

// Started reports whether a deadline exists.
func (c *ExpiryController) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.expiresAt.IsZero()
}

// ExpiresAt returns the deadline in epoch ms, or zero when not started.
func (c *ExpiryController) ExpiresAt() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expiresAt.IsZero() {
		return 0
	}
	return c.expiresAt.UnixMilli()
}

// Remaining recomputes time left from the wall clock on every call; it never
// goes below zero and never drifts.
func (c *ExpiryController) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expiresAt.IsZero() {
		return 0
	}
	left := c.expiresAt.Sub(c.now())
	if left < 0 {
		return 0
	}
	return left
}

// Tick checks the deadline and fires the expiry callback at most once across
// all triggers. Returns true if the timer is expired.
func (c *ExpiryController) Tick() bool {
	c.mu.Lock()
	if c.expiresAt.IsZero() {
		c.mu.Unlock()
		return false
	}
	if c.now().Before(c.expiresAt) {
		c.mu.Unlock()
		return false
	}
	fire := !c.expired
	c.expired = true
	cb := c.onExpire
	c.mu.Unlock()
	if fire && cb != nil {
		cb()
	}
	return true
}

// Expired reports whether the expiry callback has been consumed.
func (c *ExpiryController) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}
