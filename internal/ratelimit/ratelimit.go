// Package ratelimit implements a fixed-window per-IP counter for abuse-prone
// actions (room creation and joining). It is deliberately simple: one window
// per (ip, action), counted in memory, pruned periodically.
package ratelimit

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Action identifies a rate-limited operation.
type Action string

const (
	ActionCreateRoom Action = "create_room"
	ActionJoinRoom   Action = "join_room"
)

// Config bounds one action's request volume.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultLimits matches production defaults: 5 room creations per hour and
// 10 joins per minute per IP.
func DefaultLimits() map[Action]Config {
	return map[Action]Config{
		ActionCreateRoom: {MaxRequests: 5, Window: time.Hour},
		ActionJoinRoom:   {MaxRequests: 10, Window: time.Minute},
	}
}

// Result reports a limiter decision. RetryAfter is only set when denied.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

type windowKey struct {
	ip     string
	action Action
}

type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window counter keyed by (ip, action). Safe for
// concurrent use.
type Limiter struct {
	clock  quartz.Clock
	limits map[Action]Config

	mu      sync.Mutex
	windows map[windowKey]*window
}

// New creates a limiter. Unknown actions are always allowed.
func New(clock quartz.Clock, limits map[Action]Config) *Limiter {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Limiter{
		clock:   clock,
		limits:  limits,
		windows: make(map[windowKey]*window),
	}
}

// Check records one request for (ip, action) and reports whether it is
// allowed within the current window.
func (l *Limiter) Check(ip string, action Action) Result {
	cfg, ok := l.limits[action]
	if !ok {
		return Result{Allowed: true}
	}

	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	key := windowKey{ip: ip, action: action}
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= cfg.Window {
		l.windows[key] = &window{start: now, count: 1}
		return Result{Allowed: true}
	}

	if w.count >= cfg.MaxRequests {
		return Result{Allowed: false, RetryAfter: w.start.Add(cfg.Window).Sub(now)}
	}

	w.count++
	return Result{Allowed: true}
}

// Prune drops windows that have already expired. Called from the server's
// periodic cleanup sweep.
func (l *Limiter) Prune() {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		cfg, ok := l.limits[key.action]
		if !ok || now.Sub(w.start) >= cfg.Window {
			delete(l.windows, key)
		}
	}
}
