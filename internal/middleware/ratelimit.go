package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/hongminglow/account-service/internal/http/respond"
)

// Limits holds per-client request budgets. A zero value disables that limit.
type Limits struct {
	Enabled    bool
	PerDay     int
	PerHour    int
	Register   int
	Login      int
	Read       int
	Update     int
	Deactivate int
}

// RouteLimiters are the rate-limit middlewares applied by the router.
// Global applies to every request; the rest are per route, per minute.
type RouteLimiters struct {
	Global     []func(http.Handler) http.Handler
	Register   func(http.Handler) http.Handler
	Login      func(http.Handler) http.Handler
	Read       func(http.Handler) http.Handler
	Update     func(http.Handler) http.Handler
	Deactivate func(http.Handler) http.Handler
}

// NewRouteLimiters builds limiters keyed by client IP. Each limiter keeps its own counters.
func NewRouteLimiters(l Limits) RouteLimiters {
	rl := RouteLimiters{
		Register:   RateLimit(l.Enabled, l.Register, time.Minute),
		Login:      RateLimit(l.Enabled, l.Login, time.Minute),
		Read:       RateLimit(l.Enabled, l.Read, time.Minute),
		Update:     RateLimit(l.Enabled, l.Update, time.Minute),
		Deactivate: RateLimit(l.Enabled, l.Deactivate, time.Minute),
	}
	if l.Enabled && l.PerDay > 0 {
		rl.Global = append(rl.Global, RateLimit(true, l.PerDay, 24*time.Hour))
	}
	if l.Enabled && l.PerHour > 0 {
		rl.Global = append(rl.Global, RateLimit(true, l.PerHour, time.Hour))
	}
	return rl
}

// RateLimit allows n requests per client IP within window and answers 429 beyond that.
func RateLimit(enabled bool, n int, window time.Duration) func(http.Handler) http.Handler {
	if !enabled || n <= 0 {
		return passthrough
	}
	return httprate.Limit(n, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

func passthrough(next http.Handler) http.Handler { return next }
