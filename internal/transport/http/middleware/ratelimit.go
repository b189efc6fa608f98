package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

type RateLimitOption func(*limiter)

func WithKeyFunc(fn KeyFunc) RateLimitOption {
	return func(l *limiter) {
		if fn != nil {
			l.key = fn
		}
	}
}

// RateLimit allows limit requests per key in each fixed window. Requests
// are keyed by user id when authenticated, otherwise by client IP.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	l := newLimiter(limit, window, userOrIP)
	for _, opt := range opts {
		opt(l)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit throttles login and state-changing leave,
// attendance, employee and cron routes. Login gets a quarter of baseLimit per
// IP and per email; other mutations get half of it per user. Reads pass.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)
	loginByIP := newLimiter(loginLimit, window, ClientIP)
	loginByEmail := newLimiter(loginLimit, window, loginEmailOrIP)
	mutations := newLimiter(mutationLimit, window, userOrIP)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch classify(r) {
			case scopeLogin:
				if !loginByIP.admit(w, r) || !loginByEmail.admit(w, r) {
					return
				}
			case scopeMutation:
				if !mutations.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop or the remote host.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

func userOrIP(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return ClientIP(r)
}

func loginEmailOrIP(r *http.Request) string {
	if email := peekJSONString(r, "email"); email != "" {
		return "email:" + strings.ToLower(email)
	}
	return ClientIP(r)
}

type bucket struct {
	count int
	reset time.Time
}

type limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	key     KeyFunc
	buckets map[string]*bucket
	sweepAt time.Time
}

func newLimiter(limit int, window time.Duration, key KeyFunc) *limiter {
	return &limiter{limit: limit, window: window, key: key, buckets: map[string]*bucket{}}
}

type verdict struct {
	remaining int
	resetIn   time.Duration
	allowed   bool
}

func (l *limiter) take(key string, now time.Time) verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweepAt) {
		for k, b := range l.buckets {
			if now.After(b.reset) {
				delete(l.buckets, k)
			}
		}
		l.sweepAt = now.Add(l.window)
	}

	b, ok := l.buckets[key]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return verdict{
		remaining: max(l.limit-b.count, 0),
		resetIn:   b.reset.Sub(now),
		allowed:   b.count <= l.limit,
	}
}

// admit counts r and writes the rate limit headers. On rejection it writes
// a 429 and returns false.
func (l *limiter) admit(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.key(r)
	if key == "" {
		key = ClientIP(r)
	}
	v := l.take(key, time.Now())

	resetSec := ceilSeconds(v.resetIn)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if v.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	requestctx.Logger(r.Context()).Warn("rate limit exceeded",
		"key", key,
		"method", r.Method,
		"path", r.URL.Path,
		"limit", l.limit,
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// peekJSONString reads a top-level string field from a JSON body and
// restores the body for the next handler.
func peekJSONString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]any
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type scope int

const (
	scopeNone scope = iota
	scopeLogin
	scopeMutation
)

func classify(r *http.Request) scope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return scopeNone
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case path == "/auth/login":
		return scopeLogin
	case path == "/cron/attendance",
		path == "/attendance",
		path == "/leave/balances/recompute",
		path == "/employees",
		strings.HasPrefix(path, "/employees/"),
		strings.HasPrefix(path, "/leave/requests/"):
		return scopeMutation
	}
	return scopeNone
}
