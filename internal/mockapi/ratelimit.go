package mockapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// AttemptLimit bounds credential checks (login and OTP verification) per
// account.
type AttemptLimit struct {
	MaxAttempts int           // attempts per Window
	Window      time.Duration // sliding window
	BlockAfter  int           // consecutive failures before a block
	BlockTime   time.Duration // first block; doubles for each further BlockAfter failures
}

// DefaultAttemptLimit returns the limit used by ttsdash-mock.
func DefaultAttemptLimit() AttemptLimit {
	return AttemptLimit{
		MaxAttempts: 5,
		Window:      time.Minute,
		BlockAfter:  10,
		BlockTime:   5 * time.Minute,
	}
}

// WithAttemptLimit enables attempt limiting. It is off by default so tests
// can retry freely.
func WithAttemptLimit(limit AttemptLimit) Option {
	return func(b *Backend) {
		b.limiter = newAttemptLimiter(limit, func() time.Time { return b.now() })
	}
}

type attemptLimiter struct {
	mu    sync.Mutex
	limit AttemptLimit
	now   func() time.Time

	attempts map[string][]time.Time
	failures map[string]int
	blocked  map[string]time.Time // key -> block expiry
}

func newAttemptLimiter(limit AttemptLimit, now func() time.Time) *attemptLimiter {
	def := DefaultAttemptLimit()
	if limit.MaxAttempts <= 0 {
		limit.MaxAttempts = def.MaxAttempts
	}
	if limit.Window <= 0 {
		limit.Window = def.Window
	}
	if limit.BlockAfter <= 0 {
		limit.BlockAfter = def.BlockAfter
	}
	if limit.BlockTime <= 0 {
		limit.BlockTime = def.BlockTime
	}
	return &attemptLimiter{
		limit:    limit,
		now:      now,
		attempts: make(map[string][]time.Time),
		failures: make(map[string]int),
		blocked:  make(map[string]time.Time),
	}
}

// verdict is the outcome of one check.
type verdict struct {
	Allowed    bool
	Blocked    bool
	RetryAfter time.Duration
}

// check records an attempt for key unless it is blocked or over the limit.
func (l *attemptLimiter) check(key string) verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiry, ok := l.blocked[key]; ok {
		if now.Before(expiry) {
			return verdict{Blocked: true, RetryAfter: expiry.Sub(now)}
		}
		delete(l.blocked, key)
	}

	windowStart := now.Add(-l.limit.Window)
	recent := l.attempts[key][:0]
	for _, ts := range l.attempts[key] {
		if ts.After(windowStart) {
			recent = append(recent, ts)
		}
	}
	l.attempts[key] = recent

	if len(recent) >= l.limit.MaxAttempts {
		retry := recent[0].Add(l.limit.Window).Sub(now)
		if retry <= 0 {
			retry = time.Second
		}
		return verdict{RetryAfter: retry}
	}

	l.attempts[key] = append(l.attempts[key], now)
	return verdict{Allowed: true}
}

func (l *attemptLimiter) recordSuccess(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
	delete(l.blocked, key)
}

// recordFailure counts a failed check and blocks key once failures reach
// BlockAfter. Each further BlockAfter failures doubles the block, capped at
// a day.
func (l *attemptLimiter) recordFailure(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[key]++
	n := l.failures[key]
	if n < l.limit.BlockAfter {
		return 0
	}

	blocks := (n - l.limit.BlockAfter) / l.limit.BlockAfter
	d := l.limit.BlockTime * time.Duration(1<<min(blocks, 16))
	if d > 24*time.Hour {
		d = 24 * time.Hour
	}
	l.blocked[key] = l.now().Add(d)
	return d
}

// attemptKey identifies who is attempting: the account email, else the
// client address.
func attemptKey(r *http.Request, email string) string {
	if email = strings.TrimSpace(email); email != "" {
		return "email:" + strings.ToLower(email)
	}
	return "ip:" + clientIP(r)
}

// clientIP prefers X-Forwarded-For, then X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// allowAttempt applies the limiter, writing a 429 when the attempt is
// refused. It always allows when limiting is off.
func (b *Backend) allowAttempt(w http.ResponseWriter, r *http.Request, key string) bool {
	if b.limiter == nil {
		return true
	}
	v := b.limiter.check(key)
	if v.Allowed {
		return true
	}

	secs := int(v.RetryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	reason := "Too many attempts."
	if v.Blocked {
		reason = "Too many failed attempts."
	}
	b.logger.Warn("attempt refused", "key", key, "blocked", v.Blocked, "retry_after", v.RetryAfter)
	writeDetail(w, http.StatusTooManyRequests, reason+" Try again in "+strconv.Itoa(secs)+"s.")
	return false
}

// attemptResult feeds the outcome of a credential check back to the limiter.
func (b *Backend) attemptResult(key string, ok bool) {
	if b.limiter == nil {
		return
	}
	if ok {
		b.limiter.recordSuccess(key)
		return
	}
	if d := b.limiter.recordFailure(key); d > 0 {
		b.logger.Warn("attempts blocked", "key", key, "duration", d)
	}
}
