package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for credential-bearing endpoints: a small steady rate with enough
// burst for a user fumbling a password, far too little for guessing.
const (
	DefaultAuthRate  = rate.Limit(1)
	DefaultAuthBurst = 5
)

// AuthLimits returns the rate/burst pair for auth endpoints, overridable via
// AUTH_RATE_LIMIT (events per second) and AUTH_RATE_BURST.
func AuthLimits() (rate.Limit, int) {
	limit := DefaultAuthRate
	burst := DefaultAuthBurst
	if s := os.Getenv("AUTH_RATE_LIMIT"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
			limit = rate.Limit(v)
		}
	}
	if s := os.Getenv("AUTH_RATE_BURST"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			burst = v
		}
	}
	return limit, burst
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	visitorIdleTTL = 3 * time.Minute
	sweepInterval  = time.Minute
)

// visitorTable tracks one token bucket per client IP. Idle entries are swept
// inline on lookup rather than by a background goroutine, so a table needs no
// lifecycle of its own.
type visitorTable struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	nextSweep time.Time
	limit     rate.Limit
	burst     int
}

func newVisitorTable(limit rate.Limit, burst int) *visitorTable {
	return &visitorTable{
		visitors:  make(map[string]*visitor),
		nextSweep: time.Now().Add(sweepInterval),
		limit:     limit,
		burst:     burst,
	}
}

func (t *visitorTable) limiterFor(ip string, now time.Time) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.After(t.nextSweep) {
		for k, v := range t.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(t.visitors, k)
			}
		}
		t.nextSweep = now.Add(sweepInterval)
	}
	v, ok := t.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (t *visitorTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.visitors)
}

// RateLimit returns a per-client-IP token bucket middleware.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	table := newVisitorTable(limit, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !table.limiterFor(ip, time.Now()).Allow() {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
