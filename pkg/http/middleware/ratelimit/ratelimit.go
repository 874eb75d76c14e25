package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	sweepInterval = 5 * time.Minute
	idleTTL       = 30 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client address.
type Limiter struct {
	rps            rate.Limit
	burst          int
	trustForwarded bool

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

// option is a function that configures the Limiter.
type option func(*Limiter)

// WithTrustForwarded keys clients by the first X-Forwarded-For address.
// Enable it only behind a proxy that overwrites the header.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTrustForwarded(trust bool) option {
	return func(l *Limiter) {
		l.trustForwarded = trust
	}
}

// New creates a Limiter allowing rps requests per second per client with the given burst.
func New(rps float64, burst int, opts ...option) *Limiter {
	if burst < 1 {
		burst = 1
	}

	l := &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Handler rejects requests over the client's budget with 429.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(l.clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests"}` + "\n"))

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > sweepInterval {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > idleTTL {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

func (l *Limiter) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); l.trustForwarded && xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
