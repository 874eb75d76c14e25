package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func serve(h http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec.Code
}

func TestLimiter_Handler(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("should reject requests over the burst", func(t *testing.T) {
		l := New(0.001, 2)
		h := l.Handler(ok)

		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1000", ""))
		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1001", ""))
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:1002", ""))
	})

	t.Run("should track clients separately", func(t *testing.T) {
		l := New(0.001, 1)
		h := l.Handler(ok)

		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1000", ""))
		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.2:1000", ""))
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:1000", ""))
	})

	t.Run("should ignore the forwarded address by default", func(t *testing.T) {
		l := New(0.001, 1)
		h := l.Handler(ok)

		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1000", "192.168.1.1"))
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:1000", "192.168.1.2"))
	})

	t.Run("should prefer the forwarded address when trusted", func(t *testing.T) {
		l := New(0.001, 1, WithTrustForwarded(true))
		h := l.Handler(ok)

		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1000", "192.168.1.1, 10.0.0.1"))
		assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1000", "192.168.1.2"))
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.9:1000", "192.168.1.1"))
	})
}

func TestLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Now()
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	assert.Len(t, l.clients, 1)

	now = now.Add(idleTTL + sweepInterval + time.Second)
	l.allow("10.0.0.2")
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "10.0.0.2")
}
