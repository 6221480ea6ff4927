// Package rest provides HTTP middleware for the proxy listener.
package rest

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// InboundLimiter applies a per-client token bucket in front of the proxy.
// A zero rate disables the guard.
type InboundLimiter struct {
	mu      sync.Mutex
	entries map[string]*inboundEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
}

type inboundEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewInboundLimiter constructs a guard allowing rps requests per second per
// client with the given burst.
func NewInboundLimiter(rps float64, burst int) *InboundLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &InboundLimiter{
		entries: map[string]*inboundEntry{},
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
	}
}

// Middleware wraps next with the guard.
func (l *InboundLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.rps <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !l.allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *InboundLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &inboundEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()
	return entry.limiter.Allow()
}

// Cleanup drops clients idle past the TTL.
func (l *InboundLimiter) Cleanup() {
	if l == nil {
		return
	}
	cutoff := time.Now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// StartJanitor prunes idle clients until ctx is cancelled.
func (l *InboundLimiter) StartJanitor(ctx context.Context) {
	if l == nil {
		return
	}
	ticker := time.NewTicker(2 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

var requestCounter atomic.Uint64

// requestLogMiddleware assigns each request an ID, echoes it on the
// response, and logs one line per proxied request.
func requestLogMiddleware(logger Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := strconv.FormatUint(requestCounter.Add(1), 10)
		w.Header().Set("X-Request-Id", requestID)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		if logger == nil {
			return
		}
		logger.Info("request", map[string]any{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
