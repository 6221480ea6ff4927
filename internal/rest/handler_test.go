package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type reportCall struct {
	key     uint64
	headers map[string]string
}

// stubRatelimiter records ticket and report calls for handler tests.
type stubRatelimiter struct {
	ticketErr error
	submitErr error

	mu      sync.Mutex
	tickets []uint64
	reports chan reportCall
}

func (s *stubRatelimiter) Ticket(ctx context.Context, key uint64) error {
	s.mu.Lock()
	s.tickets = append(s.tickets, key)
	s.mu.Unlock()
	return s.ticketErr
}

func (s *stubRatelimiter) SubmitHeaders(ctx context.Context, key uint64, headers map[string]string) error {
	if s.reports != nil {
		s.reports <- reportCall{key: key, headers: headers}
	}
	return s.submitErr
}

func (s *stubRatelimiter) ticketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func newTestProxyHandler(t *testing.T, rl Ratelimiter, upstream *httptest.Server) (*ProxyHandler, *InMemoryMetrics) {
	t.Helper()
	metrics := NewInMemoryMetrics()
	cfg := &Config{
		UpstreamHost:  "discord.com",
		Token:         "test-token",
		Logger:        NewZerologLogger(io.Discard),
		Metrics:       metrics,
		ReportTimeout: 2 * time.Second,
	}
	h := NewProxyHandler(cfg, rl)
	if upstream != nil {
		h.origin = upstream.URL
		parsed, err := url.Parse(upstream.URL)
		if err != nil {
			t.Fatalf("failed to parse upstream url: %v", err)
		}
		h.hostHeader = parsed.Host
	}
	return h, metrics
}

func drainReports(t *testing.T, h *ProxyHandler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.Drain(ctx); err != nil {
		t.Fatalf("failed to drain reports: %v", err)
	}
}

func TestProxyHandler_RejectsUnsupportedMethod(t *testing.T) {
	t.Parallel()

	stub := &stubRatelimiter{}
	h, _ := newTestProxyHandler(t, stub, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/api/v10/users/@me", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
	if stub.ticketCount() != 0 {
		t.Fatalf("expected no ticket request before the method check")
	}
}

func TestProxyHandler_RejectsUnknownRoute(t *testing.T) {
	t.Parallel()

	stub := &stubRatelimiter{}
	h, _ := newTestProxyHandler(t, stub, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v10/bogus/123", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if stub.ticketCount() != 0 {
		t.Fatalf("expected no ticket request for an unrecognized route")
	}
}

func TestProxyHandler_TicketFailureSkipsUpstream(t *testing.T) {
	t.Parallel()

	var upstreamHits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamHits.Add(1)
	}))
	defer upstream.Close()

	stub := &stubRatelimiter{ticketErr: ErrNoRatelimiterNodes}
	h, _ := newTestProxyHandler(t, stub, upstream)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v10/users/@me", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if upstreamHits.Load() != 0 {
		t.Fatalf("expected the upstream to stay untouched")
	}
}

func TestProxyHandler_RewritesOutgoingHeaders(t *testing.T) {
	t.Parallel()

	seen := make(chan http.Header, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Clone()
	}))
	defer upstream.Close()

	stub := &stubRatelimiter{}
	h, _ := newTestProxyHandler(t, stub, upstream)

	req := httptest.NewRequest(http.MethodGet, "/api/v10/users/@me", nil)
	req.Header.Set("Authorization", "Bearer caller-credential")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("X-Audit-Log-Reason", "cleanup")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	drainReports(t, h)

	var got http.Header
	select {
	case got = <-seen:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the upstream to receive the request")
	}
	if auth := got.Values("Authorization"); len(auth) != 1 || auth[0] != "Bot test-token" {
		t.Fatalf("expected a single bot credential got %v", auth)
	}
	if got.Get("Connection") != "" || got.Get("Upgrade") != "" {
		t.Fatalf("expected hop-by-hop headers to be stripped got %v", got)
	}
	if got.Get("X-Audit-Log-Reason") != "cleanup" {
		t.Fatalf("expected custom headers to pass through got %v", got)
	}
}

func TestProxyHandler_ForwardsPathAndQuery(t *testing.T) {
	t.Parallel()

	seen := make(chan *url.URL, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clone := *r.URL
		seen <- &clone
	}))
	defer upstream.Close()

	stub := &stubRatelimiter{}
	h, _ := newTestProxyHandler(t, stub, upstream)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v10/channels/123/messages?limit=5&after=10", nil))
	drainReports(t, h)

	var got *url.URL
	select {
	case got = <-seen:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the upstream to receive the request")
	}
	if got.Path != "/api/v10/channels/123/messages" {
		t.Fatalf("expected versioned upstream path got %q", got.Path)
	}
	if got.RawQuery != "limit=5&after=10" {
		t.Fatalf("expected query string to pass through got %q", got.RawQuery)
	}
}

func TestProxyHandler_ReportsHeadersAfterResponse(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "4")
		w.Header().Set("X-RateLimit-Reset-After", "2.5")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer upstream.Close()

	stub := &stubRatelimiter{reports: make(chan reportCall, 1)}
	h, metrics := newTestProxyHandler(t, stub, upstream)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v10/users/@me", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Body.String() != `{"id":"1"}` {
		t.Fatalf("expected the upstream body got %q", rec.Body.String())
	}
	for _, name := range []string{"X-TicketRequest-Ms", "X-Upstream-Ms"} {
		value := rec.Header().Get(name)
		ms, err := strconv.Atoi(value)
		if err != nil || ms < 0 {
			t.Fatalf("expected %s to carry a millisecond count got %q", name, value)
		}
	}

	wantKey := mustKey(t, http.MethodGet, "/users/@me")
	if stub.ticketCount() != 1 || stub.tickets[0] != wantKey {
		t.Fatalf("expected one ticket for bucket %d got %v", wantKey, stub.tickets)
	}

	select {
	case report := <-stub.reports:
		if report.key != wantKey {
			t.Fatalf("expected report for bucket %d got %d", wantKey, report.key)
		}
		if report.headers["x-ratelimit-remaining"] != "4" {
			t.Fatalf("expected lowercased rate limit headers got %v", report.headers)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a header report after the response")
	}
	drainReports(t, h)

	snapshot := metrics.Snapshot()
	counters, _ := snapshot["counters"].(map[string]int64)
	if counters["requests|status_2xx"] != 1 {
		t.Fatalf("expected one successful request counted got %v", counters)
	}
}

func TestProxyHandler_ReportFailureLeavesResponseIntact(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	stub := &stubRatelimiter{submitErr: ErrNoRatelimiterNodes}
	h, metrics := newTestProxyHandler(t, stub, upstream)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v10/channels/1/messages/2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	drainReports(t, h)

	snapshot := metrics.Snapshot()
	counters, _ := snapshot["counters"].(map[string]int64)
	if counters["report_failures"] != 1 {
		t.Fatalf("expected one report failure counted got %v", counters)
	}
}

func TestProxyHandler_UpstreamFailureReturnsBadGateway(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	stub := &stubRatelimiter{}
	h, _ := newTestProxyHandler(t, stub, upstream)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v10/users/@me", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rec.Code)
	}
}
