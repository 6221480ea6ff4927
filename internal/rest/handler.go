// Package rest provides the request proxy handler.
package rest

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// strippedHeaders never travel upstream: the caller's credential and the
// hop-by-hop headers forbidden for proxied HTTP/2 requests.
var strippedHeaders = []string{
	"Authorization",
	"Connection",
	"Host",
	"Keep-Alive",
	"Proxy-Connection",
	"Transfer-Encoding",
	"Upgrade",
}

// ProxyHandler drives one proxied request end to end: derive the bucket
// key, acquire a ticket, forward upstream, and report the observed rate
// limit headers back to the owning replica.
type ProxyHandler struct {
	origin        string
	hostHeader    string
	token         string
	ratelimiter   Ratelimiter
	client        *http.Client
	logger        Logger
	metrics       Metrics
	publisher     EventPublisher
	reportTimeout time.Duration
	reports       sync.WaitGroup
}

// NewProxyHandler constructs the handler for a configuration.
func NewProxyHandler(cfg *Config, ratelimiter Ratelimiter) *ProxyHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = NewZerologLogger(nil)
	}
	reportTimeout := cfg.ReportTimeout
	if reportTimeout <= 0 {
		reportTimeout = 5 * time.Second
	}
	return &ProxyHandler{
		origin:        "https://" + cfg.UpstreamHost,
		hostHeader:    cfg.UpstreamHost,
		token:         cfg.Token,
		ratelimiter:   ratelimiter,
		client:        &http.Client{Timeout: cfg.UpstreamTimeout},
		logger:        logger,
		metrics:       cfg.Metrics,
		publisher:     cfg.Publisher,
		reportTimeout: reportTimeout,
	}
}

// ServeHTTP proxies a single request.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := proxiedMethods[r.Method]; !ok {
		h.incRequest("unsupported_method")
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
		return
	}

	apiPath, trimmedPath := NormalizePath(r.URL.Path)
	key, err := BucketKey(r.Method, trimmedPath)
	if err != nil {
		h.logger.Error("failed to derive bucket key", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		})
		h.incRequest("routing_error")
		http.Error(w, "unrecognized route", http.StatusBadRequest)
		return
	}

	upstreamURL := h.origin + apiPath + trimmedPath
	if r.URL.RawQuery != "" {
		upstreamURL += "?" + r.URL.RawQuery
	}

	ticketStart := time.Now()
	if err := h.ratelimiter.Ticket(r.Context(), key); err != nil {
		h.logger.Error("failed to receive ticket", map[string]any{
			"bucket": key,
			"error":  err.Error(),
		})
		h.incRequest("ticket_error")
		http.Error(w, "ratelimiter unavailable", http.StatusServiceUnavailable)
		return
	}
	ticketWait := time.Since(ticketStart)

	out, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL, r.Body)
	if err != nil {
		h.incRequest("bad_request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	out.Header = r.Header.Clone()
	for _, name := range strippedHeaders {
		out.Header.Del(name)
	}
	out.Host = h.hostHeader
	out.Header.Set("Authorization", "Bot "+h.token)
	out.ContentLength = r.ContentLength

	upstreamStart := time.Now()
	resp, err := h.client.Do(out)
	if err != nil {
		h.logger.Error("failed to request the upstream api", map[string]any{
			"bucket": key,
			"url":    upstreamURL,
			"error":  err.Error(),
		})
		h.incRequest("upstream_error")
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	upstreamTime := time.Since(upstreamStart)

	headers := flattenHeaders(resp.Header)

	dst := w.Header()
	for name, values := range resp.Header {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
	dst.Set("X-TicketRequest-Ms", strconv.FormatInt(ticketWait.Milliseconds(), 10))
	dst.Set("X-Upstream-Ms", strconv.FormatInt(upstreamTime.Milliseconds(), 10))
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to stream upstream response", map[string]any{
			"bucket": key,
			"error":  err.Error(),
		})
	}

	if h.metrics != nil {
		h.metrics.ObserveTicketWait(ticketWait)
		h.metrics.ObserveUpstream(upstreamTime)
		h.metrics.IncRequest("status_" + strconv.Itoa(resp.StatusCode/100) + "xx")
	}

	// The response is complete; the report must never delay or fail it.
	h.reports.Add(1)
	go h.report(key, headers)
}

// report submits observed headers to the owning replica and, when
// configured, onto the cache queue. Best effort.
func (h *ProxyHandler) report(key uint64, headers map[string]string) {
	defer h.reports.Done()
	ctx, cancel := context.WithTimeout(context.Background(), h.reportTimeout)
	defer cancel()
	if err := h.ratelimiter.SubmitHeaders(ctx, key, headers); err != nil {
		h.logger.Error("failed to submit ratelimit headers", map[string]any{
			"bucket": key,
			"error":  err.Error(),
		})
		if h.metrics != nil {
			h.metrics.IncReportFailure()
		}
	}
	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, key, headers); err != nil {
			h.logger.Error("failed to publish headers event", map[string]any{
				"bucket": key,
				"error":  err.Error(),
			})
		}
	}
}

// Drain waits for in-flight header reports, bounded by ctx.
func (h *ProxyHandler) Drain(ctx context.Context) error {
	if h == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		h.reports.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *ProxyHandler) incRequest(result string) {
	if h.metrics != nil {
		h.metrics.IncRequest(result)
	}
}

// flattenHeaders lowers response headers into the flat mapping the
// ratelimiter consumes.
func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for name, values := range header {
		if len(values) == 0 {
			continue
		}
		flat[strings.ToLower(name)] = values[0]
	}
	return flat
}
