// Package rest provides proxy metrics.
package rest

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records proxy measurements.
type Metrics interface {
	ObserveTicketWait(d time.Duration)
	ObserveUpstream(d time.Duration)
	IncRequest(result string)
	IncReportFailure()
}

// InMemoryMetrics stores counters and latency summaries.
type InMemoryMetrics struct {
	counters  sync.Map
	latencies sync.Map
}

type latencySummary struct {
	count      atomic.Int64
	totalNanos atomic.Int64
	maxNanos   atomic.Int64
}

// NewInMemoryMetrics constructs an in-memory metrics recorder.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{}
}

// ObserveTicketWait tracks ticket wait durations.
func (m *InMemoryMetrics) ObserveTicketWait(d time.Duration) {
	m.observe("ticket_wait", d)
}

// ObserveUpstream tracks upstream request durations.
func (m *InMemoryMetrics) ObserveUpstream(d time.Duration) {
	m.observe("upstream", d)
}

// IncRequest increments a per-result request counter.
func (m *InMemoryMetrics) IncRequest(result string) {
	if m == nil || result == "" {
		return
	}
	counter := m.getCounter("requests|" + result)
	if counter != nil {
		counter.Add(1)
	}
}

// IncReportFailure increments the header report failure counter.
func (m *InMemoryMetrics) IncReportFailure() {
	if m == nil {
		return
	}
	counter := m.getCounter("report_failures")
	if counter != nil {
		counter.Add(1)
	}
}

// Snapshot exports metrics values.
func (m *InMemoryMetrics) Snapshot() map[string]any {
	result := map[string]any{}
	if m == nil {
		return result
	}

	counters := map[string]int64{}
	m.counters.Range(func(key, value any) bool {
		k, ok := key.(string)
		if !ok {
			return true
		}
		counter, ok := value.(*atomic.Int64)
		if !ok || counter == nil {
			return true
		}
		counters[k] = counter.Load()
		return true
	})

	latencies := map[string]map[string]int64{}
	m.latencies.Range(func(key, value any) bool {
		k, ok := key.(string)
		if !ok {
			return true
		}
		entry, ok := value.(*latencySummary)
		if !ok || entry == nil {
			return true
		}
		latencies[k] = map[string]int64{
			"count":      entry.count.Load(),
			"totalNanos": entry.totalNanos.Load(),
			"maxNanos":   entry.maxNanos.Load(),
		}
		return true
	})

	result["counters"] = counters
	result["latencies"] = latencies
	return result
}

func (m *InMemoryMetrics) observe(op string, d time.Duration) {
	if m == nil || op == "" {
		return
	}
	entry := m.getLatency("latency|" + op)
	if entry == nil {
		return
	}
	nanos := d.Nanoseconds()
	entry.count.Add(1)
	entry.totalNanos.Add(nanos)
	for {
		current := entry.maxNanos.Load()
		if nanos <= current {
			break
		}
		if entry.maxNanos.CompareAndSwap(current, nanos) {
			break
		}
	}
}

func (m *InMemoryMetrics) getCounter(key string) *atomic.Int64 {
	if existing, ok := m.counters.Load(key); ok {
		if counter, ok := existing.(*atomic.Int64); ok {
			return counter
		}
	}
	counter := &atomic.Int64{}
	actual, _ := m.counters.LoadOrStore(key, counter)
	if stored, ok := actual.(*atomic.Int64); ok {
		return stored
	}
	return counter
}

func (m *InMemoryMetrics) getLatency(key string) *latencySummary {
	if existing, ok := m.latencies.Load(key); ok {
		if entry, ok := existing.(*latencySummary); ok {
			return entry
		}
	}
	entry := &latencySummary{}
	actual, _ := m.latencies.LoadOrStore(key, entry)
	if stored, ok := actual.(*latencySummary); ok {
		return stored
	}
	return entry
}

// PrometheusMetrics exports proxy measurements through a Prometheus
// registry.
type PrometheusMetrics struct {
	ticketWait     prometheus.Histogram
	upstream       prometheus.Histogram
	requests       *prometheus.CounterVec
	reportFailures prometheus.Counter
}

// NewPrometheusMetrics registers the proxy collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		ticketWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nova",
			Subsystem: "rest",
			Name:      "ticket_wait_seconds",
			Help:      "Time spent waiting for a ratelimiter ticket.",
		}),
		upstream: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nova",
			Subsystem: "rest",
			Name:      "upstream_seconds",
			Help:      "Time spent on the upstream API request.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nova",
			Subsystem: "rest",
			Name:      "requests_total",
			Help:      "Proxied requests by result.",
		}, []string{"result"}),
		reportFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nova",
			Subsystem: "rest",
			Name:      "report_failures_total",
			Help:      "Header reports that failed to reach the ratelimiter.",
		}),
	}
}

// ObserveTicketWait tracks ticket wait durations.
func (m *PrometheusMetrics) ObserveTicketWait(d time.Duration) {
	if m == nil {
		return
	}
	m.ticketWait.Observe(d.Seconds())
}

// ObserveUpstream tracks upstream request durations.
func (m *PrometheusMetrics) ObserveUpstream(d time.Duration) {
	if m == nil {
		return
	}
	m.upstream.Observe(d.Seconds())
}

// IncRequest increments a per-result request counter.
func (m *PrometheusMetrics) IncRequest(result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
}

// IncReportFailure increments the header report failure counter.
func (m *PrometheusMetrics) IncReportFailure() {
	if m == nil {
		return
	}
	m.reportFailures.Inc()
}
